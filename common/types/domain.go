package types

import (
	"strconv"

	"github.com/spacemeshos/go-scale"
)

// Domain identifies a chain in the interchain protocol. Each domain
// carries its own message tree on the origin side and its own
// dispatcher worker on the destination side.
type Domain uint32

// Uint32 returns the raw domain identifier.
func (d Domain) Uint32() uint32 { return uint32(d) }

// String implements fmt.Stringer.
func (d Domain) String() string {
	return strconv.FormatUint(uint64(d), 10)
}

// EncodeScale implements scale codec interface.
func (d *Domain) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeCompact32(e, uint32(*d))
}

// DecodeScale implements scale codec interface.
func (d *Domain) DecodeScale(dec *scale.Decoder) (int, error) {
	value, n, err := scale.DecodeCompact32(dec)
	if err != nil {
		return n, err
	}
	*d = Domain(value)
	return n, nil
}
