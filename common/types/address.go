package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spacemeshos/go-scale"
)

// AddressLength is the expected length of a signer address in bytes.
const AddressLength = 20

// Address is the 20-byte address of a transaction signer on a
// destination chain. It identifies the account whose nonce sequence a
// transaction consumes.
type Address [AddressLength]byte

// BytesToAddress returns an Address from the given bytes, cropped from
// the left if longer than 20 bytes.
func BytesToAddress(b []byte) (a Address) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// StringToAddress parses a hex address with an optional 0x prefix.
func StringToAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("decode address %q: %w", s, err)
	}
	if len(b) != AddressLength {
		return a, fmt.Errorf("wrong address length %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Bytes gets the byte representation of the underlying address.
func (a Address) Bytes() []byte { return a[:] }

// String implements fmt.Stringer.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsEmpty returns true for the zero address.
func (a Address) IsEmpty() bool { return a == Address{} }

// EncodeScale implements scale codec interface.
func (a *Address) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, a[:])
}

// DecodeScale implements scale codec interface.
func (a *Address) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, a[:])
}
