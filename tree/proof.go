package tree

import (
	"github.com/spacemeshos/go-scale"

	"github.com/relaymesh/go-relaymesh/common/types"
)

// Proof is a merkle inclusion proof: the leaf, its index, and the
// sibling path in bottom-up order. A proof is valid against a trusted
// checkpoint iff recomputing the root from (leaf, path, index) yields
// the checkpoint's root.
type Proof struct {
	Leaf  types.Hash32
	Index uint32
	Path  [Depth]types.Hash32
}

// Root computes the merkle root implied by the proof.
func (p *Proof) Root() types.Hash32 {
	node := p.Leaf
	for i := 0; i < Depth; i++ {
		if (p.Index>>i)&1 == 1 {
			node = hashConcat(p.Path[i], node)
		} else {
			node = hashConcat(node, p.Path[i])
		}
	}
	return node
}

// Verify returns true if the proof recomputes to the given root.
func (p *Proof) Verify(root types.Hash32) bool {
	return p.Root() == root
}

// EncodeScale implements scale codec interface.
func (p *Proof) EncodeScale(enc *scale.Encoder) (total int, err error) {
	if n, err := scale.EncodeByteArray(enc, p.Leaf[:]); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact32(enc, p.Index); err != nil {
		return total, err
	} else {
		total += n
	}
	for i := range p.Path {
		if n, err := scale.EncodeByteArray(enc, p.Path[i][:]); err != nil {
			return total, err
		} else {
			total += n
		}
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (p *Proof) DecodeScale(dec *scale.Decoder) (total int, err error) {
	if n, err := scale.DecodeByteArray(dec, p.Leaf[:]); err != nil {
		return total, err
	} else {
		total += n
	}
	if field, n, err := scale.DecodeCompact32(dec); err != nil {
		return total, err
	} else {
		total += n
		p.Index = field
	}
	for i := range p.Path {
		if n, err := scale.DecodeByteArray(dec, p.Path[i][:]); err != nil {
			return total, err
		} else {
			total += n
		}
	}
	return total, nil
}
