package tree

import "github.com/relaymesh/go-relaymesh/common/types"

// Prover retains the full ordered leaf sequence so it can answer
// inclusion proofs against any historically observed root, not just the
// current tip. A checkpoint may lag the freshest tree state by many
// insertions, so the attested root usually is a historical one.
//
// The prover holds no uniquely-owned state: it is rebuilt from the
// persisted leaf log on restart.
type Prover struct {
	leaves []types.Hash32
}

// NewProver returns an empty prover.
func NewProver() *Prover {
	return &Prover{}
}

// Ingest appends a leaf.
func (p *Prover) Ingest(leaf types.Hash32) error {
	if uint64(len(p.leaves)) >= MaxLeaves {
		return ErrTreeFull
	}
	p.leaves = append(p.leaves, leaf)
	return nil
}

// Count returns the number of ingested leaves.
func (p *Prover) Count() uint64 {
	return uint64(len(p.leaves))
}

// Leaf returns the leaf at the given index.
func (p *Prover) Leaf(index uint32) (types.Hash32, error) {
	if uint64(index) >= p.Count() {
		return types.Hash32{}, ErrNotYetObserved
	}
	return p.leaves[index], nil
}

// Root returns the current root.
func (p *Prover) Root() types.Hash32 {
	return p.subtreeRoot(uint64(len(p.leaves)), Depth, 0)
}

// RootAt returns the root that was current when the tree held
// rootIndex+1 leaves.
func (p *Prover) RootAt(rootIndex uint32) (types.Hash32, error) {
	if uint64(rootIndex) >= p.Count() {
		return types.Hash32{}, ErrNotYetObserved
	}
	return p.subtreeRoot(uint64(rootIndex)+1, Depth, 0), nil
}

// Prove generates an inclusion proof for the leaf at index against the
// current tip.
func (p *Prover) Prove(index uint32) (Proof, error) {
	if p.Count() == 0 {
		return Proof{}, ErrNotYetObserved
	}
	return p.ProveAgainst(index, uint32(p.Count()-1))
}

// ProveAgainst generates an inclusion proof for the leaf at index
// against the historical root that was current when the tree held
// rootIndex+1 leaves. The leaf must already have been committed at that
// point, i.e. index <= rootIndex.
func (p *Prover) ProveAgainst(index, rootIndex uint32) (Proof, error) {
	if uint64(rootIndex) >= p.Count() || index > rootIndex {
		return Proof{}, ErrNotYetObserved
	}
	count := uint64(rootIndex) + 1
	proof := Proof{Leaf: p.leaves[index], Index: index}
	for level := 0; level < Depth; level++ {
		sibling := (uint64(index)>>level) ^ 1
		proof.Path[level] = p.subtreeRoot(count, level, sibling)
	}
	return proof, nil
}

// subtreeRoot computes the root of the subtree of the given level whose
// leftmost leaf is at position index<<level, over the first count
// leaves; leaves beyond count are zero.
func (p *Prover) subtreeRoot(count uint64, level int, index uint64) types.Hash32 {
	start := index << level
	if start >= count {
		return zeroHashes[level]
	}
	if level == 0 {
		return p.leaves[start]
	}
	left := p.subtreeRoot(count, level-1, index*2)
	right := p.subtreeRoot(count, level-1, index*2+1)
	return hashConcat(left, right)
}
