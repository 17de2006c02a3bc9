package tree

import "github.com/relaymesh/go-relaymesh/common/types"

// IncrementalTree is the live accumulator. It keeps one branch node per
// level plus a leaf count; ingestion and root computation are O(Depth).
//
// The root is a pure function of (branch, count). Re-ingesting the same
// leaf produces a different root because the count always advances;
// callers must de-duplicate upstream.
type IncrementalTree struct {
	branch [Depth]types.Hash32
	count  uint64
}

// NewIncremental returns an empty accumulator.
func NewIncremental() *IncrementalTree {
	return &IncrementalTree{}
}

// Ingest appends a leaf. Walks up from the leaf, stopping at the first
// level whose branch slot is not yet merged for the new count.
func (t *IncrementalTree) Ingest(leaf types.Hash32) error {
	if t.count >= MaxLeaves {
		return ErrTreeFull
	}
	size := t.count + 1
	node := leaf
	for i := 0; i < Depth; i++ {
		if (size>>i)&1 == 1 {
			t.branch[i] = node
			t.count = size
			return nil
		}
		node = hashConcat(t.branch[i], node)
	}
	panic("tree: branch walk overran depth")
}

// Root computes the current root from the branch and count.
func (t *IncrementalTree) Root() types.Hash32 {
	var node types.Hash32
	size := t.count
	for i := 0; i < Depth; i++ {
		if (size>>i)&1 == 1 {
			node = hashConcat(t.branch[i], node)
		} else {
			node = hashConcat(node, zeroHashes[i])
		}
	}
	return node
}

// Count returns the number of ingested leaves.
func (t *IncrementalTree) Count() uint64 {
	return t.count
}
