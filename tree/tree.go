// Package tree implements the append-only commitment accumulator for
// dispatched messages: a fixed-depth sparse merkle tree with an
// incremental branch representation, and a prover that can answer
// inclusion proofs against any historically observed root.
package tree

import (
	"errors"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/hash"
)

const (
	// Depth is the fixed depth of the message tree.
	Depth = 32
	// MaxLeaves is the maximum number of leaves the tree can commit.
	MaxLeaves = 1<<Depth - 1
)

var (
	// ErrTreeFull is returned when ingesting into a tree that already
	// holds MaxLeaves leaves. It signals a programming error upstream,
	// not a retryable runtime condition.
	ErrTreeFull = errors.New("tree: full")
	// ErrNotYetObserved is returned when a proof is requested for a
	// leaf or root index the prover has not observed.
	ErrNotYetObserved = errors.New("tree: index not yet observed")
)

// zeroHashes[i] is the root of a zero subtree of depth i.
var zeroHashes [Depth + 1]types.Hash32

func init() {
	for i := 1; i <= Depth; i++ {
		zeroHashes[i] = hashConcat(zeroHashes[i-1], zeroHashes[i-1])
	}
}

func hashConcat(left, right types.Hash32) types.Hash32 {
	return hash.Concat(left.Bytes(), right.Bytes())
}

// ZeroHash returns the root of a zero subtree of the given depth.
func ZeroHash(depth int) types.Hash32 {
	return zeroHashes[depth]
}

// EmptyRoot returns the root of the tree before any ingestion.
func EmptyRoot() types.Hash32 {
	return zeroHashes[Depth]
}
