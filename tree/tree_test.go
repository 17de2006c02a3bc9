package tree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/hash"
)

func leafN(i int) types.Hash32 {
	return types.CalcHash32([]byte{byte(i), byte(i >> 8)})
}

func TestZeroHashes(t *testing.T) {
	require.Equal(t, types.Hash32{}, ZeroHash(0))
	for level := 1; level <= Depth; level++ {
		below := ZeroHash(level - 1)
		want := types.Hash32(hash.Concat(below.Bytes(), below.Bytes()))
		require.Equal(t, want, ZeroHash(level))
	}
	require.Equal(t, ZeroHash(Depth), EmptyRoot())
	require.Equal(t, EmptyRoot(), NewIncremental().Root())
}

func TestIncrementalMatchesProver(t *testing.T) {
	inc := NewIncremental()
	prover := NewProver()
	for i := 0; i < 65; i++ {
		require.NoError(t, inc.Ingest(leafN(i)))
		require.NoError(t, prover.Ingest(leafN(i)))
		require.Equal(t, prover.Root(), inc.Root(), "roots diverged after leaf %d", i)
		require.Equal(t, uint64(i+1), inc.Count())
	}
}

func TestProofRoundTrip(t *testing.T) {
	prover := NewProver()
	for i := 0; i < 17; i++ {
		require.NoError(t, prover.Ingest(leafN(i)))
	}
	root := prover.Root()
	for i := 0; i < 17; i++ {
		proof, err := prover.Prove(uint32(i))
		require.NoError(t, err)
		require.Equal(t, leafN(i), proof.Leaf)
		require.Equal(t, uint32(i), proof.Index)
		require.True(t, proof.Verify(root))
	}
}

func TestHistoricalProofs(t *testing.T) {
	prover := NewProver()
	for i := 0; i < 12; i++ {
		require.NoError(t, prover.Ingest(leafN(i)))
	}
	for rootIndex := uint32(0); rootIndex < 12; rootIndex++ {
		root, err := prover.RootAt(rootIndex)
		require.NoError(t, err)
		for index := uint32(0); index <= rootIndex; index++ {
			proof, err := prover.ProveAgainst(index, rootIndex)
			require.NoError(t, err)
			require.True(t, proof.Verify(root),
				"leaf %d against root %d", index, rootIndex)
		}
	}
}

func TestHistoricalRootMatchesPastTip(t *testing.T) {
	full := NewProver()
	for i := 0; i < 20; i++ {
		require.NoError(t, full.Ingest(leafN(i)))
	}
	partial := NewProver()
	for i := 0; i < 20; i++ {
		require.NoError(t, partial.Ingest(leafN(i)))
		got, err := full.RootAt(uint32(i))
		require.NoError(t, err)
		require.Equal(t, partial.Root(), got)
	}
}

func TestProofCorruptionFailsVerification(t *testing.T) {
	prover := NewProver()
	for i := 0; i < 9; i++ {
		require.NoError(t, prover.Ingest(leafN(i)))
	}
	root := prover.Root()
	proof, err := prover.Prove(4)
	require.NoError(t, err)
	require.True(t, proof.Verify(root))

	leafFlip := proof
	leafFlip.Leaf[0] ^= 0x01
	require.False(t, leafFlip.Verify(root))

	pathFlip := proof
	pathFlip.Path[3][17] ^= 0x80
	require.False(t, pathFlip.Verify(root))

	indexFlip := proof
	indexFlip.Index ^= 1
	require.False(t, indexFlip.Verify(root))

	rootFlip := root
	rootFlip[31] ^= 0x01
	require.False(t, proof.Verify(rootFlip))
}

func TestProveAgainstBounds(t *testing.T) {
	prover := NewProver()
	_, err := prover.Prove(0)
	require.ErrorIs(t, err, ErrNotYetObserved)

	for i := 0; i < 5; i++ {
		require.NoError(t, prover.Ingest(leafN(i)))
	}
	_, err = prover.ProveAgainst(0, 5)
	require.ErrorIs(t, err, ErrNotYetObserved)
	_, err = prover.ProveAgainst(4, 3)
	require.ErrorIs(t, err, ErrNotYetObserved)
	_, err = prover.RootAt(5)
	require.ErrorIs(t, err, ErrNotYetObserved)
	_, err = prover.Leaf(5)
	require.ErrorIs(t, err, ErrNotYetObserved)
}

func TestSingleLeafRoot(t *testing.T) {
	prover := NewProver()
	require.NoError(t, prover.Ingest(leafN(0)))
	// With one leaf the root hashes the leaf against zero subtrees all
	// the way up.
	node := leafN(0)
	for level := 0; level < Depth; level++ {
		node = types.Hash32(hash.Concat(node.Bytes(), ZeroHash(level).Bytes()))
	}
	require.Equal(t, node, prover.Root())
}
