// Package system defines the capability interfaces the relayer core
// depends on. Concrete chain clients implement them outside this
// repository; the core is written against these and tested with mocks.
package system

import (
	"context"
	"errors"

	"github.com/holiman/uint256"

	"github.com/relaymesh/go-relaymesh/common/types"
)

//go:generate mockgen -typed -package=mocks -destination=./mocks/mocks.go -source=./interface.go

// ErrNoCheckpoint is returned by an AttestationStore that has not yet
// observed any signed checkpoint.
var ErrNoCheckpoint = errors.New("no checkpoint observed")

// Dispatch is one message commitment observed in a finalized origin
// chain block. Index is the position of the leaf in the origin tree.
type Dispatch struct {
	Index uint32
	Leaf  types.Hash32
	Block uint64
}

// Indexer reads message dispatches from an origin chain. Implementations
// must only report dispatches from finalized blocks.
type Indexer interface {
	// FinalizedBlock returns the highest finalized block number.
	FinalizedBlock(context.Context) (uint64, error)
	// Dispatches returns all dispatches in blocks (from, to], ordered by
	// leaf index.
	Dispatches(ctx context.Context, from, to uint64) ([]Dispatch, error)
}

// AttestationStore serves the signed checkpoints published by a single
// validator.
type AttestationStore interface {
	// LatestIndex returns the highest checkpoint index the validator has
	// signed, or ErrNoCheckpoint.
	LatestIndex(context.Context) (uint32, error)
	// Checkpoint returns the signed checkpoint at the given index, or
	// ErrNoCheckpoint if the validator has not signed that index.
	Checkpoint(ctx context.Context, index uint32) (*types.SignedCheckpoint, error)
}

// GasEstimate is the adapter's simulation result for a precursor.
type GasEstimate struct {
	GasLimit uint64
	Fee      uint256.Int
}

// ChainAdapter abstracts one destination chain for the dispatcher. The
// core never interprets precursors or success criteria; both are opaque
// chain-specific bytes.
type ChainAdapter interface {
	// MaxBatchSize returns the largest number of payloads the chain can
	// process in one transaction. Always at least 1.
	MaxBatchSize() int
	// BuildPrecursor assembles a transaction skeleton delivering the
	// given payloads. An error means the combination cannot be batched.
	BuildPrecursor(ctx context.Context, payloads []*types.Payload) ([]byte, error)
	// Estimate simulates the precursor. An error means the transaction
	// would fail on-chain and must not be submitted.
	Estimate(ctx context.Context, precursor []byte) (GasEstimate, error)
	// Submit broadcasts the transaction. The transaction carries its
	// assigned nonce, fee and gas limit.
	Submit(ctx context.Context, tx *types.Transaction) error
	// Status reports the current lifecycle state of a submitted
	// transaction as observed on-chain.
	Status(ctx context.Context, tx *types.Transaction) (types.TransactionStatus, error)
	// RevertedPayloads evaluates the success criteria of every payload
	// of a finalized transaction and returns those that did not hold.
	RevertedPayloads(ctx context.Context, tx *types.Transaction) ([]types.PayloadID, error)
}
