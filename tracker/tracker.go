// Package tracker maintains the local replica of one origin chain's
// message tree. It tails finalized dispatch events through the indexer,
// persists every leaf, and feeds two tree structures that must never
// disagree: the O(1)-storage accumulator and the full prover.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/sql"
	"github.com/relaymesh/go-relaymesh/sql/leaves"
	"github.com/relaymesh/go-relaymesh/system"
	"github.com/relaymesh/go-relaymesh/tree"
)

var (
	// ErrMismatchedRoots means the accumulator and the prover disagree
	// about the root after ingesting the same leaf sequence. One of the
	// two computations is corrupted and nothing derived from either can
	// be trusted. Fatal; the tracker refuses all further ingestion.
	ErrMismatchedRoots = errors.New("accumulator and prover roots diverged")
	// ErrLeafGap means the indexer reported a dispatch whose leaf index
	// does not extend the tree contiguously.
	ErrLeafGap = errors.New("dispatch leaf index out of order")
)

const (
	defaultInterval  = 5 * time.Second
	defaultRateLimit = rate.Limit(10)
)

// Opt configures a Tracker.
type Opt func(*Tracker)

// WithClock overrides the clock used by the poll loop.
func WithClock(clock clockwork.Clock) Opt {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// WithInterval overrides the poll interval.
func WithInterval(interval time.Duration) Opt {
	return func(t *Tracker) {
		t.interval = interval
	}
}

// WithRateLimit overrides the indexer RPC rate limit.
func WithRateLimit(limit rate.Limit, burst int) Opt {
	return func(t *Tracker) {
		t.limiter = rate.NewLimiter(limit, burst)
	}
}

// Tracker replicates the message tree of a single origin domain.
type Tracker struct {
	logger  *zap.Logger
	db      *sql.Database
	domain  types.Domain
	indexer system.Indexer

	clock    clockwork.Clock
	interval time.Duration
	limiter  *rate.Limiter

	mu        sync.RWMutex
	tree      *tree.IncrementalTree
	prover    *tree.Prover
	lastBlock uint64
	fault     error
}

// New creates a tracker and rebuilds its tree structures from the
// persisted leaf log. The store is authoritative; the in-memory trees
// are derived state.
func New(
	db *sql.Database,
	domain types.Domain,
	indexer system.Indexer,
	logger *zap.Logger,
	opts ...Opt,
) (*Tracker, error) {
	t := &Tracker{
		logger:   logger,
		db:       db,
		domain:   domain,
		indexer:  indexer,
		clock:    clockwork.NewRealClock(),
		interval: defaultInterval,
		limiter:  rate.NewLimiter(defaultRateLimit, 1),
		tree:     tree.NewIncremental(),
		prover:   tree.NewProver(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.rebuild(); err != nil {
		return nil, fmt.Errorf("rebuild tree for domain %s: %w", domain, err)
	}
	return t, nil
}

// rebuild replays the persisted leaf log into both tree structures.
func (t *Tracker) rebuild() error {
	var (
		ingestErr error
		expect    uint32
	)
	if err := leaves.IterateOrdered(t.db, t.domain, func(index uint32, leaf types.Hash32) bool {
		if index != expect {
			ingestErr = fmt.Errorf("%w: stored leaf %d, expected %d", ErrLeafGap, index, expect)
			return false
		}
		expect++
		if ingestErr = t.tree.Ingest(leaf); ingestErr != nil {
			return false
		}
		if ingestErr = t.prover.Ingest(leaf); ingestErr != nil {
			return false
		}
		return true
	}); err != nil {
		return err
	}
	if ingestErr != nil {
		return ingestErr
	}
	if t.tree.Count() > 0 && t.tree.Root() != t.prover.Root() {
		return ErrMismatchedRoots
	}
	block, err := leaves.LastInsertionBlock(t.db, t.domain)
	if err != nil {
		return err
	}
	t.lastBlock = block
	t.logger.Info("tree rebuilt from leaf log",
		zap.Stringer("domain", t.domain),
		zap.Uint64("leaves", t.tree.Count()),
		zap.Uint64("last_block", block),
	)
	return nil
}

// Run polls the indexer until the context is canceled or a fatal fault
// occurs. ErrMismatchedRoots is fatal and propagated to the caller.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		if err := t.poll(ctx); err != nil {
			if errors.Is(err, ErrMismatchedRoots) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			// Transient indexer failures resolve on the next tick.
			t.logger.Warn("poll failed",
				zap.Stringer("domain", t.domain),
				zap.Error(err),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		}
	}
}

// poll ingests all dispatches from newly finalized blocks.
func (t *Tracker) poll(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	finalized, err := t.indexer.FinalizedBlock(ctx)
	if err != nil {
		return fmt.Errorf("finalized block: %w", err)
	}
	last := t.LastIndexedBlock()
	if finalized <= last {
		return nil
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	dispatches, err := t.indexer.Dispatches(ctx, last, finalized)
	if err != nil {
		return fmt.Errorf("dispatches (%d, %d]: %w", last, finalized, err)
	}
	for _, dispatch := range dispatches {
		if err := t.Ingest(dispatch); err != nil {
			return err
		}
	}
	t.mu.Lock()
	t.lastBlock = finalized
	t.mu.Unlock()
	lastIndexedBlock.WithLabelValues(t.domain.String()).Set(float64(finalized))
	return nil
}

// Ingest persists one dispatched leaf and extends both tree structures.
// The leaf must extend the tree contiguously; an already ingested index
// is ignored so re-delivered ranges are harmless.
func (t *Tracker) Ingest(dispatch system.Dispatch) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fault != nil {
		return t.fault
	}
	count := t.tree.Count()
	if uint64(dispatch.Index) < count {
		return nil
	}
	if uint64(dispatch.Index) > count {
		return fmt.Errorf("%w: got %d, expected %d", ErrLeafGap, dispatch.Index, count)
	}
	// The store is written first; in-memory state is rebuilt from it.
	if err := leaves.Add(t.db, t.domain, dispatch.Index, dispatch.Leaf, dispatch.Block); err != nil {
		return err
	}
	if err := t.tree.Ingest(dispatch.Leaf); err != nil {
		return err
	}
	if err := t.prover.Ingest(dispatch.Leaf); err != nil {
		return err
	}
	if t.tree.Root() != t.prover.Root() {
		t.fault = fmt.Errorf("%w: at leaf %d", ErrMismatchedRoots, dispatch.Index)
		rootMismatches.WithLabelValues(t.domain.String()).Inc()
		t.logger.Error("tree state corrupted, refusing further ingestion",
			zap.Stringer("domain", t.domain),
			zap.Uint32("leaf_index", dispatch.Index),
		)
		return t.fault
	}
	leavesIngested.WithLabelValues(t.domain.String()).Inc()
	return nil
}

// Domain returns the origin domain the tracker replicates.
func (t *Tracker) Domain() types.Domain {
	return t.domain
}

// Root returns the current tree root.
func (t *Tracker) Root() types.Hash32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tree.Root()
}

// Count returns the number of ingested leaves.
func (t *Tracker) Count() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tree.Count()
}

// LastIndexedBlock returns the highest origin block whose dispatches
// were ingested.
func (t *Tracker) LastIndexedBlock() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastBlock
}

// Leaf returns the ingested leaf at the given index.
func (t *Tracker) Leaf(index uint32) (types.Hash32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.prover.Leaf(index)
}

// ProveAgainst generates an inclusion proof for the leaf at index
// against the historical root at rootIndex.
func (t *Tracker) ProveAgainst(index, rootIndex uint32) (tree.Proof, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.prover.ProveAgainst(index, rootIndex)
}

// RootAt returns the root that was current when the tree held
// rootIndex+1 leaves.
func (t *Tracker) RootAt(rootIndex uint32) (types.Hash32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.prover.RootAt(rootIndex)
}
