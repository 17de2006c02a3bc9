// Package node assembles the relayer services: the commitment tracker
// tailing the origin chain, the quorum verifier over the attestation
// stores, the nonce manager, and one dispatcher per destination chain.
package node

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/config"
	"github.com/relaymesh/go-relaymesh/dispatcher"
	"github.com/relaymesh/go-relaymesh/metrics"
	"github.com/relaymesh/go-relaymesh/nonce"
	"github.com/relaymesh/go-relaymesh/quorum"
	"github.com/relaymesh/go-relaymesh/signing"
	"github.com/relaymesh/go-relaymesh/sql"
	"github.com/relaymesh/go-relaymesh/system"
	"github.com/relaymesh/go-relaymesh/tracker"
	"github.com/relaymesh/go-relaymesh/tree"
)

// Capabilities are the chain-specific clients the node is wired with.
// The core never talks to a chain directly; everything goes through
// these.
type Capabilities struct {
	// Indexer reads the origin chain.
	Indexer system.Indexer
	// Stores serve validator checkpoint attestations.
	Stores []system.AttestationStore
	// Adapters submit to destination chains, keyed by domain.
	Adapters map[types.Domain]system.ChainAdapter
}

// Authorization bundles the artifacts justifying one delivery: the
// quorum checkpoint and the message's inclusion proof against it.
type Authorization struct {
	Quorum types.QuorumCheckpoint
	Proof  tree.Proof
}

// Node is a relayer instance for one origin domain.
type Node struct {
	logger      *zap.Logger
	cfg         config.Config
	db          *sql.Database
	origin      types.Domain
	tracker     *tracker.Tracker
	verifier    *quorum.Verifier
	validators  []types.ValidatorID
	nonces      *nonce.Manager
	dispatchers map[types.Domain]*dispatcher.Dispatcher
}

// New builds a node from configuration and chain capabilities. The
// tracker state is rebuilt from the database before this returns.
func New(cfg config.Config, caps Capabilities, logger *zap.Logger) (*Node, error) {
	if caps.Indexer == nil {
		return nil, fmt.Errorf("no origin indexer configured")
	}
	validators, err := cfg.Quorum.ValidatorIDs()
	if err != nil {
		return nil, err
	}
	if cfg.Quorum.Threshold <= 0 || cfg.Quorum.Threshold > len(validators) {
		return nil, fmt.Errorf("quorum threshold %d out of range for %d validators",
			cfg.Quorum.Threshold, len(validators))
	}

	db, err := sql.Open("file:"+cfg.DatabasePath(), sql.WithLogger(logger.Named("db")))
	if err != nil {
		return nil, err
	}
	origin := types.Domain(cfg.OriginDomain)
	trk, err := tracker.New(db, origin, caps.Indexer, logger.Named("tracker"),
		tracker.WithInterval(cfg.Tracker.Interval),
		tracker.WithRateLimit(rate.Limit(cfg.Tracker.RateLimit), cfg.Tracker.RateBurst),
	)
	if err != nil {
		db.Close()
		return nil, err
	}
	edVerify, err := signing.NewEdVerifier(signing.WithVerifierPrefix([]byte(cfg.Quorum.Prefix)))
	if err != nil {
		db.Close()
		return nil, err
	}
	verifier, err := quorum.NewVerifier(origin, caps.Stores, edVerify, trk, logger.Named("quorum"),
		quorum.WithCacheSize(cfg.Quorum.CacheSize))
	if err != nil {
		db.Close()
		return nil, err
	}
	nonces := nonce.NewManager(db, logger.Named("nonce"))

	dispatchers := make(map[types.Domain]*dispatcher.Dispatcher, len(cfg.Destinations))
	for _, dst := range cfg.Destinations {
		domain := types.Domain(dst.Domain)
		adapter, ok := caps.Adapters[domain]
		if !ok {
			db.Close()
			return nil, fmt.Errorf("no chain adapter for destination %s", domain)
		}
		signer, err := dst.SignerAddress()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("destination %s: %w", domain, err)
		}
		dispatchers[domain] = dispatcher.New(db, domain, signer, adapter, nonces,
			logger.Named("dispatcher"), dispatcher.WithConfig(cfg.Dispatcher))
	}

	return &Node{
		logger:      logger,
		cfg:         cfg,
		db:          db,
		origin:      origin,
		tracker:     trk,
		verifier:    verifier,
		validators:  validators,
		nonces:      nonces,
		dispatchers: dispatchers,
	}, nil
}

// Run starts all service loops and blocks until the context is
// canceled or a fatal fault occurs in one of them.
func (n *Node) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return n.tracker.Run(ctx)
	})
	for _, d := range n.dispatchers {
		d := d
		eg.Go(func() error {
			return d.Run(ctx)
		})
	}
	if n.cfg.CollectMetrics {
		eg.Go(func() error {
			return metrics.Serve(ctx, n.cfg.MetricsPort, n.logger.Named("metrics"))
		})
	}
	n.logger.Info("node started",
		zap.Stringer("origin", n.origin),
		zap.Int("destinations", len(n.dispatchers)),
	)
	return eg.Wait()
}

// Close releases the node's resources.
func (n *Node) Close() error {
	return n.db.Close()
}

// Tracker returns the origin tree replica.
func (n *Node) Tracker() *tracker.Tracker {
	return n.tracker
}

// Relay authorizes and enqueues delivery of the message at msgIndex to
// the destination domain. It returns quorum.ErrNoQuorum while the
// validators have not yet collectively attested a checkpoint covering
// the message; callers retry later.
func (n *Node) Relay(
	ctx context.Context,
	msgIndex uint32,
	destination types.Domain,
	calldata, successCriteria []byte,
) (*Authorization, error) {
	d, ok := n.dispatchers[destination]
	if !ok {
		return nil, fmt.Errorf("no dispatcher for destination %s", destination)
	}
	leaf, err := n.tracker.Leaf(msgIndex)
	if err != nil {
		return nil, fmt.Errorf("message %d not observed: %w", msgIndex, err)
	}
	count := n.tracker.Count()
	if count == 0 {
		return nil, fmt.Errorf("message %d not observed: empty tree", msgIndex)
	}
	qc, err := n.verifier.FindQuorum(ctx, msgIndex, n.validators, n.cfg.Quorum.Threshold, uint32(count-1))
	if err != nil {
		return nil, err
	}
	proof, err := n.tracker.ProveAgainst(msgIndex, qc.Checkpoint.Index)
	if err != nil {
		return nil, err
	}

	payload := &types.Payload{
		ID:              types.NewPayloadID(destination, leaf, 0),
		Destination:     destination,
		Leaf:            leaf,
		LeafIndex:       msgIndex,
		Calldata:        calldata,
		SuccessCriteria: successCriteria,
		Status:          types.PayloadReadyToSubmit,
	}
	if err := d.Enqueue(payload); err != nil {
		return nil, err
	}
	n.logger.Info("delivery enqueued",
		zap.Uint32("msg_index", msgIndex),
		zap.Stringer("destination", destination),
		zap.Uint32("checkpoint", qc.Checkpoint.Index),
	)
	return &Authorization{Quorum: *qc, Proof: proof}, nil
}

// Abandon gives up on delivering the message at msgIndex to the
// destination after no quorum checkpoint covering it appeared within
// the caller's horizon. A terminal dropped payload record is persisted.
func (n *Node) Abandon(msgIndex uint32, destination types.Domain) error {
	d, ok := n.dispatchers[destination]
	if !ok {
		return fmt.Errorf("no dispatcher for destination %s", destination)
	}
	leaf, err := n.tracker.Leaf(msgIndex)
	if err != nil {
		return fmt.Errorf("message %d not observed: %w", msgIndex, err)
	}
	return d.Abandon(&types.Payload{
		ID:          types.NewPayloadID(destination, leaf, 0),
		Destination: destination,
		Leaf:        leaf,
		LeafIndex:   msgIndex,
	}, types.DropQuorumHorizon)
}

// ResetNonce is the operator repair surface for a signer whose local
// nonce record diverged from chain state.
func (n *Node) ResetNonce(ctx context.Context, signer types.Address, desired uint64) error {
	return n.nonces.ResetTo(ctx, signer, desired)
}
