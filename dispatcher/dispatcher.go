// Package dispatcher owns the destination side of delivery: it batches
// authorized payloads into chain transactions, assigns nonces, submits,
// and drives every transaction to a terminal state. One dispatcher
// serves one destination domain; dispatchers sharing a signer address
// coordinate through the same nonce manager.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/nonce"
	"github.com/relaymesh/go-relaymesh/sql"
	"github.com/relaymesh/go-relaymesh/sql/payloads"
	"github.com/relaymesh/go-relaymesh/sql/transactions"
	"github.com/relaymesh/go-relaymesh/system"
)

// Config carries the timing knobs of a dispatcher.
type Config struct {
	// Interval between work cycles.
	Interval time.Duration `mapstructure:"interval"`
	// EscalateAfter is how long a transaction may sit unincluded before
	// it is rebuilt with a higher fee.
	EscalateAfter time.Duration `mapstructure:"escalate-after"`
	// RetryInterval is the initial backoff interval for transient
	// adapter failures.
	RetryInterval time.Duration `mapstructure:"retry-interval"`
	// MaxRetryTime bounds the total backoff spent on one adapter call.
	MaxRetryTime time.Duration `mapstructure:"max-retry-time"`
}

// DefaultConfig returns the default dispatcher timing.
func DefaultConfig() Config {
	return Config{
		Interval:      2 * time.Second,
		EscalateAfter: 90 * time.Second,
		RetryInterval: 100 * time.Millisecond,
		MaxRetryTime:  5 * time.Second,
	}
}

// Opt configures a Dispatcher.
type Opt func(*Dispatcher)

// WithClock overrides the clock used for submission timestamps and the
// work loop.
func WithClock(clock clockwork.Clock) Opt {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// WithConfig overrides the default timing configuration.
func WithConfig(cfg Config) Opt {
	return func(d *Dispatcher) {
		d.cfg = cfg
	}
}

// Dispatcher drives payload delivery on one destination domain.
type Dispatcher struct {
	logger      *zap.Logger
	db          *sql.Database
	destination types.Domain
	signer      types.Address
	adapter     system.ChainAdapter
	nonces      *nonce.Manager
	clock       clockwork.Clock
	cfg         Config
}

// New creates a dispatcher for the destination domain, submitting with
// the given signer address.
func New(
	db *sql.Database,
	destination types.Domain,
	signer types.Address,
	adapter system.ChainAdapter,
	nonces *nonce.Manager,
	logger *zap.Logger,
	opts ...Opt,
) *Dispatcher {
	d := &Dispatcher{
		logger:      logger,
		db:          db,
		destination: destination,
		signer:      signer,
		adapter:     adapter,
		nonces:      nonces,
		clock:       clockwork.NewRealClock(),
		cfg:         DefaultConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue accepts a payload for delivery. The payload must be in
// ReadyToSubmit; an already known payload id is ignored so repeated
// enqueues of the same message attempt are harmless.
func (d *Dispatcher) Enqueue(payload *types.Payload) error {
	if payload.Destination != d.destination {
		return fmt.Errorf("payload %s targets domain %s, dispatcher serves %s",
			payload.ID, payload.Destination, d.destination)
	}
	if payload.Status != types.PayloadReadyToSubmit {
		return fmt.Errorf("payload %s enqueued in status %s", payload.ID, payload.Status)
	}
	if err := payloads.Add(d.db, payload); err != nil {
		if errors.Is(err, sql.ErrObjectExists) {
			return nil
		}
		return err
	}
	payloadsEnqueued.WithLabelValues(d.destination.String()).Inc()
	return nil
}

// Abandon records a payload that was given up on before it was ever
// enqueued, such as a message whose quorum checkpoint never appeared
// within the caller's horizon. The terminal record keeps the failure
// auditable.
func (d *Dispatcher) Abandon(payload *types.Payload, reason types.DropReason) error {
	if payload.Destination != d.destination {
		return fmt.Errorf("payload %s targets domain %s, dispatcher serves %s",
			payload.ID, payload.Destination, d.destination)
	}
	payload.Status = types.PayloadDropped
	payload.Reason = reason
	if err := payloads.Add(d.db, payload); err != nil {
		if errors.Is(err, sql.ErrObjectExists) {
			return fmt.Errorf("payload %s already enqueued, cannot abandon", payload.ID)
		}
		return err
	}
	payloadsFinished.WithLabelValues(d.destination.String(),
		payload.Status.String(), reason.String()).Inc()
	d.logger.Info("payload abandoned",
		zap.Stringer("payload", payload.ID),
		zap.Stringer("reason", reason),
	)
	return nil
}

// Run executes work cycles until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := d.clock.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		if err := d.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d.logger.Warn("work cycle failed",
				zap.Stringer("destination", d.destination),
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

// Cycle runs one pass of both stages: advance live transactions, then
// turn ready payloads into new submissions. Advancing first lets a
// finalization free payloads and nonces consumed by the same cycle.
func (d *Dispatcher) Cycle(ctx context.Context) error {
	if err := d.advance(ctx); err != nil {
		return err
	}
	return d.submitReady(ctx)
}

// submitReady batches all ReadyToSubmit payloads into transactions and
// submits them.
func (d *Dispatcher) submitReady(ctx context.Context) error {
	ready, err := payloads.ByStatus(d.db, d.destination, types.PayloadReadyToSubmit)
	if err != nil {
		return err
	}
	if len(ready) == 0 {
		return nil
	}
	max := d.adapter.MaxBatchSize()
	if max < 1 {
		max = 1
	}
	for start := 0; start < len(ready); start += max {
		end := min(start+max, len(ready))
		if err := d.submitBatch(ctx, ready[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// submitBatch builds, estimates and submits one transaction carrying
// the batch. A batch the adapter cannot build or simulate is retried
// payload by payload; a single payload failing simulation is dropped
// without ever being submitted.
func (d *Dispatcher) submitBatch(ctx context.Context, batch []*types.Payload) error {
	precursor, err := d.adapter.BuildPrecursor(ctx, batch)
	if err != nil {
		return d.splitOrDrop(ctx, batch, err)
	}
	estimate, err := d.adapter.Estimate(ctx, precursor)
	if err != nil {
		return d.splitOrDrop(ctx, batch, err)
	}

	tx := &types.Transaction{
		ID:          types.NewTransactionID(),
		Destination: d.destination,
		Signer:      d.signer,
		Precursor:   precursor,
		Fee:         estimate.Fee,
		GasLimit:    estimate.GasLimit,
		Status:      types.TxPendingInclusion,
	}
	for _, p := range batch {
		tx.Payloads = append(tx.Payloads, p.ID)
	}
	// Nonce record first, then the transaction, then payload ownership.
	// A crash between the steps leaves the nonce tracked by an unknown
	// transaction, which the next assignment scan reclaims.
	nonceVal, err := d.nonces.AssignNext(ctx, d.signer, tx.ID)
	if err != nil {
		return err
	}
	tx.Nonce = nonceVal
	tx.NonceSet = true
	if err := transactions.Add(d.db, tx); err != nil {
		return err
	}
	for _, p := range batch {
		p.Status = types.PayloadInTransaction
		if err := payloads.Update(d.db, p); err != nil {
			return err
		}
	}
	return d.submit(ctx, tx)
}

// splitOrDrop handles a batch the adapter rejected: singletons are
// dropped as failed simulation, larger batches are retried one by one.
func (d *Dispatcher) splitOrDrop(ctx context.Context, batch []*types.Payload, cause error) error {
	if len(batch) == 1 {
		d.logger.Info("payload failed simulation",
			zap.Stringer("payload", batch[0].ID),
			zap.Error(cause),
		)
		return d.finishPayload(batch[0], types.PayloadDropped, types.DropFailedSimulation)
	}
	for _, p := range batch {
		if err := d.submitBatch(ctx, []*types.Payload{p}); err != nil {
			return err
		}
	}
	return nil
}

// submit broadcasts the transaction and stamps the submission time.
func (d *Dispatcher) submit(ctx context.Context, tx *types.Transaction) error {
	if err := d.withRetry(ctx, func() error {
		return d.adapter.Submit(ctx, tx)
	}); err != nil {
		// The transaction record stays live; the next cycle resubmits.
		d.logger.Warn("submission failed",
			zap.Stringer("tx", tx.ID),
			zap.Error(err),
		)
		return nil
	}
	tx.Attempts++
	tx.LastSubmitted = uint64(d.clock.Now().Unix())
	if err := transactions.Update(d.db, tx); err != nil {
		return err
	}
	transactionsSubmitted.WithLabelValues(d.destination.String()).Inc()
	return nil
}

// advance polls every live transaction and applies its observed state.
func (d *Dispatcher) advance(ctx context.Context) error {
	live, err := transactions.Live(d.db, d.destination)
	if err != nil {
		return err
	}
	for _, tx := range live {
		if err := d.advanceTransaction(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) advanceTransaction(ctx context.Context, tx *types.Transaction) error {
	// A transaction that never got broadcast has no on-chain state to
	// poll; try the broadcast again.
	if tx.Attempts == 0 {
		return d.submit(ctx, tx)
	}
	var observed types.TransactionStatus
	if err := d.withRetry(ctx, func() error {
		var err error
		observed, err = d.adapter.Status(ctx, tx)
		return err
	}); err != nil {
		d.logger.Warn("status poll failed",
			zap.Stringer("tx", tx.ID),
			zap.Error(err),
		)
		return nil
	}

	switch observed {
	case types.TxPendingInclusion, types.TxMempool:
		if tx.Status != observed {
			tx.Status = observed
			if err := transactions.Update(d.db, tx); err != nil {
				return err
			}
		}
		if d.stuck(tx) {
			return d.escalate(ctx, tx)
		}
	case types.TxIncluded:
		if tx.Status != types.TxIncluded {
			tx.Status = types.TxIncluded
			if err := transactions.Update(d.db, tx); err != nil {
				return err
			}
		}
	case types.TxFinalized:
		return d.finalize(ctx, tx)
	case types.TxDropped:
		reason := types.DropDroppedByChain
		if tx.Status == types.TxIncluded {
			reason = types.DropReorged
		}
		return d.requeue(ctx, tx, reason)
	}
	return nil
}

// stuck reports whether the transaction has been waiting for inclusion
// past the escalation age.
func (d *Dispatcher) stuck(tx *types.Transaction) bool {
	age := d.clock.Now().Unix() - int64(tx.LastSubmitted)
	return time.Duration(age)*time.Second >= d.cfg.EscalateAfter
}

// escalate replaces a stuck transaction with a rebuilt one bidding a
// higher fee. The fee sequence is monotone: the replacement bids
// max(oldFee * 1.1, fresh estimate).
func (d *Dispatcher) escalate(ctx context.Context, tx *types.Transaction) error {
	estimate, err := d.adapter.Estimate(ctx, tx.Precursor)
	if err != nil {
		// The precursor stopped simulating, e.g. already delivered by
		// someone else. Leave the transaction to resolve on-chain.
		d.logger.Info("escalation estimate failed",
			zap.Stringer("tx", tx.ID),
			zap.Error(err),
		)
		return nil
	}
	bumped := escalatedFee(&tx.Fee)
	if estimate.Fee.Gt(bumped) {
		bumped = &estimate.Fee
	}

	replacement := &types.Transaction{
		ID:          types.NewTransactionID(),
		Destination: tx.Destination,
		Signer:      tx.Signer,
		Precursor:   tx.Precursor,
		Payloads:    tx.Payloads,
		Fee:         *bumped,
		GasLimit:    max(tx.GasLimit, estimate.GasLimit),
		Status:      types.TxPendingInclusion,
		Attempts:    0,
	}

	tx.Status = types.TxDropped
	tx.Reason = types.DropReplaced
	if err := transactions.Update(d.db, tx); err != nil {
		return err
	}
	// The old transaction is dropped, so its nonce is free again and
	// the scan hands it to the replacement.
	nonceVal, err := d.nonces.AssignNext(ctx, d.signer, replacement.ID)
	if err != nil {
		return err
	}
	replacement.Nonce = nonceVal
	replacement.NonceSet = true
	if err := transactions.Add(d.db, replacement); err != nil {
		return err
	}
	feeEscalations.WithLabelValues(d.destination.String()).Inc()
	d.logger.Info("stuck transaction replaced",
		zap.Stringer("old", tx.ID),
		zap.Stringer("new", replacement.ID),
		zap.Uint64("nonce", nonceVal),
		zap.String("fee", bumped.Dec()),
	)
	return d.submit(ctx, replacement)
}

// finalize settles a finalized transaction: payloads whose success
// criteria held are Delivered, reverted ones respawn as fresh payloads,
// and the signer's finalized nonce watermark advances.
func (d *Dispatcher) finalize(ctx context.Context, tx *types.Transaction) error {
	var reverted []types.PayloadID
	if err := d.withRetry(ctx, func() error {
		var err error
		reverted, err = d.adapter.RevertedPayloads(ctx, tx)
		return err
	}); err != nil {
		return fmt.Errorf("reverted payloads of %s: %w", tx.ID, err)
	}
	revertedSet := make(map[types.PayloadID]struct{}, len(reverted))
	for _, id := range reverted {
		revertedSet[id] = struct{}{}
	}

	if tx.NonceSet {
		if err := d.nonces.MarkFinalized(ctx, d.signer, tx.Nonce); err != nil {
			return err
		}
	}
	tx.Status = types.TxFinalized
	if err := transactions.Update(d.db, tx); err != nil {
		return err
	}
	for _, id := range tx.Payloads {
		payload, err := payloads.Get(d.db, id)
		if err != nil {
			return err
		}
		if _, bad := revertedSet[id]; bad {
			if err := d.retryPayload(payload, types.DropReverted); err != nil {
				return err
			}
			continue
		}
		if err := d.finishPayload(payload, types.PayloadDelivered, types.DropReasonNone); err != nil {
			return err
		}
	}
	d.logger.Info("transaction finalized",
		zap.Stringer("tx", tx.ID),
		zap.Int("payloads", len(tx.Payloads)),
		zap.Int("reverted", len(reverted)),
	)
	return nil
}

// requeue handles a transaction that will never land: its payloads
// respawn for a fresh attempt and its nonce is released.
func (d *Dispatcher) requeue(ctx context.Context, tx *types.Transaction, reason types.DropReason) error {
	tx.Status = types.TxDropped
	tx.Reason = reason
	if err := transactions.Update(d.db, tx); err != nil {
		return err
	}
	if tx.NonceSet {
		if err := d.nonces.Release(ctx, d.signer, tx.Nonce); err != nil {
			return err
		}
	}
	for _, id := range tx.Payloads {
		payload, err := payloads.Get(d.db, id)
		if err != nil {
			return err
		}
		if err := d.retryPayload(payload, reason); err != nil {
			return err
		}
	}
	d.logger.Info("transaction dropped, payloads requeued",
		zap.Stringer("tx", tx.ID),
		zap.Stringer("reason", reason),
		zap.Int("payloads", len(tx.Payloads)),
	)
	return nil
}

// retryPayload closes the payload record as Retry and respawns the same
// work as a fresh ReadyToSubmit payload with a new identity.
func (d *Dispatcher) retryPayload(payload *types.Payload, reason types.DropReason) error {
	if err := d.finishPayload(payload, types.PayloadRetry, reason); err != nil {
		return err
	}
	respawn := &types.Payload{
		ID:              types.NewPayloadID(payload.Destination, payload.Leaf, payload.Attempt+1),
		Destination:     payload.Destination,
		Leaf:            payload.Leaf,
		LeafIndex:       payload.LeafIndex,
		Calldata:        payload.Calldata,
		SuccessCriteria: payload.SuccessCriteria,
		Attempt:         payload.Attempt + 1,
		Status:          types.PayloadReadyToSubmit,
	}
	if err := payloads.Add(d.db, respawn); err != nil && !errors.Is(err, sql.ErrObjectExists) {
		return err
	}
	return nil
}

// finishPayload moves the payload to a terminal state.
func (d *Dispatcher) finishPayload(payload *types.Payload, status types.PayloadStatus, reason types.DropReason) error {
	payload.Status = status
	payload.Reason = reason
	if err := payloads.Update(d.db, payload); err != nil {
		return err
	}
	payloadsFinished.WithLabelValues(d.destination.String(), status.String(), reason.String()).Inc()
	return nil
}

// withRetry runs op under bounded exponential backoff for transient
// adapter failures.
func (d *Dispatcher) withRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.cfg.RetryInterval
	bo.MaxElapsedTime = d.cfg.MaxRetryTime
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

// escalatedFee returns fee * 1.1 rounded down, computed in integers.
func escalatedFee(fee *uint256.Int) *uint256.Int {
	bumped := new(uint256.Int).Mul(fee, uint256.NewInt(11))
	return bumped.Div(bumped, uint256.NewInt(10))
}
