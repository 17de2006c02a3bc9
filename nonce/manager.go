// Package nonce manages destination-chain nonces for dispatcher
// signers. Nonces are a shared resource: several destination workers
// may submit with the same signer, and a gap in the assigned sequence
// stalls every transaction behind it. The manager is the only writer of
// the nonce keyspaces.
package nonce

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/sql"
	"github.com/relaymesh/go-relaymesh/sql/nonces"
	"github.com/relaymesh/go-relaymesh/sql/transactions"
)

var (
	// ErrResetBelowFinalized is returned by ResetTo for a target below
	// the finalized watermark. Finalized nonces are burned on-chain and
	// can never be reissued.
	ErrResetBelowFinalized = errors.New("reset target below finalized nonce")
	// ErrResetAboveUpper is returned by ResetTo for a target above the
	// upper watermark.
	ErrResetAboveUpper = errors.New("reset target above upper nonce")
)

// Manager assigns, releases and finalizes nonces per signer address.
// All methods are safe for concurrent use; operations on the same
// signer serialize.
type Manager struct {
	logger *zap.Logger
	db     *sql.Database

	mu    sync.Mutex
	locks map[types.Address]*sync.Mutex
}

// NewManager creates a nonce manager on top of the given database.
func NewManager(db *sql.Database, logger *zap.Logger) *Manager {
	return &Manager{
		logger: logger,
		db:     db,
		locks:  map[types.Address]*sync.Mutex{},
	}
}

// lockFor returns the mutex serializing operations on one signer.
func (m *Manager) lockFor(signer types.Address) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[signer]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[signer] = lock
	}
	return lock
}

// AssignNext assigns the lowest usable nonce of the signer to the
// transaction and returns it. A nonce in [finalized, upper) that is
// untracked, or tracked by a transaction that was since dropped, is
// reused; otherwise upper is minted and advanced. Any previous tracking
// by the same transaction is cleared first, so reassignment after a
// rebuild never leaks the old nonce.
func (m *Manager) AssignNext(ctx context.Context, signer types.Address, id types.TransactionID) (uint64, error) {
	lock := m.lockFor(signer)
	lock.Lock()
	defer lock.Unlock()

	var assigned uint64
	err := m.db.WithTx(ctx, func(dbtx *sql.Tx) error {
		account, err := nonces.GetAccount(dbtx, signer)
		if errors.Is(err, sql.ErrNotFound) {
			account = nonces.Account{Signer: signer}
		} else if err != nil {
			return err
		}
		if err := nonces.ReleaseByTransaction(dbtx, signer, id); err != nil {
			return err
		}
		nonce, reused, err := m.firstFree(dbtx, signer, account)
		if err != nil {
			return err
		}
		if !reused {
			account.Upper = nonce + 1
			if err := nonces.UpsertAccount(dbtx, account); err != nil {
				return err
			}
		}
		if err := nonces.Assign(dbtx, signer, nonce, id); err != nil {
			return err
		}
		assigned = nonce
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("assign nonce for %s: %w", signer, err)
	}
	m.logger.Debug("nonce assigned",
		zap.Stringer("signer", signer),
		zap.Uint64("nonce", assigned),
		zap.Stringer("tx", id),
	)
	return assigned, nil
}

// firstFree scans [finalized, upper) for a reusable nonce. A nonce is
// reusable when nothing tracks it or its tracking transaction is
// dropped. Returns (upper, false, nil) when the window is fully live.
func (m *Manager) firstFree(db sql.Executor, signer types.Address, account nonces.Account) (uint64, bool, error) {
	for nonce := account.Finalized; nonce < account.Upper; nonce++ {
		owner, err := nonces.Owner(db, signer, nonce)
		if errors.Is(err, sql.ErrNotFound) {
			return nonce, true, nil
		} else if err != nil {
			return 0, false, err
		}
		status, err := transactions.Status(db, owner)
		if errors.Is(err, sql.ErrNotFound) {
			return nonce, true, nil
		} else if err != nil {
			return 0, false, err
		}
		if status == types.TxDropped {
			return nonce, true, nil
		}
	}
	return account.Upper, false, nil
}

// Release removes the tracking record of the nonce, making it reusable
// by the next assignment.
func (m *Manager) Release(ctx context.Context, signer types.Address, nonce uint64) error {
	lock := m.lockFor(signer)
	lock.Lock()
	defer lock.Unlock()
	return nonces.Release(m.db, signer, nonce)
}

// MarkFinalized advances the finalized watermark past the given nonce.
// The watermark never regresses; finalization out of order is absorbed.
func (m *Manager) MarkFinalized(ctx context.Context, signer types.Address, nonce uint64) error {
	lock := m.lockFor(signer)
	lock.Lock()
	defer lock.Unlock()

	return m.db.WithTx(ctx, func(dbtx *sql.Tx) error {
		account, err := nonces.GetAccount(dbtx, signer)
		if errors.Is(err, sql.ErrNotFound) {
			account = nonces.Account{Signer: signer}
		} else if err != nil {
			return err
		}
		if nonce+1 <= account.Finalized {
			return nil
		}
		account.Finalized = nonce + 1
		if account.Upper < account.Finalized {
			account.Upper = account.Finalized
		}
		if err := nonces.UpsertAccount(dbtx, account); err != nil {
			return err
		}
		// Tracking below the watermark is dead weight.
		return nonces.ClearRange(dbtx, signer, 0, account.Finalized)
	})
}

// ResetTo lowers the upper watermark to desired, clearing all tracking
// in [desired, upper). Operator repair for a signer whose on-chain
// account nonce diverged from the local record. Transactions holding
// the cleared nonces must already be dropped by the operator.
func (m *Manager) ResetTo(ctx context.Context, signer types.Address, desired uint64) error {
	lock := m.lockFor(signer)
	lock.Lock()
	defer lock.Unlock()

	err := m.db.WithTx(ctx, func(dbtx *sql.Tx) error {
		account, err := nonces.GetAccount(dbtx, signer)
		if err != nil {
			return err
		}
		if desired < account.Finalized {
			return fmt.Errorf("%w: %d < %d", ErrResetBelowFinalized, desired, account.Finalized)
		}
		if desired > account.Upper {
			return fmt.Errorf("%w: %d > %d", ErrResetAboveUpper, desired, account.Upper)
		}
		if err := nonces.ClearRange(dbtx, signer, desired, account.Upper); err != nil {
			return err
		}
		account.Upper = desired
		return nonces.UpsertAccount(dbtx, account)
	})
	if err != nil {
		return fmt.Errorf("reset nonce for %s: %w", signer, err)
	}
	m.logger.Info("nonce upper watermark reset",
		zap.Stringer("signer", signer),
		zap.Uint64("upper", desired),
	)
	return nil
}

// Account returns the current watermark pair of the signer. A signer
// never seen before reports zero watermarks.
func (m *Manager) Account(signer types.Address) (nonces.Account, error) {
	account, err := nonces.GetAccount(m.db, signer)
	if errors.Is(err, sql.ErrNotFound) {
		return nonces.Account{Signer: signer}, nil
	}
	return account, err
}
