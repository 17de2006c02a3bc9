package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/nonce"
	"github.com/relaymesh/go-relaymesh/sql"
	"github.com/relaymesh/go-relaymesh/sql/nonces"
	"github.com/relaymesh/go-relaymesh/sql/payloads"
	"github.com/relaymesh/go-relaymesh/sql/transactions"
	"github.com/relaymesh/go-relaymesh/system"
	"github.com/relaymesh/go-relaymesh/system/mocks"
)

const testDestination = types.Domain(2000)

var testSigner = types.BytesToAddress([]byte("dispatcher-signer"))

type testEnv struct {
	tb      testing.TB
	db      *sql.Database
	adapter *mocks.MockChainAdapter
	clock   *clockwork.FakeClock
	nonces  *nonce.Manager
	d       *Dispatcher
}

func newTestEnv(tb testing.TB, batchSize int) *testEnv {
	ctrl := gomock.NewController(tb)
	env := &testEnv{
		tb:      tb,
		db:      sql.InMemory(),
		adapter: mocks.NewMockChainAdapter(ctrl),
		clock:   clockwork.NewFakeClock(),
	}
	tb.Cleanup(func() { env.db.Close() })
	env.adapter.EXPECT().MaxBatchSize().Return(batchSize).AnyTimes()
	logger := zaptest.NewLogger(tb)
	env.nonces = nonce.NewManager(env.db, logger)
	env.d = New(env.db, testDestination, testSigner, env.adapter, env.nonces, logger,
		WithClock(env.clock),
		WithConfig(Config{
			Interval:      time.Second,
			EscalateAfter: 10 * time.Second,
			RetryInterval: time.Millisecond,
			MaxRetryTime:  10 * time.Millisecond,
		}),
	)
	return env
}

func (env *testEnv) payload(i int) *types.Payload {
	leaf := types.CalcHash32([]byte{byte(i)})
	return &types.Payload{
		ID:              types.NewPayloadID(testDestination, leaf, 0),
		Destination:     testDestination,
		Leaf:            leaf,
		LeafIndex:       uint32(i),
		Calldata:        []byte{0xca, byte(i)},
		SuccessCriteria: []byte{0x5c, byte(i)},
		Status:          types.PayloadReadyToSubmit,
	}
}

func (env *testEnv) expectBuild() {
	env.adapter.EXPECT().BuildPrecursor(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, batch []*types.Payload) ([]byte, error) {
			out := []byte{byte(len(batch))}
			for _, p := range batch {
				out = append(out, p.Calldata...)
			}
			return out, nil
		}).AnyTimes()
}

func (env *testEnv) expectEstimate(fee uint64) {
	env.adapter.EXPECT().Estimate(gomock.Any(), gomock.Any()).Return(
		system.GasEstimate{GasLimit: 21000, Fee: *uint256.NewInt(fee)}, nil).AnyTimes()
}

func (env *testEnv) liveTxs() []*types.Transaction {
	txs, err := transactions.Live(env.db, testDestination)
	require.NoError(env.tb, err)
	return txs
}

func TestSubmitBatches(t *testing.T) {
	env := newTestEnv(t, 2)
	env.expectBuild()
	env.expectEstimate(100)
	env.adapter.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	ps := []*types.Payload{env.payload(0), env.payload(1), env.payload(2)}
	for _, p := range ps {
		require.NoError(t, env.d.Enqueue(p))
	}
	require.NoError(t, env.d.Cycle(context.Background()))

	txs := env.liveTxs()
	require.Len(t, txs, 2)
	require.Len(t, txs[0].Payloads, 2)
	require.Len(t, txs[1].Payloads, 1)
	seen := map[uint64]bool{}
	for _, tx := range txs {
		require.True(t, tx.NonceSet)
		require.Equal(t, types.TxPendingInclusion, tx.Status)
		require.Equal(t, uint32(1), tx.Attempts)
		seen[tx.Nonce] = true
	}
	require.True(t, seen[0] && seen[1], "nonces must be 0 and 1")

	for _, p := range ps {
		stored, err := payloads.Get(env.db, p.ID)
		require.NoError(t, err)
		require.Equal(t, types.PayloadInTransaction, stored.Status)
	}
}

func TestEnqueueIsIdempotent(t *testing.T) {
	env := newTestEnv(t, 1)
	p := env.payload(0)
	require.NoError(t, env.d.Enqueue(p))
	require.NoError(t, env.d.Enqueue(p))
	ready, err := payloads.ByStatus(env.db, testDestination, types.PayloadReadyToSubmit)
	require.NoError(t, err)
	require.Len(t, ready, 1)
}

func TestFailedSimulationDropsPayload(t *testing.T) {
	env := newTestEnv(t, 1)
	env.expectBuild()
	env.adapter.EXPECT().Estimate(gomock.Any(), gomock.Any()).Return(
		system.GasEstimate{}, errors.New("execution reverted"))

	p := env.payload(0)
	require.NoError(t, env.d.Enqueue(p))
	require.NoError(t, env.d.Cycle(context.Background()))

	stored, err := payloads.Get(env.db, p.ID)
	require.NoError(t, err)
	require.Equal(t, types.PayloadDropped, stored.Status)
	require.Equal(t, types.DropFailedSimulation, stored.Reason)
	require.Empty(t, env.liveTxs(), "a failing payload must never be submitted")
}

func TestUnbatchableSplitsIntoSingles(t *testing.T) {
	env := newTestEnv(t, 2)
	good := env.payload(0)
	bad := env.payload(1)

	env.expectBuild()
	env.adapter.EXPECT().Estimate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, precursor []byte) (system.GasEstimate, error) {
			if precursor[0] > 1 {
				return system.GasEstimate{}, errors.New("batch too big for target")
			}
			if precursor[1] == bad.Calldata[0] && precursor[2] == bad.Calldata[1] {
				return system.GasEstimate{}, errors.New("execution reverted")
			}
			return system.GasEstimate{GasLimit: 21000, Fee: *uint256.NewInt(100)}, nil
		}).AnyTimes()
	env.adapter.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, env.d.Enqueue(good))
	require.NoError(t, env.d.Enqueue(bad))
	require.NoError(t, env.d.Cycle(context.Background()))

	storedGood, err := payloads.Get(env.db, good.ID)
	require.NoError(t, err)
	require.Equal(t, types.PayloadInTransaction, storedGood.Status)
	storedBad, err := payloads.Get(env.db, bad.ID)
	require.NoError(t, err)
	require.Equal(t, types.PayloadDropped, storedBad.Status)
}

func TestDeliveryLifecycle(t *testing.T) {
	env := newTestEnv(t, 1)
	env.expectBuild()
	env.expectEstimate(100)
	env.adapter.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil)

	p := env.payload(0)
	require.NoError(t, env.d.Enqueue(p))
	require.NoError(t, env.d.Cycle(context.Background()))

	for _, status := range []types.TransactionStatus{types.TxMempool, types.TxIncluded} {
		env.adapter.EXPECT().Status(gomock.Any(), gomock.Any()).Return(status, nil)
		require.NoError(t, env.d.Cycle(context.Background()))
		require.Equal(t, status, env.liveTxs()[0].Status)
	}

	env.adapter.EXPECT().Status(gomock.Any(), gomock.Any()).Return(types.TxFinalized, nil)
	env.adapter.EXPECT().RevertedPayloads(gomock.Any(), gomock.Any()).Return(nil, nil)
	require.NoError(t, env.d.Cycle(context.Background()))

	require.Empty(t, env.liveTxs())
	stored, err := payloads.Get(env.db, p.ID)
	require.NoError(t, err)
	require.Equal(t, types.PayloadDelivered, stored.Status)

	account, err := env.nonces.Account(testSigner)
	require.NoError(t, err)
	require.Equal(t, uint64(1), account.Finalized)
}

func TestRevertedPayloadRespawns(t *testing.T) {
	env := newTestEnv(t, 1)
	env.expectBuild()
	env.expectEstimate(100)
	env.adapter.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	p := env.payload(0)
	require.NoError(t, env.d.Enqueue(p))
	require.NoError(t, env.d.Cycle(context.Background()))

	env.adapter.EXPECT().Status(gomock.Any(), gomock.Any()).Return(types.TxFinalized, nil)
	env.adapter.EXPECT().RevertedPayloads(gomock.Any(), gomock.Any()).Return([]types.PayloadID{p.ID}, nil)
	require.NoError(t, env.d.Cycle(context.Background()))

	stored, err := payloads.Get(env.db, p.ID)
	require.NoError(t, err)
	require.Equal(t, types.PayloadRetry, stored.Status)
	require.Equal(t, types.DropReverted, stored.Reason)

	respawn, err := payloads.Get(env.db, types.NewPayloadID(testDestination, p.Leaf, 1))
	require.NoError(t, err)
	require.Equal(t, types.PayloadReadyToSubmit, respawn.Status)
	require.Equal(t, uint32(1), respawn.Attempt)
	require.Equal(t, p.Leaf, respawn.Leaf)
}

func TestEscalationBumpsFee(t *testing.T) {
	env := newTestEnv(t, 1)
	env.expectBuild()
	env.expectEstimate(100)
	env.adapter.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	p := env.payload(0)
	require.NoError(t, env.d.Enqueue(p))
	require.NoError(t, env.d.Cycle(context.Background()))
	first := env.liveTxs()[0]

	env.clock.Advance(11 * time.Second)
	env.adapter.EXPECT().Status(gomock.Any(), gomock.Any()).Return(types.TxMempool, nil)
	require.NoError(t, env.d.Cycle(context.Background()))

	old, err := transactions.Get(env.db, first.ID)
	require.NoError(t, err)
	require.Equal(t, types.TxDropped, old.Status)
	require.Equal(t, types.DropReplaced, old.Reason)

	txs := env.liveTxs()
	require.Len(t, txs, 1)
	replacement := txs[0]
	require.NotEqual(t, first.ID, replacement.ID)
	// Fresh estimate still says 100, so the bump path wins: 100 * 1.1.
	require.Equal(t, uint64(110), replacement.Fee.Uint64())
	require.Equal(t, first.Nonce, replacement.Nonce, "replacement must reuse the freed nonce")
	require.Equal(t, first.Payloads, replacement.Payloads)
}

func TestEscalationTakesHigherEstimate(t *testing.T) {
	env := newTestEnv(t, 1)
	env.expectBuild()
	env.adapter.EXPECT().Estimate(gomock.Any(), gomock.Any()).Return(
		system.GasEstimate{GasLimit: 21000, Fee: *uint256.NewInt(100)}, nil)
	env.adapter.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	p := env.payload(0)
	require.NoError(t, env.d.Enqueue(p))
	require.NoError(t, env.d.Cycle(context.Background()))

	// The market moved: the fresh estimate exceeds the 10% bump.
	env.adapter.EXPECT().Estimate(gomock.Any(), gomock.Any()).Return(
		system.GasEstimate{GasLimit: 21000, Fee: *uint256.NewInt(500)}, nil)
	env.clock.Advance(11 * time.Second)
	env.adapter.EXPECT().Status(gomock.Any(), gomock.Any()).Return(types.TxMempool, nil)
	require.NoError(t, env.d.Cycle(context.Background()))

	require.Equal(t, uint64(500), env.liveTxs()[0].Fee.Uint64())
}

func TestReorgRequeuesPayloads(t *testing.T) {
	env := newTestEnv(t, 1)
	env.expectBuild()
	env.expectEstimate(100)
	env.adapter.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	p := env.payload(0)
	require.NoError(t, env.d.Enqueue(p))
	require.NoError(t, env.d.Cycle(context.Background()))
	tx := env.liveTxs()[0]

	env.adapter.EXPECT().Status(gomock.Any(), gomock.Any()).Return(types.TxIncluded, nil)
	require.NoError(t, env.d.Cycle(context.Background()))

	// Inclusion was rolled back by a reorg: the payload respawns and is
	// resubmitted in the same cycle on the freed nonce.
	env.adapter.EXPECT().Status(gomock.Any(), gomock.Any()).Return(types.TxDropped, nil)
	require.NoError(t, env.d.Cycle(context.Background()))

	dropped, err := transactions.Get(env.db, tx.ID)
	require.NoError(t, err)
	require.Equal(t, types.TxDropped, dropped.Status)
	require.Equal(t, types.DropReorged, dropped.Reason)

	retried, err := payloads.Get(env.db, p.ID)
	require.NoError(t, err)
	require.Equal(t, types.PayloadRetry, retried.Status)
	require.Equal(t, types.DropReorged, retried.Reason)

	respawnID := types.NewPayloadID(testDestination, p.Leaf, 1)
	respawn, err := payloads.Get(env.db, respawnID)
	require.NoError(t, err)
	require.Equal(t, types.PayloadInTransaction, respawn.Status)

	txs := env.liveTxs()
	require.Len(t, txs, 1)
	require.NotEqual(t, tx.ID, txs[0].ID)
	require.Equal(t, tx.Nonce, txs[0].Nonce, "the released nonce must be reused")
	owner, err := nonces.Owner(env.db, testSigner, tx.Nonce)
	require.NoError(t, err)
	require.Equal(t, txs[0].ID, owner)
}

func TestEscalatedFee(t *testing.T) {
	for _, tc := range []struct {
		in, want uint64
	}{
		{0, 0},
		{1, 1},
		{10, 11},
		{100, 110},
		{999, 1098},
	} {
		got := escalatedFee(uint256.NewInt(tc.in))
		require.Equal(t, tc.want, got.Uint64())
	}
}
