package node

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/config"
	"github.com/relaymesh/go-relaymesh/quorum"
	"github.com/relaymesh/go-relaymesh/signing"
	"github.com/relaymesh/go-relaymesh/system"
	"github.com/relaymesh/go-relaymesh/system/mocks"
)

const (
	testOrigin      = uint32(1000)
	testDestination = types.Domain(2000)
)

type testEnv struct {
	node    *Node
	signers []*signing.EdSigner
	// attested holds each validator's published checkpoints, served by
	// that validator's attestation store mock.
	attested []map[uint32]types.SignedCheckpoint
}

func newTestEnv(tb testing.TB, validators, threshold int) *testEnv {
	ctrl := gomock.NewController(tb)
	env := &testEnv{}

	cfg := config.DefaultConfig()
	cfg.DataDir = tb.TempDir()
	cfg.OriginDomain = testOrigin
	cfg.Quorum.Threshold = threshold
	cfg.Quorum.Prefix = "test"
	var stores []system.AttestationStore
	for i := 0; i < validators; i++ {
		signer, err := signing.NewEdSigner(signing.WithPrefix([]byte(cfg.Quorum.Prefix)))
		require.NoError(tb, err)
		env.signers = append(env.signers, signer)
		cfg.Quorum.Validators = append(cfg.Quorum.Validators,
			hex.EncodeToString(signer.ValidatorID().Bytes()))

		published := map[uint32]types.SignedCheckpoint{}
		env.attested = append(env.attested, published)
		store := mocks.NewMockAttestationStore(ctrl)
		store.EXPECT().LatestIndex(gomock.Any()).DoAndReturn(
			func(context.Context) (uint32, error) {
				latest, found := uint32(0), false
				for index := range published {
					if !found || index > latest {
						latest, found = index, true
					}
				}
				if !found {
					return 0, system.ErrNoCheckpoint
				}
				return latest, nil
			}).AnyTimes()
		store.EXPECT().Checkpoint(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, index uint32) (*types.SignedCheckpoint, error) {
				signed, ok := published[index]
				if !ok {
					return nil, system.ErrNoCheckpoint
				}
				return &signed, nil
			}).AnyTimes()
		stores = append(stores, store)
	}
	cfg.Destinations = []config.DestinationConfig{{
		Domain: testDestination.Uint32(),
		Signer: "0x0101010101010101010101010101010101010101",
	}}

	adapter := mocks.NewMockChainAdapter(ctrl)
	adapter.EXPECT().MaxBatchSize().Return(4).AnyTimes()

	n, err := New(cfg, Capabilities{
		Indexer: mocks.NewMockIndexer(ctrl),
		Stores:  stores,
		Adapters: map[types.Domain]system.ChainAdapter{
			testDestination: adapter,
		},
	}, zaptest.NewLogger(tb))
	require.NoError(tb, err)
	tb.Cleanup(func() { n.Close() })
	env.node = n
	return env
}

func (env *testEnv) ingest(tb testing.TB, count int) {
	for i := 0; i < count; i++ {
		require.NoError(tb, env.node.Tracker().Ingest(system.Dispatch{
			Index: uint32(i),
			Leaf:  types.CalcHash32([]byte{byte(i)}),
			Block: uint64(100 + i),
		}))
	}
}

// publish attests the tracker's state at the given index with the first
// n validators.
func (env *testEnv) publish(tb testing.TB, index uint32, n int) {
	root, err := env.node.Tracker().RootAt(index)
	require.NoError(tb, err)
	cp := types.Checkpoint{Root: root, Index: index, Domain: types.Domain(testOrigin)}
	for i, signer := range env.signers[:n] {
		env.attested[i][index] = types.SignedCheckpoint{
			Checkpoint: cp,
			Validator:  signer.ValidatorID(),
			Signature:  signer.Sign(signing.CHECKPOINT, cp.SigningBytes()),
		}
	}
}

func TestNewValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := zaptest.NewLogger(t)

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	_, err := New(cfg, Capabilities{}, logger)
	require.ErrorContains(t, err, "no origin indexer")

	signer, err := signing.NewEdSigner()
	require.NoError(t, err)
	cfg.Quorum.Validators = []string{hex.EncodeToString(signer.ValidatorID().Bytes())}
	cfg.Quorum.Threshold = 2
	_, err = New(cfg, Capabilities{Indexer: mocks.NewMockIndexer(ctrl)}, logger)
	require.ErrorContains(t, err, "threshold 2 out of range")

	cfg.Quorum.Threshold = 1
	cfg.Destinations = []config.DestinationConfig{{
		Domain: testDestination.Uint32(),
		Signer: "0x0101010101010101010101010101010101010101",
	}}
	_, err = New(cfg, Capabilities{Indexer: mocks.NewMockIndexer(ctrl)}, logger)
	require.ErrorContains(t, err, "no chain adapter")
}

func TestRelay(t *testing.T) {
	env := newTestEnv(t, 3, 2)
	env.ingest(t, 4)

	// No attestations published yet.
	_, err := env.node.Relay(context.Background(), 1, testDestination, []byte("call"), []byte("check"))
	require.ErrorIs(t, err, quorum.ErrNoQuorum)

	// One signature is below threshold.
	env.publish(t, 3, 1)
	_, err = env.node.Relay(context.Background(), 1, testDestination, []byte("call"), []byte("check"))
	require.ErrorIs(t, err, quorum.ErrNoQuorum)

	env.publish(t, 3, 2)
	auth, err := env.node.Relay(context.Background(), 1, testDestination, []byte("call"), []byte("check"))
	require.NoError(t, err)
	require.Equal(t, uint32(3), auth.Quorum.Checkpoint.Index)
	require.Len(t, auth.Quorum.Signatures, 2)
	require.True(t, auth.Proof.Verify(auth.Quorum.Checkpoint.Root))
	require.Equal(t, uint32(1), auth.Proof.Index)

	// Relaying the same message again is idempotent.
	_, err = env.node.Relay(context.Background(), 1, testDestination, []byte("call"), []byte("check"))
	require.NoError(t, err)
}

func TestAbandon(t *testing.T) {
	env := newTestEnv(t, 1, 1)
	env.ingest(t, 3)

	require.NoError(t, env.node.Abandon(1, testDestination))

	err := env.node.Abandon(5, testDestination)
	require.ErrorContains(t, err, "not observed")
	err = env.node.Abandon(0, types.Domain(9999))
	require.ErrorContains(t, err, "no dispatcher for destination")

	// A message already enqueued for delivery cannot be abandoned.
	env.publish(t, 2, 1)
	_, err = env.node.Relay(context.Background(), 0, testDestination, nil, nil)
	require.NoError(t, err)
	err = env.node.Abandon(0, testDestination)
	require.ErrorContains(t, err, "already enqueued")
}

func TestRelayUnknownDestination(t *testing.T) {
	env := newTestEnv(t, 1, 1)
	env.ingest(t, 1)
	_, err := env.node.Relay(context.Background(), 0, types.Domain(9999), nil, nil)
	require.ErrorContains(t, err, "no dispatcher for destination")
}

func TestRelayUnobservedMessage(t *testing.T) {
	env := newTestEnv(t, 1, 1)
	env.ingest(t, 2)
	_, err := env.node.Relay(context.Background(), 5, testDestination, nil, nil)
	require.ErrorContains(t, err, "not observed")
}
