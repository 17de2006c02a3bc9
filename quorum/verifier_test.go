package quorum

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/signing"
	"github.com/relaymesh/go-relaymesh/system"
	"github.com/relaymesh/go-relaymesh/system/mocks"
	"github.com/relaymesh/go-relaymesh/tree"
)

const testDomain = types.Domain(1000)

type testEnv struct {
	tb        testing.TB
	ctrl      *gomock.Controller
	prover    *tree.Prover
	signers   []*signing.EdSigner
	stores    []system.AttestationStore
	published []map[uint32]*types.SignedCheckpoint
}

func newTestEnv(tb testing.TB, leaves, validators int) *testEnv {
	env := &testEnv{
		tb:     tb,
		ctrl:   gomock.NewController(tb),
		prover: tree.NewProver(),
	}
	for i := 0; i < leaves; i++ {
		require.NoError(tb, env.prover.Ingest(types.CalcHash32([]byte{byte(i)})))
	}
	for i := 0; i < validators; i++ {
		signer, err := signing.NewEdSigner()
		require.NoError(tb, err)
		env.signers = append(env.signers, signer)
		env.published = append(env.published, map[uint32]*types.SignedCheckpoint{})
		env.stores = append(env.stores, env.mockStore(i))
	}
	return env
}

// mockStore serves whatever checkpoints were published for validator i.
func (env *testEnv) mockStore(i int) system.AttestationStore {
	store := mocks.NewMockAttestationStore(env.ctrl)
	store.EXPECT().LatestIndex(gomock.Any()).DoAndReturn(
		func(context.Context) (uint32, error) {
			var latest uint32
			found := false
			for index := range env.published[i] {
				if !found || index > latest {
					latest = index
					found = true
				}
			}
			if !found {
				return 0, system.ErrNoCheckpoint
			}
			return latest, nil
		}).AnyTimes()
	store.EXPECT().Checkpoint(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, index uint32) (*types.SignedCheckpoint, error) {
			signed, ok := env.published[i][index]
			if !ok {
				return nil, system.ErrNoCheckpoint
			}
			return signed, nil
		}).AnyTimes()
	return store
}

// publish signs the prover's true root at index with validator i.
func (env *testEnv) publish(i int, index uint32) {
	root, err := env.prover.RootAt(index)
	require.NoError(env.tb, err)
	env.publishRoot(i, index, root)
}

func (env *testEnv) publishRoot(i int, index uint32, root types.Hash32) {
	checkpoint := types.Checkpoint{Root: root, Index: index, Domain: testDomain}
	env.published[i][index] = &types.SignedCheckpoint{
		Checkpoint: checkpoint,
		Validator:  env.signers[i].ValidatorID(),
		Signature:  env.signers[i].Sign(signing.CHECKPOINT, checkpoint.SigningBytes()),
	}
}

func (env *testEnv) validators() []types.ValidatorID {
	ids := make([]types.ValidatorID, len(env.signers))
	for i, signer := range env.signers {
		ids[i] = signer.ValidatorID()
	}
	return ids
}

func (env *testEnv) verifier(opts ...Opt) *Verifier {
	edVerify, err := signing.NewEdVerifier()
	require.NoError(env.tb, err)
	v, err := NewVerifier(testDomain, env.stores, edVerify, env.prover, zaptest.NewLogger(env.tb), opts...)
	require.NoError(env.tb, err)
	return v
}

func (env *testEnv) maxKnown() uint32 {
	return uint32(env.prover.Count() - 1)
}

func TestFindQuorum(t *testing.T) {
	env := newTestEnv(t, 8, 3)
	for i := 0; i < 3; i++ {
		env.publish(i, 6)
	}

	quorum, err := env.verifier().FindQuorum(context.Background(), 2, env.validators(), 2, env.maxKnown())
	require.NoError(t, err)
	require.Equal(t, uint32(6), quorum.Checkpoint.Index)
	require.Len(t, quorum.Signatures, 2)

	root, err := env.prover.RootAt(6)
	require.NoError(t, err)
	require.Equal(t, root, quorum.Checkpoint.Root)
}

func TestFindQuorumBelowThreshold(t *testing.T) {
	env := newTestEnv(t, 8, 3)
	env.publish(0, 6)

	_, err := env.verifier().FindQuorum(context.Background(), 2, env.validators(), 2, env.maxKnown())
	require.ErrorIs(t, err, ErrNoQuorum)
}

func TestFindQuorumDuplicateSignerCountsOnce(t *testing.T) {
	env := newTestEnv(t, 8, 2)
	// Both stores serve signatures from the same validator.
	env.publish(0, 6)
	env.published[1][6] = env.published[0][6]

	_, err := env.verifier().FindQuorum(context.Background(), 2, env.validators(), 2, env.maxKnown())
	require.ErrorIs(t, err, ErrNoQuorum)
}

func TestFindQuorumScansDown(t *testing.T) {
	env := newTestEnv(t, 8, 3)
	// Agreement only exists at index 3; one validator has raced ahead.
	for i := 0; i < 3; i++ {
		env.publish(i, 3)
	}
	env.publish(0, 6)
	env.publish(1, 5)

	quorum, err := env.verifier().FindQuorum(context.Background(), 1, env.validators(), 2, env.maxKnown())
	require.NoError(t, err)
	require.Equal(t, uint32(3), quorum.Checkpoint.Index)
}

func TestFindQuorumRejectsForeignRoot(t *testing.T) {
	env := newTestEnv(t, 8, 2)
	// All validators attest a root this relayer never computed.
	foreign := types.CalcHash32([]byte("foreign tree"))
	env.publishRoot(0, 6, foreign)
	env.publishRoot(1, 6, foreign)

	_, err := env.verifier().FindQuorum(context.Background(), 2, env.validators(), 2, env.maxKnown())
	require.ErrorIs(t, err, ErrNoQuorum)
}

func TestFindQuorumRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t, 8, 2)
	env.publish(0, 6)
	env.publish(1, 6)
	env.published[1][6].Signature[0] ^= 0xff

	_, err := env.verifier().FindQuorum(context.Background(), 2, env.validators(), 2, env.maxKnown())
	require.ErrorIs(t, err, ErrNoQuorum)
}

func TestFindQuorumIgnoresUnauthorizedSigner(t *testing.T) {
	env := newTestEnv(t, 8, 3)
	for i := 0; i < 3; i++ {
		env.publish(i, 6)
	}
	// Only two of the three signers are in the authorized set.
	authorized := env.validators()[:2]

	quorum, err := env.verifier().FindQuorum(context.Background(), 2, authorized, 2, env.maxKnown())
	require.NoError(t, err)
	for _, signed := range quorum.Signatures {
		require.Contains(t, authorized, signed.Validator)
	}
}

func TestFindQuorumClampsToKnownTip(t *testing.T) {
	env := newTestEnv(t, 8, 2)
	// Validators attest index 5; the local tree has seen all 8 leaves
	// but the caller only vouches for the first 4.
	env.publish(0, 5)
	env.publish(1, 5)
	env.publish(0, 3)
	env.publish(1, 3)

	quorum, err := env.verifier().FindQuorum(context.Background(), 1, env.validators(), 2, 3)
	require.NoError(t, err)
	require.Equal(t, uint32(3), quorum.Checkpoint.Index)
}

func TestFindQuorumCandidateBelowMessage(t *testing.T) {
	env := newTestEnv(t, 8, 2)
	env.publish(0, 3)
	env.publish(1, 3)

	_, err := env.verifier().FindQuorum(context.Background(), 5, env.validators(), 2, env.maxKnown())
	require.ErrorIs(t, err, ErrNoQuorum)
}

func TestFindQuorumThresholdValidation(t *testing.T) {
	env := newTestEnv(t, 4, 2)
	_, err := env.verifier().FindQuorum(context.Background(), 0, env.validators(), 0, env.maxKnown())
	require.Error(t, err)
	_, err = env.verifier().FindQuorum(context.Background(), 0, env.validators(), 3, env.maxKnown())
	require.Error(t, err)
}
