// Package quorum locates checkpoints attested by enough validators to
// authorize delivery of a message. Validators publish signed checkpoints
// to attestation stores independently and at their own pace, so the
// verifier searches for the newest index at which a threshold of
// distinct signers agree on one checkpoint value.
package quorum

import (
	"context"
	"errors"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/signing"
	"github.com/relaymesh/go-relaymesh/system"
	"github.com/relaymesh/go-relaymesh/tree"
)

// ErrNoQuorum is returned when no checkpoint covering the message has
// threshold agreement yet. Not terminal; callers poll again later.
var ErrNoQuorum = errors.New("no quorum yet")

// ProofSource answers historical inclusion proofs. Satisfied by
// *tree.Prover.
type ProofSource interface {
	ProveAgainst(index, rootIndex uint32) (tree.Proof, error)
}

type cacheKey struct {
	store int
	index uint32
}

const defaultCacheSize = 1024

// Opt configures a Verifier.
type Opt func(*Verifier)

// WithCacheSize overrides the size of the fetched-checkpoint cache.
func WithCacheSize(size int) Opt {
	return func(v *Verifier) {
		v.cacheSize = size
	}
}

// Verifier searches attestation stores for quorum checkpoints of one
// origin domain and cross-checks them against locally observed roots.
type Verifier struct {
	logger    *zap.Logger
	domain    types.Domain
	stores    []system.AttestationStore
	edVerify  *signing.EdVerifier
	proofs    ProofSource
	cache     *lru.Cache[cacheKey, *types.SignedCheckpoint]
	cacheSize int
}

// NewVerifier creates a quorum verifier over the given attestation
// stores. The proof source must track the same origin domain.
func NewVerifier(
	domain types.Domain,
	stores []system.AttestationStore,
	edVerify *signing.EdVerifier,
	proofs ProofSource,
	logger *zap.Logger,
	opts ...Opt,
) (*Verifier, error) {
	v := &Verifier{
		logger:    logger,
		domain:    domain,
		stores:    stores,
		edVerify:  edVerify,
		proofs:    proofs,
		cacheSize: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	cache, err := lru.New[cacheKey, *types.SignedCheckpoint](v.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create checkpoint cache: %w", err)
	}
	v.cache = cache
	return v, nil
}

// FindQuorum returns a checkpoint at index >= msgIndex signed by at
// least threshold distinct validators from the authorized set, or
// ErrNoQuorum. maxKnownIndex is the highest leaf index the local tree
// has observed; checkpoints beyond it cannot be cross-checked yet and
// are not considered.
//
// The newest candidate index that could possibly have quorum is tried
// first, walking down to msgIndex, so delivery uses the freshest
// checkpoint available.
func (v *Verifier) FindQuorum(
	ctx context.Context,
	msgIndex uint32,
	validators []types.ValidatorID,
	threshold int,
	maxKnownIndex uint32,
) (*types.QuorumCheckpoint, error) {
	if threshold <= 0 || threshold > len(validators) {
		return nil, fmt.Errorf("threshold %d out of range for %d validators", threshold, len(validators))
	}
	authorized := make(map[types.ValidatorID]struct{}, len(validators))
	for _, id := range validators {
		authorized[id] = struct{}{}
	}

	highest, err := v.highestCandidate(ctx, threshold, maxKnownIndex)
	if err != nil {
		return nil, err
	}
	if highest < msgIndex {
		return nil, fmt.Errorf("%w: highest candidate %d below message %d", ErrNoQuorum, highest, msgIndex)
	}

	for index := highest; ; index-- {
		quorum := v.quorumAt(ctx, index, authorized, threshold)
		if quorum != nil {
			if err := v.crossCheck(msgIndex, quorum); err != nil {
				return nil, err
			}
			return quorum, nil
		}
		if index == msgIndex {
			break
		}
	}
	return nil, fmt.Errorf("%w: no index in [%d, %d] has %d signers", ErrNoQuorum, msgIndex, highest, threshold)
}

// highestCandidate returns the newest index a quorum could exist at:
// the threshold'th highest of the stores' latest signed indices,
// clamped to the locally observed tip.
func (v *Verifier) highestCandidate(ctx context.Context, threshold int, maxKnownIndex uint32) (uint32, error) {
	latest := make([]uint32, 0, len(v.stores))
	for i, store := range v.stores {
		index, err := store.LatestIndex(ctx)
		if errors.Is(err, system.ErrNoCheckpoint) {
			continue
		} else if err != nil {
			v.logger.Warn("attestation store unavailable",
				zap.Int("store", i),
				zap.Error(err),
			)
			continue
		}
		latest = append(latest, index)
	}
	if len(latest) < threshold {
		return 0, fmt.Errorf("%w: only %d stores report checkpoints", ErrNoQuorum, len(latest))
	}
	sort.Slice(latest, func(i, j int) bool { return latest[i] > latest[j] })
	candidate := latest[threshold-1]
	if candidate > maxKnownIndex {
		candidate = maxKnownIndex
	}
	return candidate, nil
}

// quorumAt fetches the stores' checkpoints at the index, groups them by
// checkpoint value and returns the first group attested by threshold
// distinct authorized signers, or nil.
func (v *Verifier) quorumAt(
	ctx context.Context,
	index uint32,
	authorized map[types.ValidatorID]struct{},
	threshold int,
) *types.QuorumCheckpoint {
	groups := map[types.Checkpoint]*types.QuorumCheckpoint{}
	signers := map[types.Checkpoint]map[types.ValidatorID]struct{}{}
	for i, store := range v.stores {
		signed, err := v.fetch(ctx, i, store, index)
		if err != nil {
			continue
		}
		if signed.Checkpoint.Index != index || signed.Checkpoint.Domain != v.domain {
			continue
		}
		if _, ok := authorized[signed.Validator]; !ok {
			continue
		}
		if !v.edVerify.Verify(signing.CHECKPOINT, signed.Validator, signed.Checkpoint.SigningBytes(), signed.Signature) {
			v.logger.Warn("invalid checkpoint signature",
				zap.Stringer("validator", signed.Validator),
				zap.Uint32("index", index),
			)
			continue
		}
		group, ok := groups[signed.Checkpoint]
		if !ok {
			group = &types.QuorumCheckpoint{Checkpoint: signed.Checkpoint}
			groups[signed.Checkpoint] = group
			signers[signed.Checkpoint] = map[types.ValidatorID]struct{}{}
		}
		// A validator re-signing through several stores counts once.
		if _, dup := signers[signed.Checkpoint][signed.Validator]; dup {
			continue
		}
		signers[signed.Checkpoint][signed.Validator] = struct{}{}
		group.Signatures = append(group.Signatures, *signed)
		if len(group.Signatures) >= threshold {
			return group
		}
	}
	return nil
}

// fetch returns the store's signed checkpoint at the index, memoized.
// Checkpoints are immutable so a cached value never goes stale.
func (v *Verifier) fetch(ctx context.Context, storeIdx int, store system.AttestationStore, index uint32) (*types.SignedCheckpoint, error) {
	key := cacheKey{store: storeIdx, index: index}
	if signed, ok := v.cache.Get(key); ok {
		return signed, nil
	}
	signed, err := store.Checkpoint(ctx, index)
	if err != nil {
		return nil, err
	}
	v.cache.Add(key, signed)
	return signed, nil
}

// crossCheck recomputes the message's inclusion proof against the
// checkpoint index and compares the resulting root with the attested
// one. A mismatch means the validators attested a tree this relayer
// never observed; the checkpoint is rejected without retry.
func (v *Verifier) crossCheck(msgIndex uint32, quorum *types.QuorumCheckpoint) error {
	proof, err := v.proofs.ProveAgainst(msgIndex, quorum.Checkpoint.Index)
	if err != nil {
		return fmt.Errorf("%w: prove message %d at checkpoint %d: %v",
			ErrNoQuorum, msgIndex, quorum.Checkpoint.Index, err)
	}
	if root := proof.Root(); root != quorum.Checkpoint.Root {
		v.logger.Warn("attested root diverges from local tree",
			zap.Uint32("index", quorum.Checkpoint.Index),
			zap.Stringer("attested", quorum.Checkpoint.Root),
			zap.Stringer("local", root),
		)
		return fmt.Errorf("%w: attested root %s diverges at index %d",
			ErrNoQuorum, quorum.Checkpoint.Root.ShortString(), quorum.Checkpoint.Index)
	}
	return nil
}
