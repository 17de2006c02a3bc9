package types

import (
	"encoding/binary"
	"fmt"
)

// Checkpoint is a claim that the message tree of Domain had root Root
// when it held Index+1 leaves. It is immutable and content-addressed by
// its three fields.
type Checkpoint struct {
	Root   Hash32
	Index  uint32
	Domain Domain
}

// SigningBytes returns the canonical byte representation validators
// sign. The domain and index are committed big-endian so the digest is
// stable across architectures.
func (c *Checkpoint) SigningBytes() []byte {
	buf := make([]byte, 0, Hash32Length+8)
	buf = binary.BigEndian.AppendUint32(buf, c.Domain.Uint32())
	buf = append(buf, c.Root.Bytes()...)
	buf = binary.BigEndian.AppendUint32(buf, c.Index)
	return buf
}

// String implements fmt.Stringer.
func (c Checkpoint) String() string {
	return fmt.Sprintf("checkpoint(domain=%s index=%d root=%s)", c.Domain, c.Index, c.Root.ShortString())
}

// SignedCheckpoint is a Checkpoint attested by a single validator.
// Many SignedCheckpoints over the same Checkpoint aggregate into a
// QuorumCheckpoint.
type SignedCheckpoint struct {
	Checkpoint Checkpoint
	Validator  ValidatorID
	Signature  EdSignature
}

// QuorumCheckpoint is a checkpoint carrying signatures from at least
// threshold distinct authorized validators.
type QuorumCheckpoint struct {
	Checkpoint Checkpoint
	Signatures []SignedCheckpoint
}

// Validators returns the distinct validator identities that attested
// the checkpoint.
func (q *QuorumCheckpoint) Validators() []ValidatorID {
	seen := make(map[ValidatorID]struct{}, len(q.Signatures))
	ids := make([]ValidatorID, 0, len(q.Signatures))
	for _, sc := range q.Signatures {
		if _, ok := seen[sc.Validator]; ok {
			continue
		}
		seen[sc.Validator] = struct{}{}
		ids = append(ids, sc.Validator)
	}
	return ids
}
