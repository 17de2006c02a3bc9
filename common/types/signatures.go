package types

import (
	"encoding/hex"

	"github.com/spacemeshos/go-scale"
)

const (
	// ValidatorIDSize is the size of a validator identity in bytes.
	ValidatorIDSize = 32
	// EdSignatureSize is the size of an ed25519 signature in bytes.
	EdSignatureSize = 64
)

// ValidatorID is the public identity of an authorized checkpoint
// signer. It doubles as the ed25519 public key the signature is
// verified against.
type ValidatorID [ValidatorIDSize]byte

// EmptyValidatorID is a canonical empty ValidatorID.
var EmptyValidatorID = ValidatorID{}

// Bytes returns the byte representation of the ID.
func (id ValidatorID) Bytes() []byte { return id[:] }

// String implements fmt.Stringer.
func (id ValidatorID) String() string {
	return hex.EncodeToString(id[:])
}

// ShortString returns a the first 5 characters of the ID, for logging purposes.
func (id ValidatorID) ShortString() string {
	return id.String()[:5]
}

// EncodeScale implements scale codec interface.
func (id *ValidatorID) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, id[:])
}

// DecodeScale implements scale codec interface.
func (id *ValidatorID) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, id[:])
}

// EdSignature is an ed25519 signature.
type EdSignature [EdSignatureSize]byte

// EmptyEdSignature is a canonical empty EdSignature.
var EmptyEdSignature = EdSignature{}

// Bytes returns the signature as a byte slice.
func (s EdSignature) Bytes() []byte { return s[:] }

// String returns a string representation of the signature.
func (s EdSignature) String() string { return hex.EncodeToString(s[:]) }

// EncodeScale implements scale codec interface.
func (s *EdSignature) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, s[:])
}

// DecodeScale implements scale codec interface.
func (s *EdSignature) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, s[:])
}
