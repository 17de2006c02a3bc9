package signing

import "github.com/oasisprotocol/curve25519-voi/primitives/ed25519"

const (
	// PrivateKeySize is the size of an ed25519 private key in bytes.
	PrivateKeySize = ed25519.PrivateKeySize
	// PublicKeySize is the size of an ed25519 public key in bytes.
	PublicKeySize = ed25519.PublicKeySize
)

// PrivateKey is an alias to ed25519.PrivateKey.
type PrivateKey = ed25519.PrivateKey

// PublicKey is an alias to ed25519.PublicKey.
type PublicKey = ed25519.PublicKey
