// Package hash provides the hash function used to commit messages into
// the accumulator and to digest checkpoints before signing.
package hash

import "github.com/minio/sha256-simd"

// Size is an alias to minio sha256.Size (32 bytes).
const Size = sha256.Size

var (
	// New is an alias to minio sha256.New.
	New = sha256.New
	// Sum is an alias to minio sha256.Sum256.
	Sum = sha256.Sum256
)

// Concat hashes the concatenation of the given byte slices.
func Concat(chunks ...[]byte) [Size]byte {
	h := New()
	for _, chunk := range chunks {
		h.Write(chunk)
	}
	var sum [Size]byte
	h.Sum(sum[:0])
	return sum
}
