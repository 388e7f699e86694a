package trace

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// #region embedding-digest

// EmbeddingDigest returns the first 16 hex chars of the SHA-256 over the
// little-endian float32 bytes of an embedding. Enough to verify which vector
// a turn was scored against without storing the vector itself.
func EmbeddingDigest(vec []float32) string {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])[:16]
}

// #endregion embedding-digest
