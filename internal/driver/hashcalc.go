package driver

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a SHA-256 value (compatible with source.File.Hash).
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// combineDigest: H(content || salt1 || salt2 ...). Порядок salts фиксирован вызывающим.
func combineDigest(content Digest, salts ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range salts {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// stringDigest hashes s; used for version strings and option sets.
func stringDigest(s string) Digest {
	return sha256.Sum256([]byte(s))
}
