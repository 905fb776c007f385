package b2

import (
	"crypto/sha1" //nolint:gosec // B2 mandates SHA-1 content hashes
	"encoding/hex"
	"fmt"
	"io"
)

// hashReader computes the streaming SHA-1 of everything readable from r and
// returns it as lowercase hex. Constant memory: one copy buffer, no
// whole-range buffering.
func hashReader(r io.Reader) (string, error) {
	h := sha1.New() //nolint:gosec // B2 mandates SHA-1 content hashes
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("b2: hashing content: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashBytes computes the SHA-1 of an in-memory chunk as lowercase hex.
func hashBytes(b []byte) string {
	sum := sha1.Sum(b) //nolint:gosec // B2 mandates SHA-1 content hashes
	return hex.EncodeToString(sum[:])
}
