package checksum

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// Sum returns the hex xxhash digest of raw file content. Upload archive rows
// carry it so resubmissions of identical content can be spotted.
func Sum(content []byte) string {
	digest := xxhash.New()
	digest.Write(content)

	return hex.EncodeToString(digest.Sum(nil))
}

// SumReader hashes a stream without buffering it in memory.
func SumReader(r io.Reader) (string, error) {
	hasher := xxhash.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", fmt.Errorf("failed to copy content to hasher: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
