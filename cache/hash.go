package cache

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// hashBufferSize bounds the per-read buffer so hashing memory use is
// independent of file size.
const hashBufferSize = 64 * 1024

// HashFile computes the content hash of a file, streaming its bytes in
// bounded reads. The hash is xxHash64: change detection needs speed, not
// cryptographic strength.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file for hashing: %w", err)
	}
	defer f.Close()

	digest := xxhash.New()
	buf := make([]byte, hashBufferSize)
	if _, err := io.CopyBuffer(digest, f, buf); err != nil {
		return "", fmt.Errorf("hashing file: %w", err)
	}
	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

// HashStrings computes a combined hash over a list of strings. Used to
// fingerprint a discovered file set.
func HashStrings(items []string) string {
	digest := xxhash.New()
	for _, item := range items {
		digest.WriteString(item)
		digest.WriteString("\n")
	}
	return fmt.Sprintf("%016x", digest.Sum64())
}
