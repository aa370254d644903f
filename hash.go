package provenance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// hashBlockSize is the read granularity for file digests, so files that
// do not fit in memory still hash fine.
const hashBlockSize = 4096

// SHA256File computes the SHA-256 digest of the file at path and returns
// it as lowercase hex. Returns ErrPathNotFound (wrapped) if path does
// not name an existing regular file.
func SHA256File(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: file %s", ErrPathNotFound, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, hashBlockSize)); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
