package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint computes the xxhash of a file's content. Used to tell exact
// copies of dependency manifests apart from same-name different-content ones.
func Fingerprint(path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, file); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// FingerprintQuick hashes only the first and last chunk of a file. Faster
// for large files and good enough for duplicate detection.
func FingerprintQuick(path string, chunkSize int64) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}

	h := xxhash.New()

	// Small files are hashed whole.
	if info.Size() <= chunkSize*2 {
		if _, err := io.Copy(h, file); err != nil {
			return 0, err
		}
		return h.Sum64(), nil
	}

	chunk := make([]byte, chunkSize)
	if _, err := io.ReadFull(file, chunk); err != nil {
		return 0, err
	}
	h.Write(chunk)

	if _, err := file.Seek(-chunkSize, io.SeekEnd); err != nil {
		return 0, err
	}
	if _, err := io.ReadFull(file, chunk); err != nil {
		return 0, err
	}
	h.Write(chunk)

	return h.Sum64(), nil
}

// FingerprintString renders a fingerprint in the short hex form shown in
// reports
func FingerprintString(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
