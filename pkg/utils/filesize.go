package utils

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSize converts a human-readable size ("500MB", "1.5 GiB", "2048") to
// bytes. Bare numbers are bytes.
func ParseSize(size string) (int64, error) {
	trimmed := strings.TrimSpace(size)
	if trimmed == "" {
		return 0, fmt.Errorf("empty size")
	}
	bytes, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", size, err)
	}
	return int64(bytes), nil
}
