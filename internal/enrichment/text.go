package enrichment

import (
	"io"
	"os"
)

// extractPlainText reads path bounded to maxBytes. Used for .txt/.csv/.tsv
// drops.
func extractPlainText(path string, maxBytes int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	b, err := io.ReadAll(io.LimitReader(f, int64(maxBytes)))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
