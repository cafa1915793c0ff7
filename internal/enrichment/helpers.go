package enrichment

import (
	"bytes"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
)

// logFields is the logger handle stage functions receive, already scoped
// to the item being processed via vaultlog.Log.WithField("item_id", ...).
type logFields = *logrus.Entry

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func truncate(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	return s[:maxBytes]
}

func newByteReader(b []byte) io.Reader { return bytes.NewReader(b) }
