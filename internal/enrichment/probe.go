package enrichment

import (
	"net/http"
	"os"

	"github.com/h2non/filetype"
)

// probeResult is what stage 1 (size and format probe) records.
type probeResult struct {
	SizeBytes int64
	MimeType  string
}

// probeFile sniffs the first 512 bytes of path (magic bytes via filetype,
// falling back to http.DetectContentType) to confirm mime_type independent
// of the extension the file arrived with, the same two-step sniff
// Engine.IngestFile runs at ingest (sniffMime), now applied again on the
// stored bytes themselves.
func probeFile(path string) (probeResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return probeResult{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return probeResult{}, err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := f.Read(head)
	head = head[:n]

	mime := "application/octet-stream"
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		mime = kind.MIME.Value
	} else if n > 0 {
		mime = http.DetectContentType(head)
	}

	return probeResult{SizeBytes: info.Size(), MimeType: mime}, nil
}
