package enrichment

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfInfo is what the document stage extracts: page count and plain text,
// plus the trailer's Info dictionary for author/title/creation date.
type pdfInfo struct {
	PageCount int
	Title     string
	Author    string
	Created   string
	Text      string
}

func extractPDF(path string, maxBytes int) (pdfInfo, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return pdfInfo{}, err
	}
	defer f.Close()

	info := pdfInfo{PageCount: r.NumPage()}

	if trailer := r.Trailer(); !trailer.IsNull() {
		infoDict := trailer.Key("Info")
		if !infoDict.IsNull() {
			info.Title = infoDict.Key("Title").Text()
			info.Author = infoDict.Key("Author").Text()
			info.Created = infoDict.Key("CreationDate").Text()
		}
	}

	plain, err := r.GetPlainText()
	if err == nil {
		if maxBytes <= 0 {
			maxBytes = 5 * 1024 * 1024
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(io.LimitReader(plain, int64(maxBytes)))
		info.Text = strings.TrimSpace(buf.String())
	}

	return info, nil
}
