package enrichment

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
)

const (
	coverWidth  = 480
	coverHeight = 640
)

// renderDocCover paints a placeholder cover for a PDF: title plus a
// page-count caption burned into a plain canvas. Uses gg's default face
// rather than loading a TTF, since a cover placeholder has no font asset
// to ship.
func renderDocCover(title string, pageCount int) ([]byte, error) {
	dc := gg.NewContext(coverWidth, coverHeight)
	dc.SetRGB(0.16, 0.18, 0.22)
	dc.Clear()

	dc.SetRGB(0.95, 0.95, 0.97)
	dc.DrawRectangle(24, 24, coverWidth-48, coverHeight-48)
	dc.Stroke()

	dc.SetRGB(1, 1, 1)
	if title == "" {
		title = "untitled document"
	}
	dc.DrawStringWrapped(title, coverWidth/2, coverHeight/2-20, 0.5, 0.5, coverWidth-80, 1.4, gg.AlignCenter)

	caption := fmt.Sprintf("%d pages", pageCount)
	if pageCount == 1 {
		caption = "1 page"
	}
	dc.DrawStringAnchored(caption, coverWidth/2, coverHeight-60, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderVideoPoster paints the same style of placeholder for a video item
// when no frame extractor is available. This module never shells out to
// ffmpeg, so the poster is always this placeholder; extractFrame in
// frame.go is the seam a future frame extractor would plug into.
func renderVideoPoster(title string) ([]byte, error) {
	dc := gg.NewContext(coverWidth, coverHeight)
	dc.SetRGB(0.08, 0.08, 0.1)
	dc.Clear()

	dc.SetRGB(0.9, 0.9, 0.9)
	dc.DrawRegularPolygon(3, coverWidth/2, coverHeight/2-40, 60, 0)
	dc.Fill()

	if title == "" {
		title = "untitled video"
	}
	dc.SetRGB(1, 1, 1)
	dc.DrawStringWrapped(title, coverWidth/2, coverHeight/2+60, 0.5, 0.5, coverWidth-80, 1.4, gg.AlignCenter)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
