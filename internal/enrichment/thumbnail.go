package enrichment

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

const (
	thumbWidth  = 480
	thumbHeight = 320
)

// renderThumbnail reads the image at srcPath and produces a bounded,
// cover-fit JPEG preview, roughly 480x320: center-crop to the target aspect
// ratio, then a CatmullRom scale down to size.
func renderThumbnail(srcPath string) ([]byte, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	cropped := coverCrop(src, thumbWidth, thumbHeight)
	dst := image.NewRGBA(image.Rect(0, 0, thumbWidth, thumbHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 82}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// coverCrop crops src to the aspect ratio of (w, h), centered, so the
// subsequent scale step covers the target box without distortion.
func coverCrop(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	targetRatio := float64(w) / float64(h)
	srcRatio := float64(sw) / float64(sh)

	var cropW, cropH int
	if srcRatio > targetRatio {
		cropH = sh
		cropW = int(float64(sh) * targetRatio)
	} else {
		cropW = sw
		cropH = int(float64(sw) / targetRatio)
	}

	x0 := b.Min.X + (sw-cropW)/2
	y0 := b.Min.Y + (sh-cropH)/2
	rect := image.Rect(0, 0, cropW, cropH)
	cropped := image.NewRGBA(rect)
	draw.Draw(cropped, rect, src, image.Point{X: x0, Y: y0}, draw.Src)
	return cropped
}
