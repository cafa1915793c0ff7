package enrichment

import "context"

// FrameExtractor captures a single frame from a video blob near t. It is
// optional, gated on whether the host platform exposes a frame extractor;
// this module ships only noFrameExtractor, so video items always fall back
// to the placeholder poster in cover.go. A real implementation (e.g.
// shelling out to ffmpeg) would satisfy this interface and be wired in at
// Pipeline construction.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoPath string, at float64) ([]byte, error)
}

type noFrameExtractor struct{}

func (noFrameExtractor) ExtractFrame(ctx context.Context, videoPath string, at float64) ([]byte, error) {
	return nil, errNoFrameExtractor
}
