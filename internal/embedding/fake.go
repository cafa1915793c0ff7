package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// Fake is a deterministic, offline-safe Embedder for tests; the binaries
// always use HTTPEmbedder. It hashes the input text
// into a fixed-dimension vector so identical text always yields identical
// (and distinct texts usually yield distinguishable) vectors.
type Fake struct {
	Dim int
}

// NewFake returns a Fake producing dim-dimensional vectors.
func NewFake(dim int) *Fake {
	if dim <= 0 {
		dim = 32
	}
	return &Fake{Dim: dim}
}

func (f *Fake) Embed(ctx context.Context, text string) ([]float32, error) {
	out := make([]float32, f.Dim)
	h := fnv.New64a()
	for i := 0; i < f.Dim; i++ {
		_, _ = h.Write([]byte{byte(i)})
		_, _ = h.Write([]byte(text))
		sum := h.Sum64()
		out[i] = float32(int64(sum%2000)-1000) / 1000.0
	}
	return normalize(out), nil
}

func (f *Fake) CheckReachability(ctx context.Context) error { return nil }

var _ Embedder = (*Fake)(nil)

// cosineFake is only used by this package's own tests to sanity-check
// normalize without importing semanticindex (which would be a layering
// inversion).
func cosineFake(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, x := range a {
		na += float64(x) * float64(x)
	}
	for _, x := range b {
		nb += float64(x) * float64(x)
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
