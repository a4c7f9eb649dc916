package embeddings

import "context"

// CanonicalEmbedder wraps an Embedder and forces every vector to a fixed
// canonical dimension: shorter vectors are zero-padded, longer ones truncated.
// This keeps the vector store consistent when embedding models are swapped.
type CanonicalEmbedder struct {
	inner     Embedder
	dimension int
}

// Canonical wraps e so that all emitted vectors have exactly dim dimensions.
func Canonical(e Embedder, dim int) *CanonicalEmbedder {
	return &CanonicalEmbedder{inner: e, dimension: dim}
}

func (c *CanonicalEmbedder) Name() string {
	return c.inner.Name()
}

func (c *CanonicalEmbedder) Dimensions() int {
	return c.dimension
}

func (c *CanonicalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := c.inner.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i, v := range vecs {
		vecs[i] = fit(v, c.dimension)
	}
	return vecs, nil
}

func fit(v []float32, dim int) []float32 {
	switch {
	case len(v) == dim:
		return v
	case len(v) > dim:
		return v[:dim]
	default:
		out := make([]float32, dim)
		copy(out, v)
		return out
	}
}
