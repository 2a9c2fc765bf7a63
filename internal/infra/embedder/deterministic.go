package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Deterministic implements Embedder with a hashed bag-of-tokens vector.
// The same text always produces the same vector, so it needs no network
// access and gives stable results in tests and offline deployments.
type Deterministic struct {
	dimension int
}

// NewDeterministic creates a deterministic embedder producing vectors of
// the given dimension.
func NewDeterministic(dimension int) *Deterministic {
	if dimension <= 0 {
		dimension = 64
	}
	return &Deterministic{dimension: dimension}
}

// Embed hashes each token into a bucket of the output vector and
// normalizes the result to unit length.
func (d *Deterministic) Embed(_ context.Context, text string) ([]float32, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}

	vec := make([]float32, d.dimension)
	for _, token := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		bucket := int(sum % uint64(d.dimension))
		// Use a high bit for the sign so bucket and sign are independent.
		if sum&(1<<63) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	normalize(vec)
	embedderRequestsTotal.WithLabelValues(ProviderDeterministic, "success").Inc()
	return vec, nil
}

// tokenize lowercases the text and splits on anything that is not a
// letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
