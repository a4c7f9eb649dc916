// Package classifier maps a natural-language question to one of the closed
// set of intents. Semantic centroids are tried first, then a lexical keyword
// fallback; a literal-term override keeps canonical statistical queries on
// their dedicated handlers.
package classifier

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/embeddings"
)

// semanticAcceptThreshold is the minimum centroid similarity for the
// semantic strategy to win.
const semanticAcceptThreshold = 0.7

// Result is one classification outcome.
type Result struct {
	Intent     agent.Intent
	Confidence float64
	Method     string // semantic, lexical or override
}

// Classifier holds the pre-computed intent centroids. When the embedder is
// unavailable it degrades to lexical-only classification.
type Classifier struct {
	embedder  embeddings.Embedder
	centroids map[agent.Intent][]float32
	logger    *slog.Logger
}

// New builds a classifier, embedding every intent's exemplar phrases once and
// averaging them into centroids. Embedding failures are logged and leave the
// classifier in lexical-only mode rather than failing startup.
func New(ctx context.Context, embedder embeddings.Embedder, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classifier{embedder: embedder, logger: logger}
	if embedder == nil {
		return c
	}

	centroids := make(map[agent.Intent][]float32, len(exemplars))
	for intent, phrases := range exemplars {
		vecs, err := embedder.Embed(ctx, phrases)
		if err != nil || len(vecs) == 0 {
			c.logger.Warn("intent centroid embedding failed, lexical-only classification",
				"intent", string(intent), "error", err)
			return c
		}
		centroids[intent] = meanVector(vecs)
	}
	c.centroids = centroids
	return c
}

// Classify returns the intent for a query along with the confidence and the
// strategy that produced it.
func (c *Classifier) Classify(ctx context.Context, query string) Result {
	tokens := tokenize(query)

	// Literal statistical terms always win.
	for _, tok := range tokens {
		if intent, ok := overrideTerms[tok]; ok {
			return Result{Intent: intent, Confidence: 1, Method: "override"}
		}
	}

	if sem, ok := c.semantic(ctx, query); ok {
		return sem
	}
	return c.lexical(tokens)
}

func (c *Classifier) semantic(ctx context.Context, query string) (Result, bool) {
	if len(c.centroids) == 0 {
		return Result{}, false
	}
	vec, err := embeddings.EmbedOne(ctx, c.embedder, query)
	if err != nil || len(vec) == 0 {
		c.logger.Warn("query embedding failed, falling back to lexical", "error", err)
		return Result{}, false
	}

	var (
		best    agent.Intent
		bestSim = -1.0
	)
	for intent, centroid := range c.centroids {
		if sim := cosine(vec, centroid); sim > bestSim {
			best, bestSim = intent, sim
		}
	}
	if bestSim < semanticAcceptThreshold {
		return Result{}, false
	}
	return Result{Intent: best, Confidence: bestSim, Method: "semantic"}, true
}

func (c *Classifier) lexical(tokens []string) Result {
	present := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		present[t] = true
	}

	scores := make(map[agent.Intent]int)
	for intent, words := range keywords {
		for _, w := range words {
			if present[w] {
				scores[intent]++
			}
		}
	}

	best := agent.IntentUnknown
	bestScore := 0
	for _, intent := range lexicalPriority {
		if s := scores[intent]; s > bestScore {
			best, bestScore = intent, s
		}
	}
	if bestScore == 0 {
		return Result{Intent: agent.IntentUnknown, Confidence: 0, Method: "lexical"}
	}

	confidence := 0.5 + 0.1*float64(bestScore)
	if confidence > 0.9 {
		confidence = 0.9
	}
	return Result{Intent: best, Confidence: confidence, Method: "lexical"}
}

// tokenize lower-cases the query and splits it on anything that is not a
// letter, digit or hyphen.
func tokenize(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

func meanVector(vecs [][]float32) []float32 {
	out := make([]float32, len(vecs[0]))
	for _, v := range vecs {
		for i := range out {
			if i < len(v) {
				out[i] += v[i]
			}
		}
	}
	for i := range out {
		out[i] /= float32(len(vecs))
	}
	return out
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
