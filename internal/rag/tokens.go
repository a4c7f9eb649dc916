package rag

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// tokenCount measures a text in model tokens using the bundled cl100k_base
// encoding. Falls back to a whitespace word count when the encoding cannot
// be initialized.
func tokenCount(text string) int {
	encodingOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
		enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err == nil {
			encoding = enc
		}
	})
	if encoding == nil {
		return len(strings.Fields(text))
	}
	return len(encoding.Encode(text, nil, nil))
}

// truncateToTokens cuts a text down to at most budget tokens, trimming on
// line boundaries so chunk fragments stay readable.
func truncateToTokens(text string, budget int) string {
	if budget <= 0 || tokenCount(text) <= budget {
		return text
	}
	lines := strings.Split(text, "\n")
	var b strings.Builder
	used := 0
	for _, line := range lines {
		n := tokenCount(line) + 1
		if used+n > budget {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
		used += n
	}
	return strings.TrimRight(b.String(), "\n")
}
