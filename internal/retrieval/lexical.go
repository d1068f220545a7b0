package retrieval

import (
	"math"
	"regexp"
	"strings"

	"github.com/xxxsen/newsrag/internal/model"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

var tokenPattern = regexp.MustCompile(`\w+`)

func tokenize(s string) []string {
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}

// lexicalScorer holds per-corpus BM25 statistics. Scores cover the whole
// corpus, not just the vector candidates, so a chunk that matches the
// question terms but embeds poorly still pulls its fused rank up.
type lexicalScorer struct {
	docTokens [][]string
	docFreq   map[string]int
	avgLen    float64
}

func newLexicalScorer(chunks []model.Chunk) *lexicalScorer {
	s := &lexicalScorer{
		docTokens: make([][]string, len(chunks)),
		docFreq:   make(map[string]int),
	}
	var total int
	for i, c := range chunks {
		tokens := tokenize(c.Text)
		s.docTokens[i] = tokens
		total += len(tokens)
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			s.docFreq[tok]++
		}
	}
	if len(chunks) > 0 {
		s.avgLen = float64(total) / float64(len(chunks))
	}
	return s
}

// Score returns one BM25 score per corpus row for the given query.
func (s *lexicalScorer) Score(query string) []float64 {
	scores := make([]float64, len(s.docTokens))
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 || len(s.docTokens) == 0 {
		return scores
	}
	n := float64(len(s.docTokens))
	for row, tokens := range s.docTokens {
		if len(tokens) == 0 {
			continue
		}
		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		docLen := float64(len(tokens))
		var score float64
		for _, q := range queryTokens {
			tf := float64(counts[q])
			if tf == 0 {
				continue
			}
			df := float64(s.docFreq[q])
			idf := math.Log((n-df+0.5)/(df+0.5) + 1)
			score += idf * (tf * (bm25K1 + 1)) /
				(tf + bm25K1*(1-bm25B+bm25B*docLen/s.avgLen))
		}
		scores[row] = score
	}
	return scores
}
