package synthesis

import (
	"fmt"
	"strings"

	"github.com/xxxsen/newsrag/internal/model"
)

// Snippet limits keep prompts bounded; verification gets a tighter one
// because every bullet re-sends the whole evidence block.
const (
	synthSnippetLimit  = 900
	verifySnippetLimit = 700
)

// formatEvidence renders hits as a numbered evidence block. Labels are
// 1-based; the generator cites them back through used_ids/evidence_ids.
func formatEvidence(hits []model.Hit, snippetLimit int) string {
	var sb strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&sb, "[%d] (%s#chunk%d) score=%.3f\n%s\n\n",
			i+1, h.Chunk.URL, h.Chunk.Seq, h.Score, truncate(h.Chunk.Text, snippetLimit))
	}
	return sb.String()
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
