package retrieval

import (
	"github.com/xxxsen/newsrag/internal/model"
)

// Diversify walks hits in rank order and keeps at most maxPerSource
// chunks from any single URL, stopping once k survive. maxPerSource <= 0
// disables the cap.
func Diversify(hits []model.Hit, k, maxPerSource int) []model.Hit {
	if k <= 0 {
		return nil
	}
	perSource := make(map[string]int)
	out := make([]model.Hit, 0, k)
	for _, h := range hits {
		if maxPerSource > 0 && perSource[h.Chunk.URL] >= maxPerSource {
			continue
		}
		perSource[h.Chunk.URL]++
		out = append(out, h)
		if len(out) == k {
			break
		}
	}
	return out
}
