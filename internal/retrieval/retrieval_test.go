package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/newsrag/internal/embed"
	"github.com/xxxsen/newsrag/internal/index"
	"github.com/xxxsen/newsrag/internal/model"
)

type fakeEmbedProvider struct {
	vectors map[string][]float32
}

func (f *fakeEmbedProvider) ModelName() string {
	return "fake-embed-001"
}

func (f *fakeEmbedProvider) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{1, 0}
		}
		out = append(out, v)
	}
	return out, nil
}

func buildIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.New(2)
	require.NoError(t, err)
	require.NoError(t, idx.Add(
		[][]float32{{1, 0}, {0.8, 0.6}, {0, 1}},
		[]model.Chunk{
			{URL: "https://a.example", Seq: 0, Text: "alpha beta gamma"},
			{URL: "https://b.example", Seq: 0, Text: "unrelated filler words"},
			{URL: "https://c.example", Seq: 0, Text: "quantum entanglement breakthrough reported"},
		},
	))
	return idx
}

func TestRetrieveVectorRanksByInnerProduct(t *testing.T) {
	provider := &fakeEmbedProvider{vectors: map[string][]float32{
		"question": {1, 0},
	}}
	r := New(embed.New(provider, nil))

	hits, err := r.RetrieveVector(context.Background(), "question", buildIndex(t), 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, 0, hits[0].Row)
	require.Equal(t, 1, hits[1].Row)
}

func TestRetrieveHybridLexicalRescues(t *testing.T) {
	// The question embeds onto the x axis, so the vector ranking puts the
	// quantum chunk dead last. Its exact term matches must still carry it
	// to the top once lexical evidence is mixed in.
	provider := &fakeEmbedProvider{vectors: map[string][]float32{
		"quantum breakthrough": {1, 0},
	}}
	r := New(embed.New(provider, nil))

	hits, err := r.Retrieve(context.Background(), "quantum breakthrough", buildIndex(t), 2, 0.4)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, 2, hits[0].Row)
	require.Equal(t, 0, hits[1].Row)
}

func TestRetrieveAlphaOneMatchesVectorOrder(t *testing.T) {
	provider := &fakeEmbedProvider{vectors: map[string][]float32{
		"question": {1, 0},
	}}
	r := New(embed.New(provider, nil))

	hits, err := r.Retrieve(context.Background(), "question", buildIndex(t), 3, 1.0)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, []int{hits[0].Row, hits[1].Row, hits[2].Row})
}

func TestRetrieveAlphaValidated(t *testing.T) {
	r := New(embed.New(&fakeEmbedProvider{}, nil))
	_, err := r.Retrieve(context.Background(), "q", buildIndex(t), 2, 1.5)
	require.Error(t, err)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	idx, err := index.New(2)
	require.NoError(t, err)
	r := New(embed.New(&fakeEmbedProvider{}, nil))
	hits, err := r.Retrieve(context.Background(), "q", idx, 3, 0.5)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestNormalizeDegenerateBatch(t *testing.T) {
	scores := []float64{0.7, 0.7, 0.7}
	normalize(scores)
	require.Equal(t, []float64{0, 0, 0}, scores)

	scores = []float64{1, 3}
	normalize(scores)
	require.Equal(t, []float64{0, 1}, scores)
}

func TestLexicalScorerMatchesTerms(t *testing.T) {
	s := newLexicalScorer([]model.Chunk{
		{Text: "the cache invalidation bug"},
		{Text: "weather report for tuesday"},
	})
	scores := s.Score("cache invalidation")
	require.Greater(t, scores[0], 0.0)
	require.Equal(t, 0.0, scores[1])
}

func TestDiversifyCapsPerSource(t *testing.T) {
	hits := []model.Hit{
		{Chunk: model.Chunk{URL: "a", Seq: 0}, Score: 0.9},
		{Chunk: model.Chunk{URL: "a", Seq: 1}, Score: 0.8},
		{Chunk: model.Chunk{URL: "a", Seq: 2}, Score: 0.7},
		{Chunk: model.Chunk{URL: "b", Seq: 0}, Score: 0.6},
		{Chunk: model.Chunk{URL: "c", Seq: 0}, Score: 0.5},
	}
	out := Diversify(hits, 4, 2)
	require.Len(t, out, 4)
	require.Equal(t, "a", out[0].Chunk.URL)
	require.Equal(t, "a", out[1].Chunk.URL)
	require.Equal(t, "b", out[2].Chunk.URL)
	require.Equal(t, "c", out[3].Chunk.URL)
}

func TestDiversifyNoCap(t *testing.T) {
	hits := []model.Hit{
		{Chunk: model.Chunk{URL: "a", Seq: 0}},
		{Chunk: model.Chunk{URL: "a", Seq: 1}},
		{Chunk: model.Chunk{URL: "a", Seq: 2}},
	}
	require.Len(t, Diversify(hits, 3, 0), 3)
	require.Len(t, Diversify(hits, 2, 1), 1)
}
