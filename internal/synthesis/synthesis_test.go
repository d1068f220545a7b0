package synthesis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/newsrag/internal/ai"
	"github.com/xxxsen/newsrag/internal/model"
)

// fakeGenerator replays canned responses in order and records the
// prompts it was given.
type fakeGenerator struct {
	responses []string
	prompts   []string
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, prompt string, schema *ai.Schema) (string, error) {
	f.prompts = append(f.prompts, prompt)
	idx := len(f.prompts) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func evidenceHits() []model.Hit {
	return []model.Hit{
		{Chunk: model.Chunk{URL: "https://a.example/post", Seq: 0, Text: "Go 1.22 ships loop variable scoping."}, Score: 0.91, Row: 0},
		{Chunk: model.Chunk{URL: "https://b.example/notes", Seq: 2, Text: "Benchmarks regressed by two percent."}, Score: 0.74, Row: 5},
	}
}

const goodAnswer = `{"tldr":"Go 1.22 changes loop scoping.","bullets":["Loop variables are per-iteration [1]","Benchmarks dipped slightly [2]","No evidence covers migration tooling [1]"],"used_ids":[1,2]}`

func TestSynthesizeValidAnswer(t *testing.T) {
	gen := &fakeGenerator{responses: []string{goodAnswer}}
	answer, failure, err := NewSynthesizer(gen).Synthesize(context.Background(), "what changed?", evidenceHits())
	require.NoError(t, err)
	require.Nil(t, failure)
	require.Equal(t, "Go 1.22 changes loop scoping.", answer.TLDR)
	require.Len(t, answer.Bullets, 3)
	require.Equal(t, []int{1, 2}, answer.UsedIDs)
	require.Len(t, gen.prompts, 1)
	require.Contains(t, gen.prompts[0], "[1] (https://a.example/post#chunk0)")
	require.Contains(t, gen.prompts[0], "what changed?")
}

func TestSynthesizeFencedOutputAccepted(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"```json\n" + goodAnswer + "\n```"}}
	answer, failure, err := NewSynthesizer(gen).Synthesize(context.Background(), "q", evidenceHits())
	require.NoError(t, err)
	require.Nil(t, failure)
	require.NotNil(t, answer)
}

func TestSynthesizeRetriesOnceThenRecovers(t *testing.T) {
	gen := &fakeGenerator{responses: []string{`{"tldr":"","bullets":[],"used_ids":[]}`, goodAnswer}}
	answer, failure, err := NewSynthesizer(gen).Synthesize(context.Background(), "q", evidenceHits())
	require.NoError(t, err)
	require.Nil(t, failure)
	require.NotNil(t, answer)
	require.Len(t, gen.prompts, 2)
	require.Contains(t, gen.prompts[1], "previous response was rejected")
}

func TestSynthesizeBoundedRetry(t *testing.T) {
	// Persistently malformed output must stop after exactly two calls and
	// surface the raw text, never loop or fabricate an answer.
	gen := &fakeGenerator{responses: []string{"not json at all"}}
	answer, failure, err := NewSynthesizer(gen).Synthesize(context.Background(), "q", evidenceHits())
	require.NoError(t, err)
	require.Nil(t, answer)
	require.NotNil(t, failure)
	require.Equal(t, "not json at all", failure.Raw)
	require.Contains(t, failure.Reason, "2 attempts")
	require.Len(t, gen.prompts, 2)
}

func TestSynthesizeRejectsOutOfRangeIDs(t *testing.T) {
	bad := `{"tldr":"t","bullets":["a [1]","b [2]","c [3]"],"used_ids":[1,9]}`
	gen := &fakeGenerator{responses: []string{bad}}
	_, failure, err := NewSynthesizer(gen).Synthesize(context.Background(), "q", evidenceHits())
	require.NoError(t, err)
	require.NotNil(t, failure)
	require.Contains(t, failure.Reason, "used_ids")
}

func TestSynthesizeBulletCountEnforced(t *testing.T) {
	bad := `{"tldr":"t","bullets":["only one [1]"],"used_ids":[1]}`
	gen := &fakeGenerator{responses: []string{bad}}
	_, failure, err := NewSynthesizer(gen).Synthesize(context.Background(), "q", evidenceHits())
	require.NoError(t, err)
	require.NotNil(t, failure)
	require.Contains(t, failure.Reason, "bullets")
}

func TestSynthesizeNoEvidence(t *testing.T) {
	gen := &fakeGenerator{responses: []string{goodAnswer}}
	_, _, err := NewSynthesizer(gen).Synthesize(context.Background(), "q", nil)
	require.Error(t, err)
	require.Empty(t, gen.prompts)
}

func TestVerifyGradesEachClaim(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`[{"claim":"a","status":"supported","evidence_ids":[1]},{"claim":"b","status":"insufficient","evidence_ids":[]}]`,
	}}
	results, failure, err := NewVerifier(gen).Verify(context.Background(), []string{"a", "b"}, evidenceHits())
	require.NoError(t, err)
	require.Nil(t, failure)
	require.Len(t, results, 2)
	require.Equal(t, model.VerificationSupported, results[0].Status)
	require.Equal(t, model.VerificationInsufficient, results[1].Status)
}

func TestVerifyEmptyClaimsSkipsProvider(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"[]"}}
	results, failure, err := NewVerifier(gen).Verify(context.Background(), nil, evidenceHits())
	require.NoError(t, err)
	require.Nil(t, failure)
	require.Empty(t, results)
	require.Empty(t, gen.prompts)
}

func TestVerifyCountMismatchFails(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`[{"claim":"a","status":"supported","evidence_ids":[1]}]`,
	}}
	_, failure, err := NewVerifier(gen).Verify(context.Background(), []string{"a", "b"}, evidenceHits())
	require.NoError(t, err)
	require.NotNil(t, failure)
}

func TestVerifyUnknownStatusRejected(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`[{"claim":"a","status":"maybe","evidence_ids":[]}]`,
	}}
	_, failure, err := NewVerifier(gen).Verify(context.Background(), []string{"a"}, evidenceHits())
	require.NoError(t, err)
	require.NotNil(t, failure)
	require.Contains(t, failure.Reason, "status")
}

func TestTruncateLongSnippets(t *testing.T) {
	long := make([]rune, 2000)
	for i := range long {
		long[i] = 'x'
	}
	hit := model.Hit{Chunk: model.Chunk{URL: "u", Seq: 0, Text: string(long)}}
	rendered := formatEvidence([]model.Hit{hit}, synthSnippetLimit)
	require.Less(t, len(rendered), 1100)
	require.Contains(t, rendered, "...")
}
