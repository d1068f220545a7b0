package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xxxsen/newsrag/internal/ai"
	"github.com/xxxsen/newsrag/internal/model"
)

const bulletCount = 3

// Synthesizer produces a grounded answer from retrieved evidence. Every
// statement must trace back to a labeled evidence chunk; anything the
// evidence does not cover is reported as missing rather than filled in.
type Synthesizer struct {
	gen ai.IGenerator
}

func NewSynthesizer(gen ai.IGenerator) *Synthesizer {
	return &Synthesizer{gen: gen}
}

func answerSchema() *ai.Schema {
	return &ai.Schema{
		Type: ai.TypeObject,
		Properties: map[string]*ai.Schema{
			"tldr": {
				Type:        ai.TypeString,
				Description: "one sentence summary of the answer",
			},
			"bullets": {
				Type:        ai.TypeArray,
				Description: "exactly three bullet points, each citing evidence ids like [1]",
				Items:       &ai.Schema{Type: ai.TypeString},
			},
			"used_ids": {
				Type:        ai.TypeArray,
				Description: "evidence ids actually used, 1-based",
				Items:       &ai.Schema{Type: ai.TypeInteger},
			},
		},
		Required: []string{"tldr", "bullets", "used_ids"},
	}
}

func synthesisPrompt(question, evidence string) string {
	return fmt.Sprintf(`You are a careful analyst. Answer the question using ONLY the evidence below.

Rules:
- Every bullet must cite the evidence ids it relies on, like [1] or [2][3].
- Provide exactly %d bullets.
- If the evidence does not cover part of the question, say so in a bullet instead of inventing facts.
- used_ids lists every evidence id you cited.

EVIDENCE:
%s
QUESTION: %s`, bulletCount, evidence, question)
}

// Synthesize returns either a validated answer or a failure describing
// why the generator's output was unusable. Only transport-level problems
// surface as an error.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, hits []model.Hit) (*model.GroundedAnswer, *model.GenerationFailure, error) {
	if len(hits) == 0 {
		return nil, nil, fmt.Errorf("no evidence to synthesize from")
	}
	prompt := synthesisPrompt(question, formatEvidence(hits, synthSnippetLimit))
	answer, failure, err := generateValidated(ctx, s.gen, prompt, answerSchema(), func(raw string) (*model.GroundedAnswer, error) {
		return parseAnswer(raw, len(hits))
	})
	if err != nil || failure != nil {
		return nil, failure, err
	}
	return answer, nil, nil
}

func parseAnswer(raw string, evidenceCount int) (*model.GroundedAnswer, error) {
	var answer model.GroundedAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}
	if strings.TrimSpace(answer.TLDR) == "" {
		return nil, fmt.Errorf("tldr is empty")
	}
	if len(answer.Bullets) != bulletCount {
		return nil, fmt.Errorf("want exactly %d bullets, got %d", bulletCount, len(answer.Bullets))
	}
	for i, b := range answer.Bullets {
		if strings.TrimSpace(b) == "" {
			return nil, fmt.Errorf("bullet %d is empty", i+1)
		}
	}
	for _, id := range answer.UsedIDs {
		if id < 1 || id > evidenceCount {
			return nil, fmt.Errorf("used_ids contains %d, valid ids are 1..%d", id, evidenceCount)
		}
	}
	return &answer, nil
}
