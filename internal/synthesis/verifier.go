package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xxxsen/newsrag/internal/ai"
	"github.com/xxxsen/newsrag/internal/model"
)

// Verifier re-checks each synthesized claim against the evidence in a
// second pass with a fresh prompt, so the grader never sees its own
// reasoning from the synthesis call.
type Verifier struct {
	gen ai.IGenerator
}

func NewVerifier(gen ai.IGenerator) *Verifier {
	return &Verifier{gen: gen}
}

func verificationSchema() *ai.Schema {
	return &ai.Schema{
		Type: ai.TypeArray,
		Items: &ai.Schema{
			Type: ai.TypeObject,
			Properties: map[string]*ai.Schema{
				"claim": {Type: ai.TypeString},
				"status": {
					Type: ai.TypeString,
					Enum: []string{
						string(model.VerificationSupported),
						string(model.VerificationContested),
						string(model.VerificationInsufficient),
					},
				},
				"evidence_ids": {
					Type:  ai.TypeArray,
					Items: &ai.Schema{Type: ai.TypeInteger},
				},
			},
			Required: []string{"claim", "status", "evidence_ids"},
		},
	}
}

func verificationPrompt(claims []string, evidence string) string {
	var sb strings.Builder
	for i, c := range claims {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c)
	}
	return fmt.Sprintf(`Grade each claim strictly against the evidence below.

For every claim return one entry, in the same order, with:
- status "supported" if the evidence directly backs it,
- status "contested" if evidence points both ways,
- status "insufficient" if the evidence does not settle it,
- evidence_ids listing the evidence ids you relied on (may be empty for insufficient).

EVIDENCE:
%s
CLAIMS:
%s`, evidence, sb.String())
}

// Verify grades the given claims. No claims means nothing to grade and
// no provider call is made.
func (v *Verifier) Verify(ctx context.Context, claims []string, hits []model.Hit) ([]model.VerificationResult, *model.GenerationFailure, error) {
	if len(claims) == 0 {
		return nil, nil, nil
	}
	prompt := verificationPrompt(claims, formatEvidence(hits, verifySnippetLimit))
	results, failure, err := generateValidated(ctx, v.gen, prompt, verificationSchema(), func(raw string) ([]model.VerificationResult, error) {
		return parseVerification(raw, len(claims), len(hits))
	})
	if err != nil || failure != nil {
		return nil, failure, err
	}
	return results, nil, nil
}

func parseVerification(raw string, claimCount, evidenceCount int) ([]model.VerificationResult, error) {
	var results []model.VerificationResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}
	if len(results) != claimCount {
		return nil, fmt.Errorf("want one entry per claim (%d), got %d", claimCount, len(results))
	}
	for i, r := range results {
		if !r.Status.Valid() {
			return nil, fmt.Errorf("entry %d has unknown status %q", i+1, r.Status)
		}
		for _, id := range r.EvidenceIDs {
			if id < 1 || id > evidenceCount {
				return nil, fmt.Errorf("entry %d cites evidence %d, valid ids are 1..%d", i+1, id, evidenceCount)
			}
		}
	}
	return results, nil
}
