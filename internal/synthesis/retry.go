package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/newsrag/internal/ai"
	"github.com/xxxsen/newsrag/internal/model"
)

const maxAttempts = 2

// generateValidated runs one generation attempt plus at most one
// corrective retry. A transport error propagates as an error; output
// that still fails validation after the retry comes back as a
// GenerationFailure carrying the raw text, never as a guessed answer.
func generateValidated[T any](ctx context.Context, gen ai.IGenerator, prompt string, schema *ai.Schema, validate func(raw string) (T, error)) (T, *model.GenerationFailure, error) {
	var zero T
	var lastRaw string
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := gen.GenerateJSON(ctx, prompt, schema)
		if err != nil {
			return zero, nil, fmt.Errorf("generate attempt %d: %w", attempt, err)
		}
		value, err := validate(stripFences(raw))
		if err == nil {
			return value, nil, nil
		}
		lastRaw, lastErr = raw, err
		logutil.GetLogger(ctx).Warn("generated output failed validation",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		prompt = prompt + fmt.Sprintf(
			"\n\nYour previous response was rejected: %v.\nRespond again with ONLY the corrected JSON document.", err)
	}
	return zero, &model.GenerationFailure{
		Reason: fmt.Sprintf("output failed validation after %d attempts: %v", maxAttempts, lastErr),
		Raw:    lastRaw,
	}, nil
}

// stripFences removes a markdown code fence wrapper some models insist
// on even in JSON mode.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
