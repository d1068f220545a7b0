package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// WrapBreaker guards a provider with circuit breakers so a failing remote
// service stops being hammered across a batch. An open breaker surfaces
// ErrUnavailable to callers.
func WrapBreaker(next IProvider) IProvider {
	if next == nil {
		return nil
	}
	return &breakerProvider{
		next: next,
		gen:  gobreaker.NewCircuitBreaker[string](breakerSettings(next.Name() + "-generate")),
		emb:  gobreaker.NewCircuitBreaker[[][]float32](breakerSettings(next.Name() + "-embed")),
	}
}

func breakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
}

type breakerProvider struct {
	next IProvider
	gen  *gobreaker.CircuitBreaker[string]
	emb  *gobreaker.CircuitBreaker[[][]float32]
}

func (b *breakerProvider) Name() string {
	return b.next.Name()
}

func (b *breakerProvider) GenerateJSON(ctx context.Context, model string, prompt string, schema *Schema) (string, error) {
	res, err := b.gen.Execute(func() (string, error) {
		return b.next.GenerateJSON(ctx, model, prompt, schema)
	})
	if err != nil {
		return "", wrapBreakerErr(err)
	}
	return res, nil
}

func (b *breakerProvider) BatchEmbed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	res, err := b.emb.Execute(func() ([][]float32, error) {
		return b.next.BatchEmbed(ctx, model, texts)
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	return res, nil
}

func wrapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
