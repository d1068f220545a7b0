package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnavailable = errors.New("ai provider unavailable")

type IProvider interface {
	Name() string
	GenerateJSON(ctx context.Context, model string, prompt string, schema *Schema) (string, error)
	BatchEmbed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// IGenerator binds a provider to a generation model. Schema-constrained
// output is the only generation mode the pipeline uses.
type IGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *Schema) (string, error)
}

type IEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

type generator struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) GenerateJSON(ctx context.Context, prompt string, schema *Schema) (string, error) {
	return g.provider.GenerateJSON(ctx, g.model, prompt, schema)
}

type embedder struct {
	provider IProvider
	model    string
}

func NewEmbedder(p IProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.provider.BatchEmbed(ctx, e.model, texts)
}

func (e *embedder) ModelName() string {
	return e.model
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}
