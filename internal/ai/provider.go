package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnavailable = errors.New("ai provider unavailable")

// Task types passed through to providers that distinguish document and
// query embeddings (gemini does, openai-compatible endpoints ignore them).
const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

// IProvider is one upstream embedding API. EmbedBatch must return one vector
// per input, in input order, regardless of how the wire protocol tags them.
type IProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
	EmbedBatch(ctx context.Context, model string, texts []string, taskType string) ([][]float32, error)
}

// IEmbedder is the gateway surface the rest of the system depends on.
type IEmbedder interface {
	EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	ModelName() string
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

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
