package ai

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// GenerationError wraps any provider-call failure. Batch tells the caller
// whether a whole-document embedding run failed or a single query embed.
type GenerationError struct {
	Batch bool
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Batch {
		return fmt.Sprintf("generate embeddings (batch): %v", e.Err)
	}
	return fmt.Sprintf("generate embedding: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

const (
	defaultMaxInputChars = 8000
	defaultBatchSize     = 100
)

// Embedder is the gateway in front of a provider. Oversized inputs are
// truncated rather than rejected, and large batches are split so a single
// provider call stays bounded.
type Embedder struct {
	provider      IProvider
	model         string
	maxInputChars int
	batchSize     int
}

type EmbedderOption func(*Embedder)

func WithMaxInputChars(n int) EmbedderOption {
	return func(e *Embedder) {
		if n > 0 {
			e.maxInputChars = n
		}
	}
}

func WithBatchSize(n int) EmbedderOption {
	return func(e *Embedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

func NewEmbedder(provider IProvider, model string, opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		provider:      provider,
		model:         model,
		maxInputChars: defaultMaxInputChars,
		batchSize:     defaultBatchSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Embedder) ModelName() string {
	return e.model
}

func (e *Embedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	vec, err := e.provider.Embed(ctx, e.model, e.truncate(text), taskType)
	if err != nil {
		return nil, &GenerationError{Batch: false, Err: err}
	}
	return vec, nil
}

func (e *Embedder) EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	inputs := make([]string, 0, len(texts))
	for _, text := range texts {
		inputs = append(inputs, e.truncate(text))
	}
	vectors := make([][]float32, 0, len(inputs))
	for start := 0; start < len(inputs); start += e.batchSize {
		end := start + e.batchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		batch, err := e.provider.EmbedBatch(ctx, e.model, inputs[start:end], taskType)
		if err != nil {
			return nil, &GenerationError{Batch: true, Err: err}
		}
		if len(batch) != end-start {
			return nil, &GenerationError{
				Batch: true,
				Err:   fmt.Errorf("provider returned %d vectors for %d inputs", len(batch), end-start),
			}
		}
		vectors = append(vectors, batch...)
	}
	logutil.GetLogger(ctx).Debug("embedded batch",
		zap.String("model", e.model),
		zap.Int("inputs", len(inputs)),
	)
	return vectors, nil
}

func (e *Embedder) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= e.maxInputChars {
		return text
	}
	return string(runes[:e.maxInputChars])
}
