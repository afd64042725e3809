package summarizer

import (
	"context"
	"fmt"
)

// Encoding is a tokenized batch: one row of token IDs per document, padded
// to the longest sequence in the batch, with a matching attention mask.
type Encoding struct {
	InputIDs      [][]int64
	AttentionMask [][]int64
}

// Model is the narrow contract over an in-process generation engine.
// Implementations must process every batch independently, carrying no
// state from one call to the next.
type Model interface {
	Tokenize(ctx context.Context, documents []string) (*Encoding, error)
	Generate(ctx context.Context, encoding *Encoding) ([][]int64, error)
	Decode(ctx context.Context, sequences [][]int64) ([]string, error)
}

// Summarizer produces one summary per input document.
type Summarizer interface {
	Summarize(ctx context.Context, documents []string) ([]string, error)
}

// ModelSummarizer presents a Model as a Summarizer by running its
// tokenize, generate and decode steps in order.
type ModelSummarizer struct {
	model Model
}

// NewModelSummarizer builds the adapter around an engine.
func NewModelSummarizer(model Model) *ModelSummarizer {
	return &ModelSummarizer{model: model}
}

// Summarize runs one batch through the engine.
func (s *ModelSummarizer) Summarize(
	ctx context.Context,
	documents []string,
) ([]string, error) {
	encoding, err := s.model.Tokenize(ctx, documents)
	if err != nil {
		return nil, fmt.Errorf("tokenize batch: %w", err)
	}

	sequences, err := s.model.Generate(ctx, encoding)
	if err != nil {
		return nil, fmt.Errorf("generate batch: %w", err)
	}

	summaries, err := s.model.Decode(ctx, sequences)
	if err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}

	if len(summaries) != len(documents) {
		return nil, fmt.Errorf("decoded %d summaries for %d documents", len(summaries), len(documents))
	}

	return summaries, nil
}
