package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/pkoukk/tiktoken-go"

	"sumgen/internal/ratelimiter"
)

const (
	defaultMaxOutputTokens int64 = 512

	summaryInstructions = `Summarize the document in a few sentences.

Rules:
- Keep only the key facts, figures, and outcomes.
- Neutral tone, no commentary, no lead-in phrases.
- Output plain text on a single line in the same language as the input.`
)

// OpenAIConfig configures the remote engine. Model is the identifier sent
// to the server; BaseURL switches to any OpenAI-compatible endpoint.
// MaxInputTokens of zero disables client-side truncation and a
// RequestInterval of zero disables request pacing.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int64
	MaxInputTokens  int
	Encoding        string
	RequestInterval time.Duration
}

// OpenAISummarizer summarizes documents through the Responses API, one
// request per document, strictly in order. A failed or incomplete response
// fails the whole batch.
type OpenAISummarizer struct {
	client          openai.Client
	model           string
	maxOutputTokens int64
	truncater       *promptTruncater
	limiter         *ratelimiter.RateLimiter
}

// NewOpenAISummarizer builds a new remote engine instance.
func NewOpenAISummarizer(cfg OpenAIConfig, log *slog.Logger) (*OpenAISummarizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("API key is empty")
	}

	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("model is empty")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	var truncater *promptTruncater
	if cfg.MaxInputTokens > 0 {
		codec, err := tiktoken.GetEncoding(cfg.Encoding)
		if err != nil {
			return nil, fmt.Errorf("load %q token encoding: %w", cfg.Encoding, err)
		}
		truncater = &promptTruncater{codec: codec, maxTokens: cfg.MaxInputTokens}
	}

	maxOutputTokens := cfg.MaxOutputTokens
	if maxOutputTokens <= 0 {
		maxOutputTokens = defaultMaxOutputTokens
	}

	var limiter *ratelimiter.RateLimiter
	if cfg.RequestInterval > 0 {
		limiter = ratelimiter.New(cfg.RequestInterval, log)
	}

	return &OpenAISummarizer{
		client:          openai.NewClient(opts...),
		model:           cfg.Model,
		maxOutputTokens: maxOutputTokens,
		truncater:       truncater,
		limiter:         limiter,
	}, nil
}

// Summarize produces one summary per document.
func (s *OpenAISummarizer) Summarize(
	ctx context.Context,
	documents []string,
) ([]string, error) {
	summaries := make([]string, len(documents))

	for i, document := range documents {
		text := strings.TrimSpace(document)
		if text == "" {
			return nil, fmt.Errorf("document %d is empty", i+1)
		}

		summary, err := s.summarizeOne(ctx, s.truncater.truncate(text))
		if err != nil {
			return nil, fmt.Errorf("summarize document %d: %w", i+1, err)
		}
		summaries[i] = summary
	}

	return summaries, nil
}

func (s *OpenAISummarizer) summarizeOne(ctx context.Context, text string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := s.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:           openai.ChatModel(s.model),
		MaxOutputTokens: openai.Int(s.maxOutputTokens),
		Instructions:    openai.String(summaryInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	if resp.Status == "incomplete" {
		return "", fmt.Errorf(
			"response is incomplete (reason = %s, maxOutputTokens = %d)",
			resp.IncompleteDetails.Reason,
			s.maxOutputTokens,
		)
	}

	summary := strings.TrimSpace(resp.OutputText())
	if summary == "" {
		return "", fmt.Errorf("output text is missing (status = %s)", resp.Status)
	}

	return summary, nil
}

// tokenCodec is the sliver of the token encoding API the truncater needs.
type tokenCodec interface {
	EncodeOrdinary(text string) []int
	Decode(tokens []int) string
}

// promptTruncater cuts documents to a token budget before they are sent,
// mirroring the truncation a local tokenizer would apply. A nil truncater
// passes text through unchanged.
type promptTruncater struct {
	codec     tokenCodec
	maxTokens int
}

func (t *promptTruncater) truncate(text string) string {
	if t == nil {
		return text
	}

	tokens := t.codec.EncodeOrdinary(text)
	if len(tokens) <= t.maxTokens {
		return text
	}

	return t.codec.Decode(tokens[:t.maxTokens])
}
