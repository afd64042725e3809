package seq2seq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/gomlx/go-huggingface/hub"
	"github.com/gomlx/go-huggingface/tokenizers"
	"github.com/gomlx/gomlx/backends"
	mlcontext "github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/onnx-gomlx/onnx"

	// Registers the default graph backends; GOMLX_BACKEND selects one.
	_ "github.com/gomlx/gomlx/backends/default"
)

// Options tune generation. Zero values defer to the checkpoint's own
// generation configuration; a zero Temperature means greedy decoding.
type Options struct {
	MaxNewTokens int
	MinNewTokens int
	Temperature  float64
	TopK         int
	Progress     bool
}

var (
	encoderFileCandidates = []string{"onnx/encoder_model.onnx", "encoder_model.onnx"}
	decoderFileCandidates = []string{"onnx/decoder_model.onnx", "decoder_model.onnx"}

	supportedEncoderInputs = map[string]bool{
		"input_ids":      true,
		"attention_mask": true,
	}

	// supportedDecoderInputs covers plain exported decoders. Merged
	// decoders carry a KV-cache branch (use_cache_branch,
	// past_key_values.*) and are rejected at load time.
	supportedDecoderInputs = map[string]bool{
		"input_ids":              true,
		"decoder_input_ids":      true,
		"encoder_hidden_states":  true,
		"encoder_outputs":        true,
		"encoder_attention_mask": true,
	}
)

// Load fetches a checkpoint by its repository identifier (reusing the
// local cache when present) and prepares it for batched generation.
func Load(ctx context.Context, modelID string, opts Options, log *slog.Logger) (*Engine, error) {
	repo := hub.New(modelID).WithProgressBar(opts.Progress)
	if err := repo.DownloadInfo(false); err != nil {
		return nil, fmt.Errorf("fetch checkpoint info for %s: %w", modelID, err)
	}

	log.InfoContext(ctx, "Checkpoint files are downloading",
		"checkpoint", modelID)

	configPath, err := repo.DownloadFile("config.json")
	if err != nil {
		return nil, fmt.Errorf("download config.json: %w", err)
	}
	configJSON, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config.json: %w", err)
	}

	var generationJSON []byte
	if generationPath, err := repo.DownloadFile("generation_config.json"); err == nil {
		generationJSON, _ = os.ReadFile(generationPath)
	}

	cfg, err := parseCheckpointConfig(configJSON, generationJSON)
	if err != nil {
		return nil, err
	}

	encoderPath, err := downloadFirst(repo, encoderFileCandidates)
	if err != nil {
		return nil, fmt.Errorf("download encoder graph: %w", err)
	}
	decoderPath, err := downloadFirst(repo, decoderFileCandidates)
	if err != nil {
		return nil, fmt.Errorf("download decoder graph: %w", err)
	}

	tokenizer, err := tokenizers.New(repo)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	encoder, err := onnx.ReadFile(encoderPath)
	if err != nil {
		return nil, fmt.Errorf("load encoder graph: %w", err)
	}

	decoder, err := onnx.ReadFile(decoderPath)
	if err != nil {
		encoder.Close()

		return nil, fmt.Errorf("load decoder graph: %w", err)
	}

	encoderInputs, _ := encoder.Inputs()
	decoderInputs, _ := decoder.Inputs()

	for _, name := range encoderInputs {
		if !supportedEncoderInputs[name] {
			encoder.Close()
			decoder.Close()

			return nil, fmt.Errorf("encoder input %q is not supported", name)
		}
	}

	decoderInputSet := make(map[string]bool, len(decoderInputs))
	for _, name := range decoderInputs {
		if !supportedDecoderInputs[name] {
			encoder.Close()
			decoder.Close()

			return nil, fmt.Errorf("decoder input %q is not supported; export the checkpoint without the KV-cache branch", name)
		}
		decoderInputSet[name] = true
	}

	encCtx := mlcontext.New()
	if err := encoder.VariablesToContext(encCtx); err != nil {
		encoder.Close()
		decoder.Close()

		return nil, fmt.Errorf("load encoder weights: %w", err)
	}

	decCtx := mlcontext.New()
	if err := decoder.VariablesToContext(decCtx); err != nil {
		encoder.Close()
		decoder.Close()

		return nil, fmt.Errorf("load decoder weights: %w", err)
	}

	backend, err := backends.New()
	if err != nil {
		encoder.Close()
		decoder.Close()

		return nil, fmt.Errorf("initialize graph backend: %w", err)
	}

	engine := &Engine{
		tokenizer:       tokenizer,
		encoder:         encoder,
		decoder:         decoder,
		encCtx:          encCtx,
		decCtx:          decCtx,
		backend:         backend,
		cfg:             cfg,
		opts:            opts,
		hasEncoderMask:  slices.Contains(encoderInputs, "attention_mask"),
		decoderInputSet: decoderInputSet,
		specialTokens:   specialTokenSet(cfg),
		maxNewTokens:    firstPositive(opts.MaxNewTokens, cfg.MaxLength),
		minNewTokens:    firstPositive(opts.MinNewTokens, cfg.MinLength),
	}

	log.InfoContext(ctx, "Checkpoint is loaded",
		"checkpoint", modelID,
		"modelType", cfg.ModelType,
		"backend", backend.Name(),
		"maxNewTokens", engine.maxNewTokens,
		"minNewTokens", engine.minNewTokens)

	return engine, nil
}

// downloadFirst fetches the first candidate the repository has, together
// with its external-weights sibling when one exists.
func downloadFirst(repo *hub.Repo, candidates []string) (string, error) {
	var errs []error

	for _, name := range candidates {
		path, err := repo.DownloadFile(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		// Large exports keep weights in a sibling _data file; inline
		// exports have none.
		_, _ = repo.DownloadFile(name + "_data")

		return path, nil
	}

	return "", errors.Join(errs...)
}

func specialTokenSet(cfg checkpointConfig) map[int64]bool {
	special := map[int64]bool{
		cfg.EOSTokenID:          true,
		cfg.PadTokenID:          true,
		cfg.DecoderStartTokenID: true,
	}
	if cfg.BOSTokenID >= 0 {
		special[cfg.BOSTokenID] = true
	}

	return special
}
