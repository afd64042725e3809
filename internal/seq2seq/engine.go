package seq2seq

import (
	"context"
	"errors"

	"github.com/gomlx/gomlx/backends"
	mlcontext "github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/onnx-gomlx/onnx"

	"sumgen/internal/summarizer"
)

// textTokenizer is the slice of the checkpoint tokenizer the engine uses.
type textTokenizer interface {
	Encode(text string) []int
	Decode(ids []int) string
}

// Engine executes an encoder-decoder summarization checkpoint as graphs
// on the configured backend. It implements summarizer.Model; every batch
// is processed independently and no state survives a call.
type Engine struct {
	tokenizer textTokenizer
	encoder   *onnx.Model
	decoder   *onnx.Model
	encCtx    *mlcontext.Context
	decCtx    *mlcontext.Context
	backend   backends.Backend

	cfg  checkpointConfig
	opts Options

	hasEncoderMask  bool
	decoderInputSet map[string]bool
	specialTokens   map[int64]bool
	maxNewTokens    int
	minNewTokens    int
}

// Tokenize encodes one batch of documents: per-document truncation to the
// model's maximum source length, then padding to the longest sequence in
// the batch with a matching attention mask.
func (e *Engine) Tokenize(
	_ context.Context,
	documents []string,
) (*summarizer.Encoding, error) {
	if len(documents) == 0 {
		return nil, errors.New("empty batch")
	}

	sequences := make([][]int64, len(documents))
	longest := 0
	for i, document := range documents {
		sequences[i] = e.encodeDocument(document)
		if len(sequences[i]) > longest {
			longest = len(sequences[i])
		}
	}

	inputIDs := make([][]int64, len(sequences))
	attentionMask := make([][]int64, len(sequences))
	for i, ids := range sequences {
		inputIDs[i], attentionMask[i] = padSequence(ids, e.cfg.PadTokenID, longest)
	}

	return &summarizer.Encoding{InputIDs: inputIDs, AttentionMask: attentionMask}, nil
}

// Decode turns generated token sequences back into text, skipping the
// checkpoint's special tokens. No whitespace cleanup is applied.
func (e *Engine) Decode(
	_ context.Context,
	sequences [][]int64,
) ([]string, error) {
	summaries := make([]string, len(sequences))
	for i, sequence := range sequences {
		ids := make([]int, 0, len(sequence))
		for _, id := range sequence {
			if e.specialTokens[id] {
				continue
			}
			ids = append(ids, int(id))
		}
		summaries[i] = e.tokenizer.Decode(ids)
	}

	return summaries, nil
}

// Close releases the loaded graphs.
func (e *Engine) Close() error {
	e.encoder.Close()
	e.decoder.Close()

	return nil
}

// encodeDocument tokenizes one document and fits it into the model's
// input template: truncate to leave room for the special tokens, then
// wrap with BOS (when the model has one) and EOS.
func (e *Engine) encodeDocument(document string) []int64 {
	reserved := 1
	if e.cfg.BOSTokenID >= 0 {
		reserved++
	}

	encoded := e.tokenizer.Encode(document)
	ids := make([]int64, 0, len(encoded)+reserved)
	for _, t := range encoded {
		ids = append(ids, int64(t))
	}

	// Some tokenizers template their output already; normalize before
	// truncating so the wrap below never doubles special tokens.
	if e.cfg.BOSTokenID >= 0 && len(ids) > 0 && ids[0] == e.cfg.BOSTokenID {
		ids = ids[1:]
	}
	if n := len(ids); n > 0 && ids[n-1] == e.cfg.EOSTokenID {
		ids = ids[:n-1]
	}

	if limit := e.cfg.MaxSourceLength - reserved; len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]int64, 0, len(ids)+reserved)
	if e.cfg.BOSTokenID >= 0 {
		out = append(out, e.cfg.BOSTokenID)
	}
	out = append(out, ids...)
	out = append(out, e.cfg.EOSTokenID)

	return out
}

// padSequence pads ids to targetLen and returns the padded row plus its
// attention mask.
func padSequence(ids []int64, padID int64, targetLen int) ([]int64, []int64) {
	padded := make([]int64, targetLen)
	mask := make([]int64, targetLen)
	for i := range targetLen {
		if i < len(ids) {
			padded[i] = ids[i]
			mask[i] = 1
		} else {
			padded[i] = padID
		}
	}

	return padded, mask
}
