package seq2seq

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sort"

	"sumgen/internal/summarizer"
)

// Generate produces one output token sequence per encoded document. The
// encoder runs once per batch; decoding is a lockstep autoregressive loop
// with no key-value cache, re-running the decoder graph over the growing
// target sequences each step.
func (e *Engine) Generate(
	_ context.Context,
	encoding *summarizer.Encoding,
) ([][]int64, error) {
	if encoding == nil || len(encoding.InputIDs) == 0 {
		return nil, errors.New("empty batch")
	}

	hidden := e.runEncoder(encoding.InputIDs, encoding.AttentionMask)

	step := func(target [][]int64, realLen int) []float32 {
		return e.runDecoderStep(target, realLen, hidden, encoding.AttentionMask)
	}

	return decodeLockstep(step, lockstepParams{
		Batch:       len(encoding.InputIDs),
		StartToken:  e.cfg.DecoderStartTokenID,
		PadToken:    e.cfg.PadTokenID,
		EOSToken:    e.cfg.EOSTokenID,
		MaxNew:      e.maxNewTokens,
		MinNew:      e.minNewTokens,
		Temperature: e.opts.Temperature,
		TopK:        e.opts.TopK,
	}), nil
}

// stepFunc runs one decoder step over the padded target sequences and
// returns the flat last-position logits, batch*vocab.
type stepFunc func(target [][]int64, realLen int) []float32

type lockstepParams struct {
	Batch       int
	StartToken  int64
	PadToken    int64
	EOSToken    int64
	MaxNew      int
	MinNew      int
	Temperature float64
	TopK        int
}

// decodeLockstep grows every target sequence by one token per step.
// Sequences that emit EOS are finished and padded so the batch stays
// rectangular; EOS is suppressed until MinNew tokens exist. All returned
// sequences share the same length.
func decodeLockstep(step stepFunc, p lockstepParams) [][]int64 {
	sequences := make([][]int64, p.Batch)
	for i := range sequences {
		sequences[i] = []int64{p.StartToken}
	}

	finished := make([]bool, p.Batch)

	for generated := 0; generated < p.MaxNew; generated++ {
		flat := step(padToPow2(sequences, p.PadToken), len(sequences[0]))
		vocab := len(flat) / p.Batch

		done := true
		for i := range sequences {
			if finished[i] {
				sequences[i] = append(sequences[i], p.PadToken)
				continue
			}

			logits := flat[i*vocab : (i+1)*vocab]
			if generated < p.MinNew && p.EOSToken >= 0 && p.EOSToken < int64(vocab) {
				logits[p.EOSToken] = float32(math.Inf(-1))
			}

			next := int64(sampleToken(logits, p.Temperature, p.TopK))
			sequences[i] = append(sequences[i], next)

			if next == p.EOSToken {
				finished[i] = true
			} else {
				done = false
			}
		}

		if done {
			break
		}
	}

	return sequences
}

// padToPow2 pads target rows to the next power of two so decoder graph
// shapes are reused across steps instead of recompiled every token.
func padToPow2(sequences [][]int64, padID int64) [][]int64 {
	realLen := len(sequences[0])
	target := nextPow2(realLen)
	if target == realLen {
		return sequences
	}

	padded := make([][]int64, len(sequences))
	for i, seq := range sequences {
		row := make([]int64, target)
		copy(row, seq)
		for j := len(seq); j < target; j++ {
			row[j] = padID
		}
		padded[i] = row
	}

	return padded
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p *= 2
	}

	return p
}

// sampleToken picks the next token from one sequence's logits. A
// non-positive temperature selects the argmax; otherwise the logits are
// temperature-scaled, optionally top-k filtered, and sampled.
func sampleToken(logits []float32, temperature float64, topK int) int {
	if temperature <= 0 {
		maxIdx := 0
		maxVal := logits[0]
		for i, v := range logits[1:] {
			if v > maxVal {
				maxVal = v
				maxIdx = i + 1
			}
		}

		return maxIdx
	}

	scaled := make([]float64, len(logits))
	for i, v := range logits {
		scaled[i] = float64(v) / temperature
	}

	if topK > 0 && topK < len(scaled) {
		type indexedLogit struct {
			index int
			value float64
		}
		indexed := make([]indexedLogit, len(scaled))
		for i, v := range scaled {
			indexed[i] = indexedLogit{i, v}
		}
		sort.Slice(indexed, func(i, j int) bool {
			return indexed[i].value > indexed[j].value
		})
		threshold := indexed[topK-1].value
		for i := range scaled {
			if scaled[i] < threshold {
				scaled[i] = math.Inf(-1)
			}
		}
	}

	maxVal := scaled[0]
	for _, v := range scaled[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float64
	for i := range scaled {
		scaled[i] = math.Exp(scaled[i] - maxVal)
		sum += scaled[i]
	}
	for i := range scaled {
		scaled[i] /= sum
	}

	r := rand.Float64()
	var cumulative float64
	for i, p := range scaled {
		cumulative += p
		if r < cumulative {
			return i
		}
	}

	return len(scaled) - 1
}
