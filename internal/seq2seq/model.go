package seq2seq

import (
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/context"
)

// runEncoder executes the encoder graph once for the batch, producing the
// hidden states every decoder step cross-attends to.
func (e *Engine) runEncoder(inputIDs, attentionMask [][]int64) *tensors.Tensor {
	return context.MustExecOnce(
		e.backend, e.encCtx.Reuse(),
		func(ctx *context.Context, ids, mask *Node) *Node {
			g := ids.Graph()
			inputs := map[string]*Node{"input_ids": ids}
			if e.hasEncoderMask {
				inputs["attention_mask"] = mask
			}
			outputs := e.encoder.CallGraph(ctx, g, inputs)

			// outputs[0] is last_hidden_state: [batch, source_len, hidden].
			return outputs[0]
		},
		inputIDs, attentionMask,
	)
}

// runDecoderStep executes one decoder step over the padded target batch
// and returns the logits at the last real position, flattened to
// batch*vocab. Target rows are padded past realLen for shape reuse; the
// causal mask keeps those positions invisible to the sliced logits.
func (e *Engine) runDecoderStep(
	target [][]int64,
	realLen int,
	encoderHidden *tensors.Tensor,
	encoderMask [][]int64,
) []float32 {
	output := context.MustExecOnce(
		e.backend, e.decCtx.Reuse(),
		func(ctx *context.Context, ids, hidden, mask *Node) *Node {
			g := ids.Graph()
			inputs := make(map[string]*Node, len(e.decoderInputSet))
			for name := range e.decoderInputSet {
				switch name {
				case "input_ids", "decoder_input_ids":
					inputs[name] = ids
				case "encoder_hidden_states", "encoder_outputs":
					inputs[name] = hidden
				case "encoder_attention_mask":
					inputs[name] = mask
				}
			}
			outputs := e.decoder.CallGraph(ctx, g, inputs)

			// outputs[0] is logits: [batch, target_len, vocab].
			logits := outputs[0]
			batch := logits.Shape().Dimensions[0]
			vocab := logits.Shape().Dimensions[2]
			last := DynamicSlice(logits, []*Node{
				Const(g, int32(0)), Const(g, int32(realLen-1)), Const(g, int32(0)),
			}, []int{batch, 1, vocab})

			return Reshape(last, batch, vocab)
		},
		target, encoderHidden, encoderMask,
	)

	return tensors.MustCopyFlatData[float32](output)
}
