package seq2seq

import (
	"encoding/json"
	"errors"
	"fmt"
)

// seq2seqArchitectures lists the encoder-decoder model types the engine
// can execute.
var seq2seqArchitectures = map[string]bool{
	"bart":            true,
	"mbart":           true,
	"pegasus":         true,
	"bigbird_pegasus": true,
	"t5":              true,
	"mt5":             true,
	"longt5":          true,
	"led":             true,
}

// checkpointConfig is the resolved subset of a checkpoint's config.json
// and generation_config.json the engine needs. BOSTokenID is negative for
// models whose input template has no beginning-of-sequence token.
type checkpointConfig struct {
	ModelType           string
	EOSTokenID          int64
	BOSTokenID          int64
	PadTokenID          int64
	DecoderStartTokenID int64
	MaxSourceLength     int
	MaxLength           int
	MinLength           int
}

// rawCheckpointConfig mirrors config.json. Token IDs use loose types
// because published checkpoints store them as a number, a list, or null.
type rawCheckpointConfig struct {
	ModelType             string `json:"model_type"`
	EOSTokenID            any    `json:"eos_token_id"`
	BOSTokenID            *int64 `json:"bos_token_id"`
	PadTokenID            any    `json:"pad_token_id"`
	DecoderStartTokenID   *int64 `json:"decoder_start_token_id"`
	MaxPositionEmbeddings int    `json:"max_position_embeddings"`
	MaxLength             int    `json:"max_length"`
	MinLength             int    `json:"min_length"`
}

// rawGenerationConfig mirrors generation_config.json, which overrides
// config.json where present.
type rawGenerationConfig struct {
	EOSTokenID          any    `json:"eos_token_id"`
	BOSTokenID          *int64 `json:"bos_token_id"`
	PadTokenID          any    `json:"pad_token_id"`
	DecoderStartTokenID *int64 `json:"decoder_start_token_id"`
	MaxLength           int    `json:"max_length"`
	MinLength           int    `json:"min_length"`
}

func parseCheckpointConfig(configJSON, generationJSON []byte) (checkpointConfig, error) {
	var raw rawCheckpointConfig
	if err := json.Unmarshal(configJSON, &raw); err != nil {
		return checkpointConfig{}, fmt.Errorf("parse config.json: %w", err)
	}

	if !seq2seqArchitectures[raw.ModelType] {
		return checkpointConfig{}, fmt.Errorf("model type %q is not a supported encoder-decoder architecture", raw.ModelType)
	}

	var gen *rawGenerationConfig
	if len(generationJSON) > 0 {
		gen = &rawGenerationConfig{}
		if err := json.Unmarshal(generationJSON, gen); err != nil {
			gen = nil
		}
	}

	cfg := checkpointConfig{ModelType: raw.ModelType}

	eos, hasEOS := tokenIDFromJSON(raw.EOSTokenID)
	if gen != nil {
		if genEOS, ok := tokenIDFromJSON(gen.EOSTokenID); ok {
			eos, hasEOS = genEOS, true
		}
	}
	if !hasEOS {
		return checkpointConfig{}, errors.New("checkpoint config has no eos_token_id")
	}
	cfg.EOSTokenID = eos

	pad, hasPad := tokenIDFromJSON(raw.PadTokenID)
	if gen != nil {
		if genPad, ok := tokenIDFromJSON(gen.PadTokenID); ok {
			pad, hasPad = genPad, true
		}
	}
	if !hasPad {
		// Checkpoints may publish pad_token_id as null; EOS then
		// doubles as padding.
		pad = eos
	}
	cfg.PadTokenID = pad

	cfg.BOSTokenID = -1
	if raw.BOSTokenID != nil {
		cfg.BOSTokenID = *raw.BOSTokenID
	}
	if gen != nil && gen.BOSTokenID != nil {
		cfg.BOSTokenID = *gen.BOSTokenID
	}

	start, hasStart := int64(0), false
	if raw.DecoderStartTokenID != nil {
		start, hasStart = *raw.DecoderStartTokenID, true
	}
	if gen != nil && gen.DecoderStartTokenID != nil {
		start, hasStart = *gen.DecoderStartTokenID, true
	}
	if !hasStart {
		start = pad
	}
	cfg.DecoderStartTokenID = start

	cfg.MaxSourceLength = firstPositive(raw.MaxPositionEmbeddings, 1024)

	cfg.MaxLength = firstPositive(raw.MaxLength, 256)
	if gen != nil && gen.MaxLength > 0 {
		cfg.MaxLength = gen.MaxLength
	}

	cfg.MinLength = raw.MinLength
	if gen != nil && gen.MinLength > 0 {
		cfg.MinLength = gen.MinLength
	}

	return cfg, nil
}

// tokenIDFromJSON reads a token ID stored as a number or as the first
// element of a list.
func tokenIDFromJSON(v any) (int64, bool) {
	switch id := v.(type) {
	case float64:
		return int64(id), true
	case []any:
		if len(id) > 0 {
			if f, ok := id[0].(float64); ok {
				return int64(f), true
			}
		}
	}

	return 0, false
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}

	return 0
}
