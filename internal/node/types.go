package node

import (
	"encoding/json"
	"fmt"
)

// Output is one entry of the node's UTXO set.
type Output struct {
	OutputType  string `json:"output_type"`
	Commit      string `json:"commit"`
	Spent       bool   `json:"spent"`
	BlockHeight uint64 `json:"block_height"`
	MMRIndex    uint64 `json:"mmr_index"`
}

// Tip is the node's current chain head.
type Tip struct {
	Height          uint64 `json:"height"`
	LastBlockPushed string `json:"last_block_pushed"`
	PrevBlockToLast string `json:"prev_block_to_last"`
	TotalDifficulty uint64 `json:"total_difficulty"`
}

// envelope is the Ok/Err wrapper around every foreign API result.
type envelope struct {
	Ok  json.RawMessage `json:"Ok"`
	Err json.RawMessage `json:"Err"`
}

// APIError is returned when the node answers with an Err result.
type APIError struct {
	Method string
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("node %s: %s", e.Method, e.Detail)
}

func (e envelope) decode(method string, v any) error {
	if len(e.Err) > 0 && string(e.Err) != "null" {
		return &APIError{Method: method, Detail: string(e.Err)}
	}
	if len(e.Ok) == 0 {
		return fmt.Errorf("node %s: empty result", method)
	}
	if err := json.Unmarshal(e.Ok, v); err != nil {
		return fmt.Errorf("node %s: decode result: %w", method, err)
	}
	return nil
}
