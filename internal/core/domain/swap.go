package domain

import "time"

// SwapRequest is the single parameter of the swap RPC method.
type SwapRequest struct {
	Onion  *Onion        `json:"onion" validate:"required"`
	ComSig *ComSignature `json:"comsig" validate:"required"`
}

// SwapStatus is the lifecycle state of a stored swap.
type SwapStatus string

const (
	// SwapPending is a swap accepted and waiting for the next round.
	SwapPending SwapStatus = "pending"
	// SwapInRound is a swap included in a completed round.
	SwapInRound SwapStatus = "in_round"
)

// SwapEntry is a swap accepted by the engine.
type SwapEntry struct {
	Commit    Commitment   `json:"commit"`
	Onion     Onion        `json:"onion"`
	ComSig    ComSignature `json:"comsig"`
	Status    SwapStatus   `json:"status"`
	Round     uint64       `json:"round,omitempty"`
	CreatedAt int64        `json:"created_at"` // Unix milliseconds
}

// NewSwapEntry creates a pending entry for an accepted request.
func NewSwapEntry(onion *Onion, comsig *ComSignature) *SwapEntry {
	return &SwapEntry{
		Commit:    onion.Commit,
		Onion:     *onion,
		ComSig:    *comsig,
		Status:    SwapPending,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// RoundRecord summarises one executed round.
type RoundRecord struct {
	Seq        uint64       `json:"seq"`
	Digest     string       `json:"digest"`
	TipHeight  uint64       `json:"tip_height"`
	Included   []Commitment `json:"included"`
	Dropped    []Commitment `json:"dropped,omitempty"`
	ExecutedAt int64        `json:"executed_at"` // Unix milliseconds
}
