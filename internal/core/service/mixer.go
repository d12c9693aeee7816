package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/yndnr/mixrelay-go/internal/core/domain"
	"github.com/yndnr/mixrelay-go/internal/telemetry/logger"
)

// MaxOnionPayloads is the largest number of hops an onion may carry.
const MaxOnionPayloads = 16

// LedgerNode is the view of the ledger node the mixer needs.
type LedgerNode interface {
	// IsUnspent reports whether commit is an output in the current UTXO set.
	IsUnspent(ctx context.Context, commit domain.Commitment) (bool, error)

	// TipHeight returns the height of the node's chain tip.
	TipHeight(ctx context.Context) (uint64, error)
}

// SwapRepository defines the storage interface for swap operations.
type SwapRepository interface {
	// SaveSwap stores a new pending swap.
	// Returns domain.AlreadySwapped if the commitment is already stored.
	SaveSwap(ctx context.Context, entry *domain.SwapEntry) error

	// PendingSwaps returns all swaps not yet included in a round.
	PendingSwaps(ctx context.Context) ([]*domain.SwapEntry, error)

	// CompleteRound atomically records a round, marks its included swaps
	// and removes dropped ones. The record's Seq is assigned by the store.
	CompleteRound(ctx context.Context, rec *domain.RoundRecord) error
}

// Mixer is the reference Engine. It checks the structure of each request,
// confirms the output is unspent, queues it, and at each round re-checks
// the queue against the ledger and records the surviving set.
//
// Proof verification and transaction building are not performed.
type Mixer struct {
	node  LedgerNode
	store SwapRepository
	log   logger.Logger
}

// NewMixer creates a new Mixer.
func NewMixer(node LedgerNode, store SwapRepository, log logger.Logger) *Mixer {
	if log == nil {
		log = logger.Default()
	}
	return &Mixer{
		node:  node,
		store: store,
		log:   log.With("component", "mixer"),
	}
}

// Swap implements Engine.
func (m *Mixer) Swap(ctx context.Context, onion *domain.Onion, comsig *domain.ComSignature) error {
	if onion == nil || comsig == nil {
		return domain.UnknownError("swap called without onion or signature")
	}
	if n := len(onion.EncPayloads); n == 0 || n > MaxOnionPayloads {
		return domain.ErrInvalidPayloadLength
	}

	unspent, err := m.node.IsUnspent(ctx, onion.Commit)
	if err != nil {
		return domain.NodeError(err)
	}
	if !unspent {
		return domain.CoinNotFound(onion.Commit)
	}

	if err := m.store.SaveSwap(ctx, domain.NewSwapEntry(onion, comsig)); err != nil {
		if domain.IsSwapError(err, "") {
			return err
		}
		return domain.StoreError(err)
	}

	m.log.Debug("swap accepted", "commit", onion.Commit.String(), "hops", len(onion.EncPayloads))
	return nil
}

// ExecuteRound implements Engine.
func (m *Mixer) ExecuteRound(ctx context.Context) error {
	start := time.Now()

	pending, err := m.store.PendingSwaps(ctx)
	if err != nil {
		return domain.StoreError(err)
	}
	if len(pending) == 0 {
		m.log.Debug("round skipped, no pending swaps")
		return nil
	}

	var included, dropped []domain.Commitment
	for _, entry := range pending {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("round interrupted: %w", err)
		}
		unspent, err := m.node.IsUnspent(ctx, entry.Commit)
		if err != nil {
			return domain.NodeError(err)
		}
		if unspent {
			included = append(included, entry.Commit)
		} else {
			dropped = append(dropped, entry.Commit)
		}
	}

	tip, err := m.node.TipHeight(ctx)
	if err != nil {
		return domain.NodeError(err)
	}

	rec := &domain.RoundRecord{
		Digest:     RoundDigest(included),
		TipHeight:  tip,
		Included:   included,
		Dropped:    dropped,
		ExecutedAt: time.Now().UnixMilli(),
	}
	if err := m.store.CompleteRound(ctx, rec); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		return domain.StoreError(err)
	}

	m.log.Info("round executed",
		"seq", rec.Seq,
		"included", len(included),
		"dropped", len(dropped),
		"tip_height", tip,
		"digest", rec.Digest,
		"elapsed", time.Since(start))
	return nil
}

// RoundDigest returns the blake2b-256 digest of the sorted commitments.
// An empty set hashes to the digest of no input.
func RoundDigest(commits []domain.Commitment) string {
	sorted := make([]domain.Commitment, len(commits))
	copy(sorted, commits)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})

	h, _ := blake2b.New256(nil)
	for _, c := range sorted {
		h.Write(c[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
