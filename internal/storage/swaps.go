package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/mixrelay-go/internal/core/domain"
)

var (
	swapPrefix      = []byte("swap/")
	pendingPrefix   = []byte("pending/")
	roundPrefix     = []byte("round/")
	lastRoundKey    = []byte("meta/last_round")
	pendingIndexKey = []byte("meta/pending_index")
)

func swapKey(c domain.Commitment) []byte {
	return append(append([]byte{}, swapPrefix...), c.String()...)
}

func pendingKey(c domain.Commitment) []byte {
	return append(append([]byte{}, pendingPrefix...), c.String()...)
}

func roundKey(seq uint64) []byte {
	key := make([]byte, len(roundPrefix)+8)
	copy(key, roundPrefix)
	binary.BigEndian.PutUint64(key[len(roundPrefix):], seq)
	return key
}

// SaveSwap stores a new pending swap.
// Returns domain.AlreadySwapped if the commitment is already stored.
func (s *SwapStore) SaveSwap(ctx context.Context, entry *domain.SwapEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode swap: %w", err)
	}

	key := swapKey(entry.Commit)
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return domain.AlreadySwapped(entry.Commit)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(pendingKey(entry.Commit), nil)
	})
	if errors.Is(err, badger.ErrConflict) {
		return domain.AlreadySwapped(entry.Commit)
	}
	return err
}

// GetSwap returns the stored swap for commit, or ErrNotFound.
func (s *SwapStore) GetSwap(ctx context.Context, commit domain.Commitment) (*domain.SwapEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry domain.SwapEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(swapKey(commit))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// PendingSwaps returns all swaps not yet included in a round, oldest first.
func (s *SwapStore) PendingSwaps(ctx context.Context) ([]*domain.SwapEntry, error) {
	var pending []*domain.SwapEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = pendingPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			commit := it.Item().Key()[len(pendingPrefix):]
			item, err := txn.Get(append(append([]byte{}, swapPrefix...), commit...))
			if err != nil {
				return fmt.Errorf("pending swap %s: %w", commit, err)
			}
			var entry domain.SwapEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("decode swap: %w", err)
			}
			pending = append(pending, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt < pending[j].CreatedAt
	})
	return pending, nil
}

// PendingCount returns the number of swaps waiting for a round. Only index
// keys are read.
func (s *SwapStore) PendingCount(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = pendingPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// buildPendingIndex writes pending/ keys for stores created before the
// index existed. It runs once per store.
func (s *SwapStore) buildPendingIndex(ctx context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(pendingIndexKey); err == nil {
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = swapPrefix
		it := txn.NewIterator(opts)
		var commits [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				it.Close()
				return err
			}
			var entry domain.SwapEntry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				it.Close()
				return fmt.Errorf("decode swap: %w", err)
			}
			if entry.Status == domain.SwapPending {
				commits = append(commits, pendingKey(entry.Commit))
			}
		}
		it.Close()

		for _, key := range commits {
			if err := txn.Set(key, nil); err != nil {
				return err
			}
		}
		return txn.Set(pendingIndexKey, []byte{1})
	})
}

// CompleteRound records rec, marks its included swaps as in_round and
// deletes the dropped ones, all in one transaction. rec.Seq is assigned here.
func (s *SwapStore) CompleteRound(ctx context.Context, rec *domain.RoundRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var seq uint64
	err := s.db.Update(func(txn *badger.Txn) error {
		last, err := lastRound(txn)
		if err != nil {
			return err
		}
		seq = last + 1

		for _, c := range rec.Included {
			item, err := txn.Get(swapKey(c))
			if err != nil {
				return fmt.Errorf("included swap %s: %w", c, err)
			}
			var entry domain.SwapEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("decode swap %s: %w", c, err)
			}
			entry.Status = domain.SwapInRound
			entry.Round = seq
			data, err := json.Marshal(&entry)
			if err != nil {
				return err
			}
			if err := txn.Set(swapKey(c), data); err != nil {
				return err
			}
			if err := txn.Delete(pendingKey(c)); err != nil {
				return err
			}
		}

		for _, c := range rec.Dropped {
			if err := txn.Delete(swapKey(c)); err != nil {
				return err
			}
			if err := txn.Delete(pendingKey(c)); err != nil {
				return err
			}
		}

		stored := *rec
		stored.Seq = seq
		data, err := json.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("encode round: %w", err)
		}
		if err := txn.Set(roundKey(seq), data); err != nil {
			return err
		}

		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], seq)
		return txn.Set(lastRoundKey, buf[:])
	})
	if err != nil {
		return err
	}

	rec.Seq = seq
	return nil
}

// Rounds returns every recorded round in sequence order.
func (s *SwapStore) Rounds(ctx context.Context) ([]*domain.RoundRecord, error) {
	var rounds []*domain.RoundRecord
	err := s.scan(ctx, roundPrefix, func(val []byte) error {
		var rec domain.RoundRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return fmt.Errorf("decode round: %w", err)
		}
		rounds = append(rounds, &rec)
		return nil
	})
	return rounds, err
}

func (s *SwapStore) scan(ctx context.Context, prefix []byte, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

func lastRound(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(lastRoundKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var seq uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt round counter: %d bytes", len(val))
		}
		seq = binary.BigEndian.Uint64(val)
		return nil
	})
	return seq, err
}
