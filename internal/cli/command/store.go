package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mixrelay-go/internal/cli/output"
	"github.com/yndnr/mixrelay-go/internal/core/domain"
	"github.com/yndnr/mixrelay-go/internal/storage"
)

// StoreCommand returns the store subcommand group. The relay must not be
// running: the store directory is locked by its owner.
func StoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Inspect the swap store of a stopped relay",
		Subcommands: []*cli.Command{
			{
				Name:   "rounds",
				Usage:  "List executed rounds",
				Action: storeRounds,
			},
			{
				Name:   "pending",
				Usage:  "List swaps waiting for the next round",
				Action: storePending,
			},
			{
				Name:   "gc",
				Usage:  "Run value log garbage collection",
				Action: storeGC,
			},
		},
	}
}

// roundView is one executed round as displayed.
type roundView struct {
	Seq        uint64   `json:"seq" yaml:"seq"`
	ExecutedAt string   `json:"executed_at" yaml:"executed_at"`
	TipHeight  uint64   `json:"tip_height" yaml:"tip_height"`
	Digest     string   `json:"digest" yaml:"digest"`
	Included   []string `json:"included" yaml:"included"`
	Dropped    []string `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

type roundList []roundView

// Table implements output.Tabular.
func (l roundList) Table() *output.Table {
	t := &output.Table{Headers: []string{"SEQ", "EXECUTED_AT", "TIP_HEIGHT", "INCLUDED", "DROPPED", "DIGEST"}}
	for _, r := range l {
		t.AddRow(
			strconv.FormatUint(r.Seq, 10),
			r.ExecutedAt,
			strconv.FormatUint(r.TipHeight, 10),
			strconv.Itoa(len(r.Included)),
			strconv.Itoa(len(r.Dropped)),
			shortHex(r.Digest),
		)
	}
	return t
}

// pendingView is one pending swap as displayed.
type pendingView struct {
	Commit    string `json:"commit" yaml:"commit"`
	Hops      int    `json:"hops" yaml:"hops"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

type pendingList []pendingView

// Table implements output.Tabular.
func (l pendingList) Table() *output.Table {
	t := &output.Table{Headers: []string{"COMMIT", "HOPS", "CREATED_AT"}}
	for _, p := range l {
		t.AddRow(p.Commit, strconv.Itoa(p.Hops), p.CreatedAt)
	}
	return t
}

func storeRounds(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store *storage.SwapStore, f output.Formatter) error {
		rounds, err := store.Rounds(ctx)
		if err != nil {
			return err
		}
		view := make(roundList, 0, len(rounds))
		for _, r := range rounds {
			view = append(view, roundView{
				Seq:        r.Seq,
				ExecutedAt: formatMillis(r.ExecutedAt),
				TipHeight:  r.TipHeight,
				Digest:     r.Digest,
				Included:   commitStrings(r.Included),
				Dropped:    commitStrings(r.Dropped),
			})
		}
		return f.Format(c.App.Writer, view)
	})
}

func storePending(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store *storage.SwapStore, f output.Formatter) error {
		pending, err := store.PendingSwaps(ctx)
		if err != nil {
			return err
		}
		view := make(pendingList, 0, len(pending))
		for _, p := range pending {
			view = append(view, pendingView{
				Commit:    p.Commit.String(),
				Hops:      len(p.Onion.EncPayloads),
				CreatedAt: formatMillis(p.CreatedAt),
			})
		}
		return f.Format(c.App.Writer, view)
	})
}

func storeGC(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store *storage.SwapStore, _ output.Formatter) error {
		n, err := store.GC(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(c.App.Writer, "rewrote %d value log file(s)\n", n)
		return err
	})
}

// withStore opens the configured store quietly, runs fn and closes it.
func withStore(c *cli.Context, fn func(ctx context.Context, store *storage.SwapStore, f output.Formatter) error) error {
	f, err := formatter(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
	}

	storeCfg := storage.DefaultConfig(cfg.Storage.DataDir)
	storeCfg.GCInterval = time.Hour
	store, err := storage.Open(storeCfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return cli.Exit(fmt.Sprintf("open store: %v", err), 1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(c.Context, 5*time.Minute)
	defer cancel()
	return fn(ctx, store, f)
}

func commitStrings(commits []domain.Commitment) []string {
	if len(commits) == 0 {
		return nil
	}
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.String()
	}
	return out
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func shortHex(s string) string {
	if len(s) > 16 {
		return s[:16]
	}
	return s
}
