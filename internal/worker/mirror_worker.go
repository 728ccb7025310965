package worker

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"betledger/internal/amqp"
	"betledger/internal/core"
	"betledger/internal/filestore"
	"betledger/internal/ledger"
)

// MirrorWorker keeps flat CSV mirrors of the authoritative bet store,
// one file per owner. It never trusts message payloads for data: every
// message only names the owner whose collection changed, and the worker
// re-reads the store before rewriting that owner's mirror wholesale.
type MirrorWorker struct {
	source ledger.BetLister
	dir    string

	mu      sync.Mutex
	mirrors map[string]*filestore.Store
}

func NewMirrorWorker(source ledger.BetLister, dir string) *MirrorWorker {
	return &MirrorWorker{
		source:  source,
		dir:     dir,
		mirrors: make(map[string]*filestore.Store),
	}
}

// HandleSyncMessage processes one collection-changed message.
func (w *MirrorWorker) HandleSyncMessage(ctx context.Context, msg *amqp.BetSyncMessage) error {
	slog.InfoContext(ctx, "Processing bet sync message",
		"kind", msg.Kind,
		"bet_id", msg.BetID,
		"owner", msg.Owner)
	return w.mirrorOwner(ctx, msg.Owner)
}

// ReconcileAll rewrites every owner's mirror from the store. Run
// periodically to catch messages lost while the worker was down.
func (w *MirrorWorker) ReconcileAll(ctx context.Context) error {
	records, err := w.source.ListByOwner(ctx, "")
	if err != nil {
		return fmt.Errorf("list all bets: %w", err)
	}

	owners := make(map[string]struct{})
	for _, r := range records {
		owners[r.Owner] = struct{}{}
	}
	for owner := range owners {
		if err := w.mirrorOwner(ctx, owner); err != nil {
			return err
		}
	}
	slog.InfoContext(ctx, "Mirror reconciliation complete", "owners", len(owners))
	return nil
}

func (w *MirrorWorker) mirrorOwner(ctx context.Context, owner string) error {
	records, err := w.source.ListByOwner(ctx, owner)
	if err != nil {
		return fmt.Errorf("list bets for owner %q: %w", owner, err)
	}
	core.SortByDate(records)

	mirror, err := w.mirrorFor(owner)
	if err != nil {
		return err
	}
	if err := mirror.ReplaceAll(ctx, "", records); err != nil {
		return fmt.Errorf("rewrite mirror for owner %q: %w", owner, err)
	}

	slog.InfoContext(ctx, "Mirror rewritten", "owner", owner, "records", len(records))
	return nil
}

func (w *MirrorWorker) mirrorFor(owner string) (*filestore.Store, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.mirrors[owner]; ok {
		return s, nil
	}

	name := "ledger.csv"
	if owner != "" {
		name = owner + ".csv"
	}
	s, err := filestore.Open(filepath.Join(w.dir, name))
	if err != nil {
		return nil, fmt.Errorf("open mirror for owner %q: %w", owner, err)
	}
	w.mirrors[owner] = s
	return s, nil
}
