package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"betledger/internal/amqp"
	"betledger/internal/core"
	"betledger/internal/memstore"
)

func seed(t *testing.T, store *memstore.Store, owner string, date core.Date, invested, paid int64) {
	t.Helper()
	outcome := core.Win
	if paid == 0 {
		outcome = core.Lose
	}
	rec, err := core.NewBetRecord(date, "nba", core.Money{Cents: invested}, 1, outcome, core.Money{Cents: paid})
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	rec.Owner = owner
	if _, err := store.Insert(context.Background(), rec); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestHandleSyncMessageRewritesMirror(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	seed(t, store, "alice", core.NewDate(2024, 2, 1), 500, 0)
	seed(t, store, "alice", core.NewDate(2024, 1, 5), 1000, 2500)
	seed(t, store, "bob", core.NewDate(2024, 1, 6), 100, 300)

	dir := t.TempDir()
	w := NewMirrorWorker(store, dir)

	if err := w.HandleSyncMessage(ctx, amqp.NewBetSyncMessage(amqp.KindInsert, "x", "alice")); err != nil {
		t.Fatalf("handle: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "alice.csv"))
	if err != nil {
		t.Fatalf("read mirror: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(lines))
	}
	// Mirror rows are date-sorted and carry no bob records.
	if !strings.HasPrefix(lines[1], "2024-01-05") {
		t.Fatalf("mirror not sorted: %v", lines)
	}
	if strings.Contains(string(data), "2024-01-06") {
		t.Fatalf("mirror leaked another owner's records")
	}
}

func TestHandleSyncMessageDeleteShrinksMirror(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	seed(t, store, "alice", core.NewDate(2024, 1, 5), 1000, 2500)
	dir := t.TempDir()
	w := NewMirrorWorker(store, dir)

	if err := w.HandleSyncMessage(ctx, amqp.NewBetSyncMessage(amqp.KindInsert, "x", "alice")); err != nil {
		t.Fatalf("handle insert: %v", err)
	}

	// Delete from the authoritative store, then process the delete message.
	records, _ := store.ListByOwner(ctx, "alice")
	store.DeleteByID(ctx, "alice", records[0].ID)
	if err := w.HandleSyncMessage(ctx, amqp.NewBetSyncMessage(amqp.KindDelete, records[0].ID, "alice")); err != nil {
		t.Fatalf("handle delete: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "alice.csv"))
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected header-only mirror after delete, got %q", string(data))
	}
}

func TestReconcileAll(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	seed(t, store, "alice", core.NewDate(2024, 1, 5), 1000, 2500)
	seed(t, store, "bob", core.NewDate(2024, 1, 6), 100, 0)

	dir := t.TempDir()
	w := NewMirrorWorker(store, dir)
	if err := w.ReconcileAll(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	for _, name := range []string{"alice.csv", "bob.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected mirror %s: %v", name, err)
		}
	}
}
