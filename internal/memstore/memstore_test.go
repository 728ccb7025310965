package memstore

import (
	"context"
	"errors"
	"testing"

	"betledger/internal/core"
)

func record(t *testing.T, owner string, date core.Date, invested, paid int64) core.BetRecord {
	t.Helper()
	outcome := core.Win
	if paid == 0 {
		outcome = core.Lose
	}
	rec, err := core.NewBetRecord(date, "nfl", core.Money{Cents: invested}, 2, outcome, core.Money{Cents: paid})
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	rec.Owner = owner
	return rec
}

func TestInsertAssignsID(t *testing.T) {
	s := New()
	stored, err := s.Insert(context.Background(), record(t, "alice", core.NewDate(2024, 1, 5), 1000, 2500))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if stored.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if stored.Profit.Cents != 1500 {
		t.Fatalf("expected stored profit 1500, got %d", stored.Profit.Cents)
	}
}

func TestInsertRejectsInvalid(t *testing.T) {
	s := New()
	bad := core.BetRecord{Date: core.NewDate(2024, 1, 1), NumPicks: 0, Outcome: core.Win}
	if _, err := s.Insert(context.Background(), bad); !errors.Is(err, core.ErrInvalidPicks) {
		t.Fatalf("expected ErrInvalidPicks, got %v", err)
	}
}

func TestListByOwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Insert(ctx, record(t, "alice", core.NewDate(2024, 1, 5), 100, 200)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Insert(ctx, record(t, "bob", core.NewDate(2024, 1, 6), 100, 0)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	alice, err := s.ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(alice) != 1 || alice[0].Owner != "alice" {
		t.Fatalf("expected 1 alice record, got %d", len(alice))
	}

	all, err := s.ListByOwner(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
}

func TestListEmptyIsNotError(t *testing.T) {
	got, err := New().ListByOwner(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty, got %d", len(got))
	}
}

func TestDeleteByIDRemovesExactlyOne(t *testing.T) {
	ctx := context.Background()
	s := New()
	first, _ := s.Insert(ctx, record(t, "alice", core.NewDate(2024, 1, 5), 100, 200))
	second, _ := s.Insert(ctx, record(t, "alice", core.NewDate(2024, 1, 6), 100, 0))

	if err := s.DeleteByID(ctx, "alice", first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	left, _ := s.ListByOwner(ctx, "alice")
	if len(left) != 1 || left[0].ID != second.ID {
		t.Fatalf("expected only second record to remain")
	}
	// The survivor is unchanged.
	if left[0] != second {
		t.Fatalf("surviving record was altered: %+v vs %+v", left[0], second)
	}
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := New()
	stored, _ := s.Insert(ctx, record(t, "alice", core.NewDate(2024, 1, 5), 100, 200))

	if err := s.DeleteByID(ctx, "alice", "no-such-id"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	// Deleting someone else's record is also a no-op.
	if err := s.DeleteByID(ctx, "bob", stored.ID); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	left, _ := s.ListByOwner(ctx, "alice")
	if len(left) != 1 {
		t.Fatalf("collection altered by no-op delete")
	}
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Insert(ctx, record(t, "alice", core.NewDate(2024, 1, 5), 100, 200))
	s.Insert(ctx, record(t, "bob", core.NewDate(2024, 1, 6), 100, 0))

	replacement := []core.BetRecord{
		record(t, "alice", core.NewDate(2024, 3, 1), 500, 0),
		record(t, "alice", core.NewDate(2024, 3, 2), 500, 900),
	}
	if err := s.ReplaceAll(ctx, "alice", replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}

	alice, _ := s.ListByOwner(ctx, "alice")
	if len(alice) != 2 {
		t.Fatalf("expected 2 alice records, got %d", len(alice))
	}
	for _, r := range alice {
		if r.ID == "" {
			t.Fatalf("replacement record missing id")
		}
	}
	bob, _ := s.ListByOwner(ctx, "bob")
	if len(bob) != 1 {
		t.Fatalf("other owner's records must survive a replace")
	}
}

func TestReplaceAllValidatesBeforeWriting(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Insert(ctx, record(t, "alice", core.NewDate(2024, 1, 5), 100, 200))

	bad := []core.BetRecord{
		record(t, "alice", core.NewDate(2024, 3, 1), 500, 900),
		{Date: core.NewDate(2024, 3, 2), NumPicks: 0, Outcome: core.Win},
	}
	if err := s.ReplaceAll(ctx, "alice", bad); err == nil {
		t.Fatalf("expected validation error")
	}
	left, _ := s.ListByOwner(ctx, "alice")
	if len(left) != 1 {
		t.Fatalf("failed replace must leave existing data untouched, got %d records", len(left))
	}
}
