package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"betledger/internal/amqp"
	"betledger/internal/core"
	"betledger/internal/csvio"
	"betledger/internal/ledger"
)

// SyncPublisher announces collection changes to the mirror worker.
type SyncPublisher interface {
	PublishBetSync(ctx context.Context, kind, betID, owner string) error
}

// LedgerService maps user actions onto the record store. Each method is
// one command: it runs synchronously against the store and the caller
// re-renders from a fresh read afterwards. Mirror publishes are
// best-effort; the authoritative store has already been updated.
type LedgerService struct {
	store     ledger.BetStore
	publisher SyncPublisher
	closer    io.Closer
}

func NewLedgerService(store ledger.BetStore, publisher SyncPublisher) *LedgerService {
	svc := &LedgerService{store: store, publisher: publisher}
	if c, ok := store.(io.Closer); ok {
		svc.closer = c
	}
	return svc
}

// AddBet persists a new record for the owner and returns the stored form.
func (s *LedgerService) AddBet(ctx context.Context, owner string, rec core.BetRecord) (core.BetRecord, error) {
	rec.Owner = owner
	stored, err := s.store.Insert(ctx, rec)
	if err != nil {
		return core.BetRecord{}, fmt.Errorf("save bet: %w", err)
	}
	s.publish(ctx, amqp.KindInsert, stored.ID, owner)
	return stored, nil
}

// DeleteBet removes one record. Unknown ids are a no-op at the store.
func (s *LedgerService) DeleteBet(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteByID(ctx, owner, id); err != nil {
		return fmt.Errorf("delete bet: %w", err)
	}
	s.publish(ctx, amqp.KindDelete, id, owner)
	return nil
}

// Records returns the owner's full collection.
func (s *LedgerService) Records(ctx context.Context, owner string) ([]core.BetRecord, error) {
	records, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	return records, nil
}

// ImportTable replaces the owner's whole collection from a tabular file.
// The table is parsed and validated in full before the store is touched,
// so a bad import leaves existing data unchanged.
func (s *LedgerService) ImportTable(ctx context.Context, owner string, r io.Reader) (int, error) {
	records, err := csvio.Read(r)
	if err != nil {
		return 0, err
	}
	if err := s.store.ReplaceAll(ctx, owner, records); err != nil {
		return 0, fmt.Errorf("replace collection: %w", err)
	}
	s.publish(ctx, amqp.KindInsert, "", owner)
	return len(records), nil
}

// ExportTable writes the owner's collection in the canonical CSV format.
func (s *LedgerService) ExportTable(ctx context.Context, owner string, w io.Writer) error {
	records, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return fmt.Errorf("list bets: %w", err)
	}
	core.SortByDate(records)
	if err := csvio.Write(w, records); err != nil {
		return fmt.Errorf("export collection: %w", err)
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, kind, betID, owner string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBetSync(ctx, kind, betID, owner); err != nil {
		// Mirror sync is best-effort; the triggering action already
		// succeeded against the authoritative store.
		slog.ErrorContext(ctx, "Failed to publish bet sync message",
			"kind", kind, "bet_id", betID, "owner", owner, "error", err)
	}
}

// Ready reports whether the backing store is reachable. Stores without a
// liveness check (memory, file) are always ready.
func (s *LedgerService) Ready(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the underlying store when it holds resources.
func (s *LedgerService) Close() error {
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}
