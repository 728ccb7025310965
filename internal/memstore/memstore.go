// Package memstore is an in-memory bet store used for tests and as the
// default backend when no persistence is configured.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"betledger/internal/core"
)

type Store struct {
	mu      sync.Mutex
	records []core.BetRecord
}

func New() *Store {
	return &Store{}
}

// Insert stores the record and assigns its identifier.
func (s *Store) Insert(_ context.Context, rec core.BetRecord) (core.BetRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.BetRecord{}, err
	}
	rec.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return rec, nil
}

// ListByOwner returns a copy of the owner's records. Owner "" lists all.
func (s *Store) ListByOwner(_ context.Context, owner string) ([]core.BetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.BetRecord, 0, len(s.records))
	for _, r := range s.records {
		if owner == "" || r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

// DeleteByID removes the record with the given id. Unknown ids are a
// no-op.
func (s *Store) DeleteByID(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID != id {
			continue
		}
		if owner != "" && r.Owner != owner {
			continue
		}
		s.records = append(s.records[:i], s.records[i+1:]...)
		return nil
	}
	return nil
}

// ReplaceAll swaps the owner's whole collection. Every incoming record is
// validated before anything is replaced.
func (s *Store) ReplaceAll(_ context.Context, owner string, records []core.BetRecord) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	incoming := make([]core.BetRecord, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.Owner = owner
		incoming = append(incoming, r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if owner == "" {
		s.records = incoming
		return nil
	}
	kept := make([]core.BetRecord, 0, len(s.records))
	for _, r := range s.records {
		if r.Owner != owner {
			kept = append(kept, r)
		}
	}
	s.records = append(kept, incoming...)
	return nil
}
