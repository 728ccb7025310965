// Package filestore persists the ledger in a single flat CSV file, the
// single-user variant of the record store. The whole file is rewritten
// on every mutation, so the file on disk is always a complete, valid
// table.
package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"betledger/internal/core"
	"betledger/internal/csvio"
)

type Store struct {
	mu      sync.Mutex
	path    string
	records []core.BetRecord
}

// Open loads the ledger file, creating an empty store when the file does
// not exist yet. Any other read failure is fatal to startup.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	records, err := csvio.Read(f)
	if err != nil {
		return nil, fmt.Errorf("load ledger file %s: %w", path, err)
	}
	for i := range records {
		records[i].ID = uuid.NewString()
	}
	s.records = records
	slog.Info("Loaded ledger file", "path", path, "records", len(records))
	return s, nil
}

// Insert appends the record and rewrites the file.
func (s *Store) Insert(_ context.Context, rec core.BetRecord) (core.BetRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.BetRecord{}, err
	}
	rec.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	next := append(append([]core.BetRecord(nil), s.records...), rec)
	if err := s.flush(next); err != nil {
		return core.BetRecord{}, err
	}
	s.records = next
	return rec, nil
}

// ListByOwner returns a copy of the collection. The file format carries
// no owner column, so the owner argument only matters for API symmetry
// with the multi-user stores.
func (s *Store) ListByOwner(_ context.Context, _ string) ([]core.BetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.BetRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// DeleteByID removes the record and rewrites the file. Unknown ids are a
// no-op.
func (s *Store) DeleteByID(_ context.Context, _ string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID != id {
			continue
		}
		next := append(append([]core.BetRecord(nil), s.records[:i]...), s.records[i+1:]...)
		if err := s.flush(next); err != nil {
			return err
		}
		s.records = next
		return nil
	}
	return nil
}

// ReplaceAll swaps the whole collection after validating every record.
func (s *Store) ReplaceAll(_ context.Context, _ string, records []core.BetRecord) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	next := make([]core.BetRecord, len(records))
	copy(next, records)
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = uuid.NewString()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flush(next); err != nil {
		return err
	}
	s.records = next
	return nil
}

// flush writes the table to a temp file in the same directory and
// renames it over the ledger file, so a crash mid-write cannot leave a
// truncated table behind.
func (s *Store) flush(records []core.BetRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "ledger-*.csv")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	if err := csvio.Write(tmp, records); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp ledger file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}
