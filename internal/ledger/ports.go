package ledger

import (
	"context"

	"betledger/internal/core"
)

// Ports for outbound bet-store adapters. Stores assign IDs; they never
// mutate a record in place, only insert, delete, or replace wholesale.
type (
	BetWriter interface {
		// Insert persists the record, assigning its ID, and returns the
		// stored form including the derived profit.
		Insert(ctx context.Context, rec core.BetRecord) (core.BetRecord, error)
	}

	BetLister interface {
		// ListByOwner returns every record for the owner, in no
		// particular order. Owner "" means all records (single-user
		// mode). An empty result is not an error.
		ListByOwner(ctx context.Context, owner string) ([]core.BetRecord, error)
	}

	BetDeleter interface {
		// DeleteByID removes exactly one record. Deleting an id that
		// does not exist (or belongs to another owner) is a benign
		// no-op.
		DeleteByID(ctx context.Context, owner, id string) error
	}

	BetReplacer interface {
		// ReplaceAll atomically replaces the owner's whole collection.
		// On failure the existing collection is left untouched.
		ReplaceAll(ctx context.Context, owner string, records []core.BetRecord) error
	}

	// BetStore is the full record-store contract.
	BetStore interface {
		BetWriter
		BetLister
		BetDeleter
		BetReplacer
	}
)
