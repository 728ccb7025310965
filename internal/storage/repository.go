package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"betledger/internal/core"
)

const dateLayout = "2006-01-02"

// SQLiteRepository is the durable bet and user store. It implements
// ledger.BetStore and auth.UserStore.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Connectivity is checked once here; a failure is fatal to startup.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the backing database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert implements ledger.BetWriter.
func (r *SQLiteRepository) Insert(ctx context.Context, rec core.BetRecord) (core.BetRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.BetRecord{}, err
	}
	rec.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bets (id, owner, bet_date, sport, amount_invested_cents, num_picks, outcome, amount_paid_cents, profit_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Owner, rec.Date.Format(dateLayout), rec.Sport,
		rec.Invested.Cents, rec.NumPicks, string(rec.Outcome),
		rec.Paid.Cents, rec.Profit.Cents,
	)
	if err != nil {
		return core.BetRecord{}, fmt.Errorf("insert bet: %w", err)
	}

	slog.InfoContext(ctx, "Bet saved to SQLite",
		"id", rec.ID,
		"owner", rec.Owner,
		"date", rec.Date.Format(dateLayout),
		"profit_cents", rec.Profit.Cents)

	return rec, nil
}

// ListByOwner implements ledger.BetLister. Owner "" lists all records.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner string) ([]core.BetRecord, error) {
	query := `
		SELECT id, owner, bet_date, sport, amount_invested_cents, num_picks, outcome, amount_paid_cents, profit_cents
		FROM bets`
	args := []any{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	records := make([]core.BetRecord, 0)
	for rows.Next() {
		rec, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bets: %w", err)
	}
	return records, nil
}

// DeleteByID implements ledger.BetDeleter. Deleting an unknown id is a
// benign no-op.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, owner, id string) error {
	query := `DELETE FROM bets WHERE id = ?`
	args := []any{id}
	if owner != "" {
		query += ` AND owner = ?`
		args = append(args, owner)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete bet: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.DebugContext(ctx, "Delete of unknown bet id ignored", "id", id, "owner", owner)
	}
	return nil
}

// ReplaceAll implements ledger.BetReplacer. The swap runs in a single
// transaction; nothing is written until every record has validated.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, owner string, records []core.BetRecord) error {
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace transaction: %w", err)
	}
	defer tx.Rollback()

	delQuery := `DELETE FROM bets`
	delArgs := []any{}
	if owner != "" {
		delQuery += ` WHERE owner = ?`
		delArgs = append(delArgs, owner)
	}
	if _, err := tx.ExecContext(ctx, delQuery, delArgs...); err != nil {
		return fmt.Errorf("clear existing bets: %w", err)
	}

	for _, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bets (id, owner, bet_date, sport, amount_invested_cents, num_picks, outcome, amount_paid_cents, profit_cents)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, owner, rec.Date.Format(dateLayout), rec.Sport,
			rec.Invested.Cents, rec.NumPicks, string(rec.Outcome),
			rec.Paid.Cents, rec.Profit.Cents,
		)
		if err != nil {
			return fmt.Errorf("insert replacement bet: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace transaction: %w", err)
	}

	slog.InfoContext(ctx, "Bet collection replaced", "owner", owner, "count", len(records))
	return nil
}

// CreateUser stores a username with its password hash. The hash is
// produced by the caller; plaintext never reaches this layer.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User registered", "username", username)
	return nil
}

// GetPasswordHash returns the stored hash for a username, or
// core.ErrNotFound when the user does not exist.
func (r *SQLiteRepository) GetPasswordHash(ctx context.Context, username string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE username = ?`, username,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get password hash: %w", err)
	}
	return hash, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBet(row rowScanner) (core.BetRecord, error) {
	var (
		rec     core.BetRecord
		dateStr string
		outcome string
	)
	err := row.Scan(&rec.ID, &rec.Owner, &dateStr, &rec.Sport,
		&rec.Invested.Cents, &rec.NumPicks, &outcome,
		&rec.Paid.Cents, &rec.Profit.Cents)
	if err != nil {
		return core.BetRecord{}, fmt.Errorf("scan bet: %w", err)
	}
	d, err := parseDate(dateStr)
	if err != nil {
		return core.BetRecord{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	rec.Date = d
	rec.Outcome = core.Outcome(outcome)
	return rec, nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t}, nil
}
