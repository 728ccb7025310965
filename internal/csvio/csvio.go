// Package csvio reads and writes the ledger's tabular file format:
//
//	date,sport,amount_invested,num_picks,win_or_lose,amount_paid,profit
//
// Any table containing at least the required columns can be imported;
// the sport column is optional and defaulted when absent. A missing
// required column or a malformed row aborts the whole import, so a
// caller never sees a partially parsed collection.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"betledger/internal/core"
)

// ErrValidation marks an import rejected before any record was produced.
var ErrValidation = errors.New("invalid import table")

const dateLayout = "2006-01-02"

// Header is the canonical column order used on export.
var Header = []string{"date", "sport", "amount_invested", "num_picks", "win_or_lose", "amount_paid", "profit"}

// RequiredColumns must all be present for an import to proceed.
var RequiredColumns = []string{"date", "amount_invested", "num_picks", "win_or_lose", "amount_paid", "profit"}

// Read parses a full table into bet records. Column order is free; the
// header row decides the mapping. Owner and ID are left empty for the
// store to fill.
func Read(r io.Reader) ([]core.BetRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrValidation, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range RequiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing required column %q", ErrValidation, required)
		}
	}

	records := make([]core.BetRecord, 0)
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrValidation, line, err)
		}
		rec, err := parseRow(cols, row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrValidation, line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Write serializes the collection in the canonical format.
func Write(w io.Writer, records []core.BetRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Date.Format(dateLayout),
			rec.Sport,
			rec.Invested.String(),
			strconv.Itoa(rec.NumPicks),
			string(rec.Outcome),
			rec.Paid.String(),
			rec.Profit.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func parseRow(cols map[string]int, row []string) (core.BetRecord, error) {
	field := func(name string) (string, error) {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return "", fmt.Errorf("missing value for %q", name)
		}
		return strings.TrimSpace(row[idx]), nil
	}

	dateStr, err := field("date")
	if err != nil {
		return core.BetRecord{}, err
	}
	t, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.BetRecord{}, fmt.Errorf("bad date %q", dateStr)
	}

	sport := ""
	if idx, ok := cols["sport"]; ok && idx < len(row) {
		sport = strings.TrimSpace(row[idx])
	}

	investedStr, err := field("amount_invested")
	if err != nil {
		return core.BetRecord{}, err
	}
	invested, err := core.ParseMoney(investedStr)
	if err != nil {
		return core.BetRecord{}, fmt.Errorf("bad amount_invested %q", investedStr)
	}

	picksStr, err := field("num_picks")
	if err != nil {
		return core.BetRecord{}, err
	}
	picks, err := strconv.Atoi(picksStr)
	if err != nil || picks < 1 {
		return core.BetRecord{}, fmt.Errorf("bad num_picks %q", picksStr)
	}

	outcomeStr, err := field("win_or_lose")
	if err != nil {
		return core.BetRecord{}, err
	}
	outcome, err := parseOutcome(outcomeStr)
	if err != nil {
		return core.BetRecord{}, err
	}

	paidStr, err := field("amount_paid")
	if err != nil {
		return core.BetRecord{}, err
	}
	paid, err := core.ParseMoney(paidStr)
	if err != nil {
		return core.BetRecord{}, fmt.Errorf("bad amount_paid %q", paidStr)
	}

	rec, err := core.NewBetRecord(core.Date{Time: t}, sport, invested, picks, outcome, paid)
	if err != nil {
		return core.BetRecord{}, err
	}

	// The profit column is redundant by construction. A value that
	// disagrees with paid - invested means the table was edited by hand
	// and cannot be trusted.
	profitStr, err := field("profit")
	if err != nil {
		return core.BetRecord{}, err
	}
	profit, err := parseSignedMoney(profitStr)
	if err != nil {
		return core.BetRecord{}, fmt.Errorf("bad profit %q", profitStr)
	}
	if profit != rec.Profit {
		return core.BetRecord{}, fmt.Errorf("profit %s does not equal paid minus invested (%s)", profit, rec.Profit)
	}

	return rec, nil
}

func parseOutcome(s string) (core.Outcome, error) {
	switch strings.ToLower(s) {
	case "win":
		return core.Win, nil
	case "lose":
		return core.Lose, nil
	default:
		return "", fmt.Errorf("bad win_or_lose %q", s)
	}
}

// parseSignedMoney accepts the negative amounts a profit column can hold.
func parseSignedMoney(s string) (core.Money, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, err
	}
	if neg {
		m.Cents = -m.Cents
	}
	return m, nil
}
