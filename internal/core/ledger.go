package core

import (
	"sort"
	"time"
)

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

type (
	// Granularity is the calendar resolution used to bucket profit.
	Granularity string

	// ProfitBucket is the summed profit of all records whose date falls
	// inside one calendar window.
	ProfitBucket struct {
		Start  Date
		Label  string
		Profit Money
	}
)

func (g Granularity) Validate() error {
	switch g {
	case Daily, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidGranularity
	}
}

// bucketStart truncates a date to the start of its calendar window.
func (g Granularity) bucketStart(d Date) Date {
	switch g {
	case Yearly:
		return NewDate(d.Year(), 1, 1)
	case Monthly:
		return NewDate(d.Year(), d.Month(), 1)
	default:
		return d.Truncate()
	}
}

// label renders a bucket start the way the dashboard shows it:
// "2024-01-05" for days, "January 2024" for months, "2024" for years.
func (g Granularity) label(start Date) string {
	switch g {
	case Yearly:
		return start.Format("2006")
	case Monthly:
		return start.Format("January 2006")
	default:
		return start.Format("2006-01-02")
	}
}

// BucketProfit groups records by the calendar bucket of their date and
// sums profit per bucket. Only buckets present in the input appear in the
// output (gaps are never zero-filled), ordered ascending by bucket start.
func BucketProfit(records []BetRecord, g Granularity) []ProfitBucket {
	sums := make(map[time.Time]Money)
	for _, r := range records {
		start := g.bucketStart(r.Date)
		sums[start.Time] = sums[start.Time].Add(r.Profit)
	}

	buckets := make([]ProfitBucket, 0, len(sums))
	for start, profit := range sums {
		d := Date{Time: start}
		buckets = append(buckets, ProfitBucket{
			Start:  d,
			Label:  g.label(d),
			Profit: profit,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start.Time)
	})
	return buckets
}

// TotalProfit sums profit over the full collection. It equals the sum of
// any complete bucketing of the same records at any granularity.
func TotalProfit(records []BetRecord) Money {
	var total Money
	for _, r := range records {
		total = total.Add(r.Profit)
	}
	return total
}

// FilterByMonth restricts records to those whose date falls within the
// given calendar month, inclusive of both ends.
func FilterByMonth(records []BetRecord, year, month int) []BetRecord {
	out := make([]BetRecord, 0)
	for _, r := range records {
		if r.Date.Year() == year && r.Date.Month() == month {
			out = append(out, r)
		}
	}
	return out
}

// SortByDate orders records ascending by date, in place. Stores return
// records in no particular order; callers sort when rendering.
func SortByDate(records []BetRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date.Time)
	})
}
