package core

import "testing"

func mustRecord(t *testing.T, date Date, invested, paid int64) BetRecord {
	t.Helper()
	outcome := Win
	if paid == 0 {
		outcome = Lose
	}
	rec, err := NewBetRecord(date, "nba", Money{Cents: invested}, 1, outcome, Money{Cents: paid})
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return rec
}

func TestBucketProfitMonthly(t *testing.T) {
	// invested 10 paid 25 -> +15; invested 20 paid 0 -> -20; invested 5 paid 5 -> 0
	records := []BetRecord{
		mustRecord(t, NewDate(2024, 1, 5), 1000, 2500),
		mustRecord(t, NewDate(2024, 1, 20), 2000, 0),
		mustRecord(t, NewDate(2024, 2, 1), 500, 500),
	}

	buckets := BucketProfit(records, Monthly)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Label != "January 2024" || buckets[0].Profit.Cents != -500 {
		t.Fatalf("expected (January 2024, -500), got (%s, %d)", buckets[0].Label, buckets[0].Profit.Cents)
	}
	if buckets[1].Label != "February 2024" || buckets[1].Profit.Cents != 0 {
		t.Fatalf("expected (February 2024, 0), got (%s, %d)", buckets[1].Label, buckets[1].Profit.Cents)
	}
	if TotalProfit(records).Cents != -500 {
		t.Fatalf("expected total -500, got %d", TotalProfit(records).Cents)
	}
}

func TestBucketProfitChronologicalOrder(t *testing.T) {
	records := []BetRecord{
		mustRecord(t, NewDate(2024, 3, 10), 100, 0),
		mustRecord(t, NewDate(2023, 11, 2), 100, 300),
		mustRecord(t, NewDate(2024, 1, 1), 100, 150),
	}
	buckets := BucketProfit(records, Monthly)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	for i := 1; i < len(buckets); i++ {
		if !buckets[i-1].Start.Before(buckets[i].Start.Time) {
			t.Fatalf("buckets not ascending at %d: %v >= %v", i, buckets[i-1].Start, buckets[i].Start)
		}
	}
	if buckets[0].Label != "November 2023" {
		t.Fatalf("expected November 2023 first, got %s", buckets[0].Label)
	}
}

func TestBucketProfitNoZeroFill(t *testing.T) {
	// January and April only; February/March must not be synthesized.
	records := []BetRecord{
		mustRecord(t, NewDate(2024, 1, 5), 100, 200),
		mustRecord(t, NewDate(2024, 4, 5), 100, 0),
	}
	buckets := BucketProfit(records, Monthly)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets without gap filling, got %d", len(buckets))
	}
}

func TestBucketProfitGranularities(t *testing.T) {
	records := []BetRecord{
		mustRecord(t, NewDate(2024, 1, 5), 1000, 2500),
		mustRecord(t, NewDate(2024, 1, 5), 500, 0),
		mustRecord(t, NewDate(2024, 1, 6), 500, 600),
		mustRecord(t, NewDate(2025, 6, 1), 100, 0),
	}

	daily := BucketProfit(records, Daily)
	if len(daily) != 3 {
		t.Fatalf("expected 3 daily buckets, got %d", len(daily))
	}
	if daily[0].Label != "2024-01-05" || daily[0].Profit.Cents != 1000 {
		t.Fatalf("unexpected first daily bucket (%s, %d)", daily[0].Label, daily[0].Profit.Cents)
	}

	yearly := BucketProfit(records, Yearly)
	if len(yearly) != 2 {
		t.Fatalf("expected 2 yearly buckets, got %d", len(yearly))
	}
	if yearly[0].Label != "2024" || yearly[1].Label != "2025" {
		t.Fatalf("unexpected yearly labels %s / %s", yearly[0].Label, yearly[1].Label)
	}
}

func TestTotalProfitGranularityInvariance(t *testing.T) {
	records := []BetRecord{
		mustRecord(t, NewDate(2023, 12, 31), 700, 1250),
		mustRecord(t, NewDate(2024, 1, 5), 1000, 2500),
		mustRecord(t, NewDate(2024, 1, 20), 2000, 0),
		mustRecord(t, NewDate(2024, 2, 1), 500, 500),
		mustRecord(t, NewDate(2024, 2, 1), 300, 0),
	}
	total := TotalProfit(records)

	for _, g := range []Granularity{Daily, Monthly, Yearly} {
		var sum Money
		for _, b := range BucketProfit(records, g) {
			sum = sum.Add(b.Profit)
		}
		if sum != total {
			t.Fatalf("%s bucketing sums to %d, total is %d", g, sum.Cents, total.Cents)
		}
	}
}

func TestTotalProfitEmpty(t *testing.T) {
	if got := TotalProfit(nil); got.Cents != 0 {
		t.Fatalf("expected 0, got %d", got.Cents)
	}
	if buckets := BucketProfit(nil, Monthly); len(buckets) != 0 {
		t.Fatalf("expected no buckets, got %d", len(buckets))
	}
}

func TestFilterByMonth(t *testing.T) {
	records := []BetRecord{
		mustRecord(t, NewDate(2024, 1, 1), 100, 200),  // first day, inclusive
		mustRecord(t, NewDate(2024, 1, 31), 100, 0),   // last day, inclusive
		mustRecord(t, NewDate(2024, 2, 1), 100, 100),  // next month
		mustRecord(t, NewDate(2023, 1, 15), 100, 100), // same month, other year
	}
	got := FilterByMonth(records, 2024, 1)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	for _, r := range got {
		if r.Date.Year() != 2024 || r.Date.Month() != 1 {
			t.Fatalf("record outside month: %v", r.Date)
		}
	}
}

func TestSortByDate(t *testing.T) {
	records := []BetRecord{
		mustRecord(t, NewDate(2024, 3, 1), 100, 0),
		mustRecord(t, NewDate(2024, 1, 1), 100, 0),
		mustRecord(t, NewDate(2024, 2, 1), 100, 0),
	}
	SortByDate(records)
	for i := 1; i < len(records); i++ {
		if records[i-1].Date.After(records[i].Date.Time) {
			t.Fatalf("not sorted at %d", i)
		}
	}
}

func TestGranularityValidate(t *testing.T) {
	for _, g := range []Granularity{Daily, Monthly, Yearly} {
		if err := g.Validate(); err != nil {
			t.Fatalf("%s: unexpected error %v", g, err)
		}
	}
	if err := Granularity("weekly").Validate(); err == nil {
		t.Fatalf("expected error for unknown granularity")
	}
}
