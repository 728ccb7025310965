package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func getPartial(srv *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("HX-Request", "true")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func seedLedger(t *testing.T, srv *Server) {
	t.Helper()
	// January: one losing bet (-10.00) and one winning bet (+5.00).
	// February: a wash (+20.00 and -20.00).
	seeds := []struct{ date, invested, picks, outcome, paid string }{
		{"2024-01-05", "10.00", "2", "Lose", "0.00"},
		{"2024-01-20", "10.00", "1", "Win", "15.00"},
		{"2024-02-03", "10.00", "1", "Win", "30.00"},
		{"2024-02-14", "20.00", "3", "Lose", "0.00"},
	}
	for _, s := range seeds {
		rr := postForm(srv, "/bets", betForm(s.date, s.invested, s.picks, s.outcome, s.paid))
		if rr.Code != 200 {
			t.Fatalf("seed %s failed: %d %s", s.date, rr.Code, rr.Body.String())
		}
	}
}

func TestDashboardTotalsAreGranularityInvariant(t *testing.T) {
	srv := newTestServer(t)
	seedLedger(t, srv)

	// Overall profit is -5.00 whichever way the buckets are cut.
	for _, g := range []string{"daily", "monthly", "yearly", ""} {
		path := "/ui/dashboard"
		if g != "" {
			path += "?granularity=" + g
		}
		rr := getPartial(srv, path)
		if rr.Code != 200 {
			t.Fatalf("granularity %q status=%d", g, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Total: -$5.00") {
			t.Fatalf("granularity %q missing invariant total: %s", g, rr.Body.String())
		}
	}
}

func TestDashboardMonthlyBuckets(t *testing.T) {
	srv := newTestServer(t)
	seedLedger(t, srv)

	rr := getPartial(srv, "/ui/dashboard?granularity=monthly")
	body := rr.Body.String()

	if !strings.Contains(body, "January 2024") {
		t.Fatalf("missing January bucket: %s", body)
	}
	if !strings.Contains(body, "February 2024") {
		t.Fatalf("missing February bucket: %s", body)
	}
	// Buckets must come out in chronological order.
	if strings.Index(body, "January 2024") > strings.Index(body, "February 2024") {
		t.Fatal("buckets not in chronological order")
	}
	if !strings.Contains(body, "-$5.00") {
		t.Fatalf("missing January profit: %s", body)
	}
}

func TestDashboardRejectsUnknownGranularity(t *testing.T) {
	srv := newTestServer(t)

	rr := getPartial(srv, "/ui/dashboard?granularity=weekly")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestDashboardEmptyLedgerHasNoBuckets(t *testing.T) {
	srv := newTestServer(t)

	rr := getPartial(srv, "/ui/dashboard")
	if rr.Code != 200 {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No bets yet") {
		t.Fatalf("expected empty placeholder: %s", rr.Body.String())
	}
}

func TestMonthDrillDown(t *testing.T) {
	srv := newTestServer(t)
	seedLedger(t, srv)

	rr := getPartial(srv, "/ui/month?year=2024&month=1")
	if rr.Code != 200 {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "January 2024") {
		t.Fatalf("missing month heading: %s", body)
	}
	if !strings.Contains(body, "2024-01-05") || !strings.Contains(body, "2024-01-20") {
		t.Fatalf("missing January bets: %s", body)
	}
	if strings.Contains(body, "2024-02-03") {
		t.Fatalf("February bet leaked into January view: %s", body)
	}
	if !strings.Contains(body, "-$5.00") {
		t.Fatalf("missing month total: %s", body)
	}
}

func TestMonthDrillDownCorrectsBadMonth(t *testing.T) {
	srv := newTestServer(t)
	seedLedger(t, srv)

	rr := getPartial(srv, "/ui/month?year=2024&month=13")
	if rr.Code != 200 {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestDashboardCacheInvalidatedOnWrite(t *testing.T) {
	srv := newTestServer(t)
	seedLedger(t, srv)

	// Warm the cache.
	if rr := getPartial(srv, "/ui/dashboard?granularity=monthly"); rr.Code != 200 {
		t.Fatalf("warm read failed: %d", rr.Code)
	}

	// A new bet must show up in the next read.
	if rr := postForm(srv, "/bets", betForm("2024-03-09", "10.00", "1", "Win", "110.00")); rr.Code != 200 {
		t.Fatalf("new bet failed: %d", rr.Code)
	}

	rr := getPartial(srv, "/ui/dashboard?granularity=monthly")
	if !strings.Contains(rr.Body.String(), "March 2024") {
		t.Fatalf("stale dashboard after write: %s", rr.Body.String())
	}
}
