package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"betledger/internal/core"
)

// handleDashboard renders the profit-over-time partial. The granularity
// query parameter switches between daily, monthly, and yearly buckets;
// the overall total is the same whichever view is selected.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, owner string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	g, err := ParseGranularity(r.URL.Query())
	if err != nil {
		slog.WarnContext(r.Context(), "Invalid granularity parameter", "error", err,
			"granularity", r.URL.Query().Get("granularity"))
		UnprocessableEntityError("Unknown granularity").Write(w)
		return
	}

	buckets, err := s.getBuckets(r.Context(), owner, g)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard read error", "error", err, "owner", owner, "granularity", string(g))
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Error loading dashboard</div></section>`))
		return
	}

	records, err := s.getRecords(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard records error", "error", err, "owner", owner)
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Error loading dashboard</div></section>`))
		return
	}
	total := core.TotalProfit(records)

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Total: ` + formatDollars(total.Cents) + `</div></section>`))
		return
	}

	// Scale bar widths against the largest absolute bucket profit.
	var maxAbs int64
	for _, b := range buckets {
		abs := b.Profit.Cents
		if abs < 0 {
			abs = -abs
		}
		if abs > maxAbs {
			maxAbs = abs
		}
	}

	type row struct {
		Label  string
		Year   int
		Month  int
		Profit string
		Win    bool
		Width  int
	}
	data := struct {
		Granularity string
		Total       string
		TotalWin    bool
		Bets        int
		Rows        []row
	}{
		Granularity: string(g),
		Total:       formatDollars(total.Cents),
		TotalWin:    total.Cents >= 0,
		Bets:        len(records),
	}
	for _, b := range buckets {
		abs := b.Profit.Cents
		if abs < 0 {
			abs = -abs
		}
		width := 0
		if maxAbs > 0 && abs > 0 {
			width = int((abs*100 + maxAbs/2) / maxAbs) // rounded percent
			if width > 0 && width < 2 {                // ensure visibility for very small values
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		data.Rows = append(data.Rows, row{
			Label:  b.Label,
			Year:   b.Start.Year(),
			Month:  b.Start.Month(),
			Profit: formatDollars(b.Profit.Cents),
			Win:    b.Profit.Cents >= 0,
			Width:  width,
		})
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "dashboard.html", "granularity", string(g))
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Error rendering dashboard</div></section>`))
	}
}

// handleMonth renders the drill-down list of bets for one calendar month.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request, owner string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	params := ParseMonthParams(r.URL.Query())
	if params.Month < 1 || params.Month > 12 {
		now := time.Now()
		slog.WarnContext(r.Context(), "Invalid month parameter", "year", params.Year,
			"month", params.Month, "corrected_to", int(now.Month()))
		params.Month = int(now.Month())
	}

	records, err := s.getRecords(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month listing error", "error", err, "owner", owner,
			"year", params.Year, "month", params.Month)
		_, _ = w.Write([]byte(`<section id="month-detail" class="month-detail"><div class="placeholder">Error loading month</div></section>`))
		return
	}

	monthRecords := core.FilterByMonth(records, params.Year, params.Month)
	core.SortByDate(monthRecords)
	monthTotal := core.TotalProfit(monthRecords)

	type item struct {
		ID       string
		Date     string
		Sport    string
		Invested string
		Picks    int
		Outcome  string
		Class    string
		Paid     string
		Profit   string
	}
	data := struct {
		Year  int
		Month string
		Total string
		Win   bool
		Items []item
	}{
		Year:  params.Year,
		Month: time.Month(params.Month).String(),
		Total: formatDollars(monthTotal.Cents),
		Win:   monthTotal.Cents >= 0,
	}
	for _, rec := range monthRecords {
		data.Items = append(data.Items, item{
			ID:       rec.ID,
			Date:     rec.Date.Format("2006-01-02"),
			Sport:    template.HTMLEscapeString(rec.Sport),
			Invested: formatDollars(rec.Invested.Cents),
			Picks:    rec.NumPicks,
			Outcome:  string(rec.Outcome),
			Class:    outcomeClass(rec.Outcome),
			Paid:     formatDollars(rec.Paid.Cents),
			Profit:   formatDollars(rec.Profit.Cents),
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="month-detail" class="month-detail"><div class="placeholder">` + data.Month + ` total: ` + data.Total + `</div></section>`))
		return
	}

	if err := s.templates.ExecuteTemplate(w, "month_detail.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "month_detail.html",
			"year", params.Year, "month", params.Month)
		_, _ = w.Write([]byte(`<section id="month-detail" class="month-detail"><div class="placeholder">Error rendering month</div></section>`))
	}
}
