package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"betledger/internal/core"
	"betledger/internal/csvio"
)

// handleCreateBet appends one record to the owner's ledger.
func (s *Server) handleCreateBet(w http.ResponseWriter, r *http.Request, owner string) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	rec, err := ParseBetForm(r.Form)
	if err != nil {
		slog.WarnContext(r.Context(), "Bet form rejected", "error", err, "owner", owner)
		UnprocessableEntityError("Invalid bet: " + err.Error()).Write(w)
		return
	}

	stored, err := s.service.AddBet(r.Context(), owner, rec)
	if err != nil {
		slog.ErrorContext(r.Context(), "Bet insert error", "error", err, "owner", owner)
		InternalServerError("Could not save the bet").Write(w)
		return
	}

	s.invalidateOwner(owner)
	s.structured.LogBetCreated(r.Context(), stored.ID, owner, stored.Sport, string(stored.Outcome),
		stored.Invested.Cents, stored.Paid.Cents, stored.Profit.Cents)

	NewHTMXResponse().
		TriggerBetCreated(stored.Date.Year(), stored.Date.Month()).
		TriggerFormReset().
		TriggerDashboardRefresh().
		BodyHTML(`<div class="success">Bet recorded: ` +
			template.HTMLEscapeString(stored.Sport) +
			` ` + template.HTMLEscapeString(formatDollars(stored.Invested.Cents)) +
			` on ` + stored.Date.Format("2006-01-02") +
			` (` + string(stored.Outcome) + `, profit ` +
			template.HTMLEscapeString(formatDollars(stored.Profit.Cents)) + `)</div>`).
		Write(w)
}

// handleDeleteBet removes a record by id. Deleting an id that no longer
// exists still reports success; the ledger ends up in the requested state
// either way.
func (s *Server) handleDeleteBet(w http.ResponseWriter, r *http.Request, owner string) {
	if errResp := RequireDeleteOrPOST(r); errResp != nil {
		errResp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		slog.ErrorContext(r.Context(), "Delete body parse error", "error", err, "owner", owner)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	id := parser.Get("id")
	if id == "" {
		BadRequestError("Missing bet id").Write(w)
		return
	}

	if err := s.service.DeleteBet(r.Context(), owner, id); err != nil {
		slog.ErrorContext(r.Context(), "Bet delete error", "error", err, "owner", owner, "bet_id", id)
		InternalServerError("Could not delete the bet").Write(w)
		return
	}

	s.invalidateOwner(owner)

	NewHTMXResponse().
		TriggerBetDeleted().
		TriggerDashboardRefresh().
		BodyHTML(`<div class="success">Bet deleted</div>`).
		Write(w)
}

const maxImportBytes = 10 << 20

// handleImport replaces the owner's ledger with an uploaded table.
// The upload is parsed and validated in full before any record is touched;
// a single bad row rejects the whole file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, owner string) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		slog.WarnContext(r.Context(), "Import multipart parse error", "error", err, "owner", owner)
		BadRequestError("Invalid upload").Write(w)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		BadRequestError("Missing file field").Write(w)
		return
	}
	defer func() { _ = file.Close() }()

	count, err := s.service.ImportTable(r.Context(), owner, file)
	if err != nil {
		if errors.Is(err, csvio.ErrValidation) {
			slog.WarnContext(r.Context(), "Import rejected", "error", err, "owner", owner)
			UnprocessableEntityError("Import rejected: " + err.Error()).Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Import error", "error", err, "owner", owner)
		InternalServerError("Import failed").Write(w)
		return
	}

	s.invalidateOwner(owner)

	NewHTMXResponse().
		TriggerLedgerImported(count).
		TriggerDashboardRefresh().
		BodyHTML(`<div class="success">Imported ` + strconv.Itoa(count) + ` bets</div>`).
		Write(w)
}

// handleExport streams the owner's full ledger as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, owner string) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="betting_data.csv"`)

	if err := s.service.ExportTable(r.Context(), owner, w); err != nil {
		slog.ErrorContext(r.Context(), "Export error", "error", err, "owner", owner)
		// Headers are already out; nothing usable can be sent at this point.
		return
	}
}

// outcomeClass maps an outcome to its display style.
func outcomeClass(o core.Outcome) string {
	if o == core.Win {
		return "outcome-win"
	}
	return "outcome-lose"
}
