package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"tally/internal/core"
	"tally/internal/services"
)

// maxImportBytes bounds uploaded backup files.
const maxImportBytes = 10 << 20

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.tracker.Transactions(r.Context()))

	case http.MethodPost:
		var tx core.Transaction
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tx.Description = sanitizeInput(tx.Description)

		added, err := s.tracker.AddTransaction(r.Context(), tx)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, added)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing id")
			return
		}
		if !s.tracker.DeleteTransaction(r.Context(), id) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	month := parseMonth(r)
	writeJSON(w, http.StatusOK, s.tracker.MonthSummary(r.Context(), month))
}

func (s *Server) handlePlanned(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.tracker.PlannedExpenses(r.Context()))

	case http.MethodPost:
		var p core.PlannedExpense
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		p.Title = sanitizeInput(p.Title)
		p.Description = sanitizeInput(p.Description)

		added, err := s.tracker.AddPlannedExpense(r.Context(), p)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, added)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing id")
			return
		}
		if !s.tracker.DeletePlannedExpense(r.Context(), id) {
			writeError(w, http.StatusNotFound, "planned expense not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleImport accepts a multipart backup upload. Only JSON files are
// taken; anything else is rejected before parsing.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, "please select a JSON backup file")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	result, err := s.tracker.ImportBackup(r.Context(), data)
	if errors.Is(err, services.ErrNothingToImport) {
		writeJSON(w, http.StatusOK, map[string]any{
			"result":  result,
			"message": "no transactions found in the file",
		})
		return
	}
	if err != nil {
		slog.WarnContext(r.Context(), "Backup import failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, "could not parse the backup file")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result": result,
		"message": fmt.Sprintf("imported %d transactions and %d planned expenses",
			result.TransactionsAdded, result.PlannedAdded),
	})
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	name, data, err := s.tracker.ExportJSON(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "JSON export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(data)
}

func (s *Server) handleExportStatement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	month := parseMonth(r)
	name, data, err := s.tracker.MonthStatement(r.Context(), month, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "Statement export failed", "period", month.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "statement export failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(data)
}
