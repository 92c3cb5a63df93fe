package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tally/internal/core"
)

// parseMonth extracts the reference month from year and month query
// parameters, defaulting to the current month when absent or invalid.
func parseMonth(r *http.Request) core.YearMonth {
	now := time.Now()
	ym := core.YearMonthOf(now)

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		full := strings.TrimSpace(q.Get("year")) + "-" + pad2(v)
		if parsed, err := core.ParseYearMonth(full); err == nil {
			ym = parsed
		}
	}
	return ym
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// sanitizeInput removes potentially dangerous characters and trims
// whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
