package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/finance"
	"fintrack/internal/format"
	"fintrack/internal/log"
)

const readyTimeout = 2 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type summaryResponse struct {
	finance.Summary
	Display *format.Display `json:"display,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := parseRefDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.summaries.Report(r.Context(), owner, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Summary: report.Summary,
		Display: s.display(r.Context(), report.Settings, report.Summary),
	})
}

// display formats sum for the configured locale. Formatting problems only drop the block.
func (s *Server) display(ctx context.Context, settings core.Settings, sum finance.Summary) *format.Display {
	f, err := format.New(s.locale, settings.Currency)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Summary display skipped",
			log.NewFields().WithOwner(settings.OwnerID).WithError(err).ToSlice()...)
		return nil
	}
	d := f.Summary(sum)
	return &d
}


func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := parseRefDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	breakdown, err := s.summaries.CategoryBreakdown(r.Context(), owner, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if breakdown.Categories == nil {
		breakdown.Categories = []finance.CategoryTotal{}
	}
	if breakdown.Unassigned == nil {
		breakdown.Unassigned = []finance.CategoryTotal{}
	}
	writeJSON(w, http.StatusOK, breakdown)
}

type weeklyResponse struct {
	Days []finance.DailyTotal `json:"days"`
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := parseRefDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	days, err := s.summaries.WeeklyTotals(r.Context(), owner, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weeklyResponse{Days: days})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := s.ledger.GetSettings(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handlePutSettings replaces the owner's settings. Omitted fields take the
// defaults of a fresh settings record.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	settings := core.DefaultSettings(owner)
	if err := decodeJSON(w, r, &settings); err != nil {
		writeError(w, r, err)
		return
	}
	settings.OwnerID = owner
	settings.Currency = sanitizeInput(settings.Currency)

	saved, err := s.ledger.SaveSettings(r.Context(), settings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
