package handler

import (
	"net/http"
	"time"
)

func (h *Handler) getAnalytics(w http.ResponseWriter, r *http.Request) {
	from, ok := queryTime(r, "startDate")
	if !ok {
		writeErrorBody(w, http.StatusBadRequest, "VALIDATION", "startDate must be an ISO-8601 timestamp", nil)
		return
	}
	to, ok := queryTime(r, "endDate")
	if !ok {
		writeErrorBody(w, http.StatusBadRequest, "VALIDATION", "endDate must be an ISO-8601 timestamp", nil)
		return
	}

	rep, err := h.analytics.Report(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalyticsResponse(rep))
}

func (h *Handler) getSalesMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.analytics.Metrics(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, salesMetricsResponse{
		TodaySales: m.TodaySales.InexactFloat64(),
		WeekSales:  m.WeekSales.InexactFloat64(),
		MonthSales: m.MonthSales.InexactFloat64(),
		YearSales:  m.YearSales.InexactFloat64(),
	})
}

// queryTime parses an RFC 3339 timestamp, falling back to a bare date which
// is interpreted as midnight UTC.
func queryTime(r *http.Request, name string) (time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	t, err := time.Parse("2006-01-02", v)
	return t, err == nil
}
