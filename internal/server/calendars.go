package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/regevbr/anydo/internal/calendar"
	"github.com/regevbr/anydo/internal/instrumentation"
)

// CalendarSummary is the JSON representation of one calendar in list
// responses.
type CalendarSummary struct {
	Name      string          `json:"name"`
	Event     *calendar.Event `json:"event"`
	TaskCount int             `json:"task_count"`
}

// CalendarDetail extends CalendarSummary with every tracked task.
type CalendarDetail struct {
	CalendarSummary
	Tasks []*calendar.Event `json:"tasks"`
}

// CalendarHandler serves the calendar state as JSON.
type CalendarHandler struct {
	serverContext *ServerContext
	metrics       *instrumentation.Metrics
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(sc *ServerContext, metrics *instrumentation.Metrics) *CalendarHandler {
	return &CalendarHandler{
		serverContext: sc,
		metrics:       metrics,
	}
}

// RegisterEndpoints registers the calendar endpoints on the given mux.
func (h *CalendarHandler) RegisterEndpoints(mux *http.ServeMux) {
	mux.Handle("GET /calendars", h.instrument("/calendars", h.listCalendars))
	mux.Handle("GET /calendars/{name}", h.instrument("/calendars/{name}", h.getCalendar))
	mux.Handle("GET /calendars/{name}/events", h.instrument("/calendars/{name}/events", h.getEvents))
}

// instrument wraps a handler with HTTP request metrics. The path label uses
// the route pattern, not the raw URL, to keep cardinality bounded.
func (h *CalendarHandler) instrument(pattern string, handler func(w http.ResponseWriter, r *http.Request) int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := handler(w, r)
		if h.metrics != nil {
			h.metrics.RecordHTTPRequest(r.Context(), r.Method, pattern, status, time.Since(start))
		}
	})
}

func (h *CalendarHandler) listCalendars(w http.ResponseWriter, _ *http.Request) int {
	summaries := make([]CalendarSummary, 0, len(h.serverContext.Adapters()))
	for _, adapter := range h.serverContext.Adapters() {
		summaries = append(summaries, CalendarSummary{
			Name:      adapter.Name(),
			Event:     adapter.Event(),
			TaskCount: len(adapter.AllTasks()),
		})
	}
	return writeJSON(w, http.StatusOK, summaries)
}

func (h *CalendarHandler) getCalendar(w http.ResponseWriter, r *http.Request) int {
	adapter := h.serverContext.AdapterByName(r.PathValue("name"))
	if adapter == nil {
		return writeError(w, http.StatusNotFound, "unknown calendar %q", r.PathValue("name"))
	}

	tasks := adapter.AllTasks()
	if tasks == nil {
		tasks = []*calendar.Event{}
	}

	return writeJSON(w, http.StatusOK, CalendarDetail{
		CalendarSummary: CalendarSummary{
			Name:      adapter.Name(),
			Event:     adapter.Event(),
			TaskCount: len(tasks),
		},
		Tasks: tasks,
	})
}

func (h *CalendarHandler) getEvents(w http.ResponseWriter, r *http.Request) int {
	adapter := h.serverContext.AdapterByName(r.PathValue("name"))
	if adapter == nil {
		return writeError(w, http.StatusNotFound, "unknown calendar %q", r.PathValue("name"))
	}

	start, err := parseTimeParam(r.URL.Query().Get("start"))
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid start: %v", err)
	}
	end, err := parseTimeParam(r.URL.Query().Get("end"))
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid end: %v", err)
	}
	if !end.After(start) {
		return writeError(w, http.StatusBadRequest, "end must be after start")
	}

	events, err := adapter.Events(r.Context(), start, end)
	if err != nil {
		return writeError(w, http.StatusBadGateway, "query events: %v", err)
	}
	if events == nil {
		events = []calendar.RangeEvent{}
	}

	return writeJSON(w, http.StatusOK, events)
}

// parseTimeParam accepts RFC 3339 timestamps or bare dates.
func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("parameter is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 timestamp or YYYY-MM-DD date, got %q", value)
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
	return status
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) int {
	return writeJSON(w, status, map[string]string{
		"error": fmt.Sprintf(format, args...),
	})
}
