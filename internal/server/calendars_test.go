package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regevbr/anydo/internal/anydo"
	"github.com/regevbr/anydo/internal/calendar"
)

func newCalendarMux(t *testing.T, sc *ServerContext) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewCalendarHandler(sc, nil).RegisterEndpoints(mux)
	return mux
}

func TestCalendarHandler_ListCalendars(t *testing.T) {
	tasks := []map[string]any{
		taskFixture("t1", "Buy milk", anydo.StatusUnchecked, "c1", testNow.Add(24*time.Hour)),
	}
	sc := newTestContext(t, tasks,
		calendar.ListConfig{Name: "Tasks"},
		calendar.ListConfig{Name: "Empty", ID: "nope"},
	)
	require.NoError(t, sc.UpdateAll(context.Background()))

	rec := httptest.NewRecorder()
	newCalendarMux(t, sc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendars", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []CalendarSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)

	assert.Equal(t, "Tasks", summaries[0].Name)
	require.NotNil(t, summaries[0].Event)
	assert.Equal(t, "Buy milk", summaries[0].Event.Summary)
	assert.Equal(t, 1, summaries[0].TaskCount)

	assert.Equal(t, "Empty", summaries[1].Name)
	assert.Nil(t, summaries[1].Event)
	assert.Equal(t, 0, summaries[1].TaskCount)
}

func TestCalendarHandler_GetCalendar(t *testing.T) {
	tasks := []map[string]any{
		taskFixture("t1", "Buy milk", anydo.StatusUnchecked, "c1", testNow.Add(24*time.Hour)),
		taskFixture("t2", "Pay rent", anydo.StatusUnchecked, "c1", testNow.Add(48*time.Hour)),
	}
	sc := newTestContext(t, tasks)
	require.NoError(t, sc.UpdateAll(context.Background()))

	rec := httptest.NewRecorder()
	newCalendarMux(t, sc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendars/tasks", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var detail CalendarDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "Tasks", detail.Name)
	require.Len(t, detail.Tasks, 2)
	assert.Equal(t, "Buy milk", detail.Tasks[0].Summary)
	assert.Equal(t, "Pay rent", detail.Tasks[1].Summary)
}

func TestCalendarHandler_GetCalendar_NotFound(t *testing.T) {
	sc := newTestContext(t, nil)

	rec := httptest.NewRecorder()
	newCalendarMux(t, sc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendars/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalendarHandler_GetEvents(t *testing.T) {
	inRange := time.Date(2025, 6, 20, 9, 30, 0, 0, time.UTC)
	outOfRange := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	tasks := []map[string]any{
		taskFixture("t1", "Buy milk", anydo.StatusUnchecked, "c1", inRange),
		taskFixture("t2", "Later", anydo.StatusUnchecked, "c1", outOfRange),
	}
	sc := newTestContext(t, tasks)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/calendars/Tasks/events?start=2025-06-01&end=2025-07-01", nil)
	newCalendarMux(t, sc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var events []calendar.RangeEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "t1", events[0].UID)
	assert.Equal(t, "Buy milk", events[0].Title)
	assert.True(t, events[0].AllDay)
}

func TestCalendarHandler_GetEvents_BadParams(t *testing.T) {
	sc := newTestContext(t, nil)
	mux := newCalendarMux(t, sc)

	tests := []struct {
		name string
		url  string
	}{
		{"missing start", "/calendars/Tasks/events?end=2025-07-01"},
		{"missing end", "/calendars/Tasks/events?start=2025-06-01"},
		{"garbage start", "/calendars/Tasks/events?start=nope&end=2025-07-01"},
		{"end before start", "/calendars/Tasks/events?start=2025-07-01&end=2025-06-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
