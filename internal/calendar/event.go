package calendar

import (
	"fmt"
	"time"
)

// descriptionURLFormat templates the web link for a task id.
const descriptionURLFormat = "https://desktop.any.do/agenda/tasks/%s"

// DateTimeFormat is how finalized event timestamps are rendered.
const DateTimeFormat = "2006-01-02 15:04:05"

// EventTime is a rendered timestamp on a finalized event.
type EventTime struct {
	DateTime string `json:"dateTime"`
}

// Event is the calendar-shaped view of a task. It is ephemeral: rebuilt on
// every update cycle, never persisted.
type Event struct {
	// Summary is the task title
	Summary string `json:"summary"`

	// Notes is the task's free-form note
	Notes string `json:"notes"`

	// Owner is who the task is assigned to
	Owner string `json:"owner"`

	// Completed reports whether the task status is CHECKED
	Completed bool `json:"completed"`

	// Description is a URL pointing at the task on the Any.do website
	Description string `json:"description"`

	// Tags holds the resolved, lowercased label names
	Tags []string `json:"tags"`

	// AllDay marks tasks without a due date
	AllDay bool `json:"all_day"`

	// DueToday reports whether the due date falls on the current calendar day
	DueToday bool `json:"due_today"`

	// Overdue reports whether the due date is at or before the start time
	Overdue bool `json:"overdue"`

	// StartTime is the acquisition instant; always present. The due date is
	// the END of the event: the earliest moment one can complete a task is
	// right now, the latest is its due date.
	StartTime time.Time `json:"-"`

	// EndTime is the parsed due date; nil when the task has none
	EndTime *time.Time `json:"-"`

	// Start and End are filled by finalize on the selected best event
	Start EventTime `json:"start"`
	End   EventTime `json:"end"`
}

// parseDueDate converts an epoch-milliseconds due date into a UTC time.
// Zero means no due date.
func parseDueDate(timestamp int64) *time.Time {
	if timestamp == 0 {
		return nil
	}
	t := time.UnixMilli(timestamp).UTC()
	return &t
}

// descriptionURL returns the web link for a task id.
func descriptionURL(taskID string) string {
	return fmt.Sprintf(descriptionURLFormat, taskID)
}

// sameDay reports whether two instants fall on the same calendar date in
// the given location.
func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// endDate truncates an event's end time to its UTC calendar date for the
// day-level comparison in selection.
func endDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// selectBest picks the single most urgent event from a non-empty set.
//
// The reduction starts at the end of the list, so that when no task has a
// due date the most recently listed one wins by default. Every other
// candidate is then considered in list order:
//   - completed candidates never win;
//   - a candidate without an end time only replaces an incumbent that also
//     has none;
//   - an end-time-bearing candidate always beats an incumbent without one;
//   - otherwise end dates are compared at day granularity: a later day
//     loses, an earlier day wins, and within the same day the earlier exact
//     timestamp wins.
//
// This is a linear scan, not a sort; among equals the first encountered
// stays selected.
func selectBest(events []*Event) *Event {
	best := events[len(events)-1]

	for _, candidate := range events {
		if candidate == best {
			continue
		}
		if candidate.Completed {
			continue
		}

		if candidate.EndTime == nil {
			if best.EndTime == nil {
				best = candidate
			}
			continue
		}

		if best.EndTime == nil {
			best = candidate
			continue
		}

		candidateDate := endDate(*candidate.EndTime)
		bestDate := endDate(*best.EndTime)

		if candidateDate.After(bestDate) {
			continue
		}
		if candidateDate.Before(bestDate) {
			best = candidate
			continue
		}
		if candidate.EndTime.Before(*best.EndTime) {
			best = candidate
		}
	}

	return best
}

// rank produces the total ordering of an event set by repeatedly selecting
// and removing the best remaining event. Completed events never appear in
// the ranking; a fully completed set ranks empty. The input slice is not
// modified.
func rank(events []*Event) []*Event {
	remaining := make([]*Event, 0, len(events))
	for _, event := range events {
		if !event.Completed {
			remaining = append(remaining, event)
		}
	}

	ranked := make([]*Event, 0, len(remaining))
	for len(remaining) > 0 {
		best := selectBest(remaining)
		for i, event := range remaining {
			if event == best {
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
		ranked = append(ranked, best)
	}
	return ranked
}

// finalize renders the event's timestamps for the host calendar surface. An
// event without an end time gets one synthesized a day out; a calendar event
// has to terminate.
func finalize(event *Event, now time.Time) {
	event.Start = EventTime{DateTime: event.StartTime.Format(DateTimeFormat)}
	if event.EndTime != nil {
		event.End = EventTime{DateTime: event.EndTime.Format(DateTimeFormat)}
	} else {
		event.End = EventTime{DateTime: now.Add(24 * time.Hour).Format(DateTimeFormat)}
	}
}
