package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/regevbr/anydo/internal/anydo"
	"github.com/regevbr/anydo/internal/logging"
)

// ListConfig is the static filter configuration of one calendar list.
type ListConfig struct {
	// Name is the display name of the calendar
	Name string

	// ID pins the adapter to a single Any.do list; empty means all lists,
	// optionally narrowed by ListIDWhitelist
	ID string

	// DueDateDays is the horizon: the latest number of days from now a task
	// may be due to be included (7 = next week, 0 = today). Nil disables
	// horizon filtering.
	DueDateDays *int

	// TagWhitelist keeps only tasks carrying at least one of these tags
	TagWhitelist []string

	// ListIDWhitelist keeps only tasks from these lists (ignored when ID is
	// set)
	ListIDWhitelist []string
}

// RangeEvent is one entry of a time-range query, rendered the way calendar
// hosts consume it.
type RangeEvent struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Start   string `json:"start"`
	End     string `json:"end"`
	AllDay  bool   `json:"allDay"`
}

// ListAdapter turns one configured list into a calendar: Update polls the
// API, maps tasks to events, ranks them, and keeps the best event plus the
// full ranking. The accessors are safe to call concurrently with an
// in-flight Update; Update calls themselves must be serialized by the
// caller, since they share the API client's session and caches.
type ListAdapter struct {
	client *anydo.Client
	name   string
	id     string

	// tags is the user's full label set, fetched once at setup for id→name
	// resolution
	tags []*anydo.Label

	horizon         *time.Duration
	tagWhitelist    []string
	listIDWhitelist []string

	// mu guards event and allTasks, which Update replaces wholesale
	mu       sync.RWMutex
	event    *Event
	allTasks []*Event

	now    func() time.Time
	loc    *time.Location
	logger *slog.Logger
}

// AdapterOption configures a ListAdapter.
type AdapterOption func(*ListAdapter)

// WithClock overrides the time source; tests use a fixed instant.
func WithClock(now func() time.Time) AdapterOption {
	return func(a *ListAdapter) {
		a.now = now
	}
}

// WithLocation sets the location used for "due today" calendar-date checks.
func WithLocation(loc *time.Location) AdapterOption {
	return func(a *ListAdapter) {
		a.loc = loc
	}
}

// WithLogger sets the adapter's logger.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *ListAdapter) {
		a.logger = logger
	}
}

// NewListAdapter creates an adapter for one configured list. tags is the
// user's label set, shared across adapters.
func NewListAdapter(client *anydo.Client, tags []*anydo.Label, cfg ListConfig, opts ...AdapterOption) *ListAdapter {
	a := &ListAdapter{
		client:          client,
		name:            cfg.Name,
		id:              cfg.ID,
		tags:            tags,
		listIDWhitelist: cfg.ListIDWhitelist,
		now:             time.Now,
		loc:             time.Local,
		logger:          slog.Default(),
	}

	if cfg.DueDateDays != nil {
		horizon := time.Duration(*cfg.DueDateDays) * 24 * time.Hour
		a.horizon = &horizon
	}

	for _, tag := range cfg.TagWhitelist {
		a.tagWhitelist = append(a.tagWhitelist, strings.ToLower(tag))
	}

	for _, opt := range opts {
		opt(a)
	}

	a.logger = logging.WithList(a.logger, a.name)
	return a
}

// Name returns the calendar name.
func (a *ListAdapter) Name() string {
	return a.name
}

// Event returns the current best event, or nil when the last update found
// no valid tasks.
func (a *ListAdapter) Event() *Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.event
}

// AllTasks returns the full ranking computed by the last update, most
// urgent first.
func (a *ListAdapter) AllTasks() []*Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.allTasks
}

// AllTaskSummaries returns just the titles of the ranking, in order.
func (a *ListAdapter) AllTaskSummaries() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	summaries := make([]string, 0, len(a.allTasks))
	for _, event := range a.allTasks {
		summaries = append(summaries, event.Summary)
	}
	return summaries
}

// listTasks fetches the user's tasks and keeps the ones belonging to this
// adapter's list or list whitelist.
func (a *ListAdapter) listTasks(ctx context.Context, refresh bool) ([]*anydo.Task, error) {
	user, err := a.client.GetUser(ctx, refresh)
	if err != nil {
		return nil, err
	}

	tasks, err := user.Tasks(ctx, anydo.TaskQuery{})
	if err != nil {
		return nil, err
	}

	kept := make([]*anydo.Task, 0, len(tasks))
	for _, task := range tasks {
		categoryID, err := task.CategoryID()
		if err != nil {
			return nil, err
		}
		if a.id != "" {
			if categoryID == a.id {
				kept = append(kept, task)
			}
			continue
		}
		if len(a.listIDWhitelist) == 0 || slices.Contains(a.listIDWhitelist, categoryID) {
			kept = append(kept, task)
		}
	}
	return kept, nil
}

// buildEvent maps one raw task into a calendar event. A (nil, nil) return
// means the task is excluded by this adapter's filters. Missing fields are
// data-shape errors and propagate.
func (a *ListAdapter) buildEvent(task *anydo.Task, now time.Time) (*Event, error) {
	title, err := task.Title()
	if err != nil {
		return nil, err
	}
	note, err := task.Note()
	if err != nil {
		return nil, err
	}
	owner, err := task.AssignedTo()
	if err != nil {
		return nil, err
	}
	completed, err := task.Checked()
	if err != nil {
		return nil, err
	}
	labelIDs, err := task.Labels()
	if err != nil {
		return nil, err
	}

	event := &Event{
		Summary:     title,
		Notes:       note,
		Owner:       owner,
		Completed:   completed,
		Description: descriptionURL(task.ID()),
		Tags:        []string{},
		StartTime:   now,
	}

	if len(labelIDs) > 0 {
		for _, tag := range a.tags {
			if slices.Contains(labelIDs, tag.ID()) {
				name, err := tag.Name()
				if err != nil {
					return nil, err
				}
				event.Tags = append(event.Tags, strings.ToLower(name))
			}
		}
	}

	if len(a.tagWhitelist) > 0 {
		whitelisted := false
		for _, tag := range event.Tags {
			if slices.Contains(a.tagWhitelist, tag) {
				whitelisted = true
				break
			}
		}
		if !whitelisted {
			return nil, nil
		}
	}

	dueDate, err := task.DueDate()
	if err != nil {
		return nil, err
	}

	if end := parseDueDate(dueDate); end != nil {
		if a.horizon != nil && end.After(now.Add(*a.horizon)) {
			// Due past the configured horizon; not counted.
			return nil, nil
		}

		event.DueToday = sameDay(*end, now, a.loc)

		if !end.After(now) {
			// Overdue: clamp the end an hour out so the event never
			// reports a non-positive duration. The next poll lands well
			// within that hour.
			event.Overdue = true
			clamped := now.Add(time.Hour)
			event.EndTime = &clamped
		} else {
			event.EndTime = end
		}
	} else {
		// Horizon filtering needs a due date; without one the task is an
		// all-day item.
		if a.horizon != nil {
			return nil, nil
		}
		event.AllDay = true
	}

	return event, nil
}

// Update polls the API and recomputes the ranking and the best event. An
// empty or fully filtered list yields no event; that is not an error.
func (a *ListAdapter) Update(ctx context.Context) error {
	logger := logging.WithOperation(a.logger, "calendar.update")

	tasks, err := a.listTasks(ctx, true)
	if err != nil {
		return fmt.Errorf("update %s: %w", a.name, err)
	}

	if len(tasks) == 0 {
		logger.Debug("no data")
		a.publish(nil, nil)
		return nil
	}

	now := a.now().UTC()

	events := make([]*Event, 0, len(tasks))
	for _, task := range tasks {
		event, err := a.buildEvent(task, now)
		if err != nil {
			return fmt.Errorf("update %s: %w", a.name, err)
		}
		if event != nil {
			events = append(events, event)
		}
	}

	ranked := rank(events)
	if len(ranked) == 0 {
		logger.Debug("no valid tasks")
		a.publish(nil, nil)
		return nil
	}

	best := ranked[0]
	finalize(best, now)
	a.publish(best, ranked)

	logger.Debug("updated", slog.String("best_task", best.Summary), slog.Int("tasks", len(ranked)))
	return nil
}

// publish swaps in the result of an update cycle.
func (a *ListAdapter) publish(best *Event, ranked []*Event) {
	a.mu.Lock()
	a.event = best
	a.allTasks = ranked
	a.mu.Unlock()
}

// Events returns the due-dated tasks of this list falling inside the
// half-open (start, end) range, as all-day range events. A due date at
// exactly midnight UTC renders date-only so hosts display it as an all-day
// entry.
func (a *ListAdapter) Events(ctx context.Context, start, end time.Time) ([]RangeEvent, error) {
	tasks, err := a.listTasks(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("events %s: %w", a.name, err)
	}

	var events []RangeEvent
	for _, task := range tasks {
		dueDate, err := task.DueDate()
		if err != nil {
			return nil, err
		}
		due := parseDueDate(dueDate)
		if due == nil {
			continue
		}
		if !due.After(start) || !due.Before(end) {
			continue
		}

		title, err := task.Title()
		if err != nil {
			return nil, err
		}

		midnight := endDate(*due)
		value := due.Format(time.RFC3339)
		if due.Equal(midnight) {
			value = due.Format("2006-01-02")
		}

		events = append(events, RangeEvent{
			UID:     task.ID(),
			Title:   title,
			Summary: title,
			Start:   value,
			End:     value,
			AllDay:  true,
		})
	}
	return events, nil
}
