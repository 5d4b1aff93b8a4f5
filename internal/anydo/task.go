package anydo

import (
	"context"
	"encoding/json"
	"fmt"
)

// Task status values used by the API.
const (
	StatusChecked   = "CHECKED"
	StatusUnchecked = "UNCHECKED"
)

// RepeatOff is the repeatingMethod for one-shot tasks.
const RepeatOff = "TASK_REPEAT_OFF"

// Task represents a single Any.do task.
type Task struct {
	Resource

	user *User
}

func newTask(user *User, data map[string]any) *Task {
	return &Task{
		Resource: newResource(user.sess, tasksEndpoint, data),
		user:     user,
	}
}

// Title returns the task title.
func (t *Task) Title() (string, error) {
	return t.String("title")
}

// Note returns the task's free-form note.
func (t *Task) Note() (string, error) {
	return t.String("note")
}

// AssignedTo returns the task owner.
func (t *Task) AssignedTo() (string, error) {
	return t.String("assignedTo")
}

// Status returns the raw status string (CHECKED or UNCHECKED).
func (t *Task) Status() (string, error) {
	return t.String("status")
}

// Checked reports whether the task is completed.
func (t *Task) Checked() (bool, error) {
	status, err := t.Status()
	if err != nil {
		return false, err
	}
	return status == StatusChecked, nil
}

// DueDate returns the due date in epoch milliseconds; zero means no due
// date.
func (t *Task) DueDate() (int64, error) {
	return t.Int64("dueDate")
}

// Labels returns the ids of the labels attached to the task; nil when the
// task has none.
func (t *Task) Labels() ([]string, error) {
	return t.StringSlice("labels")
}

// CategoryID returns the id of the list the task belongs to.
func (t *Task) CategoryID() (string, error) {
	return t.String("categoryId")
}

// Check marks the task completed locally; call Save to persist.
func (t *Task) Check() error {
	return t.Set("status", StatusChecked)
}

// Uncheck reopens the task locally; call Save to persist.
func (t *Task) Uncheck() error {
	return t.Set("status", StatusUnchecked)
}

// Alert is the reminder block attached to due-dated tasks.
type Alert struct {
	Type          string `json:"type"`
	Offset        int64  `json:"offset"`
	CustomTime    int64  `json:"customTime"`
	RepeatEndType string `json:"repeatEndType"`
}

// DefaultAlert is the reminder the API expects alongside a due date.
func DefaultAlert() Alert {
	return Alert{
		Type:          "OFFSET",
		Offset:        0,
		CustomTime:    0,
		RepeatEndType: "REPEAT_END_NEVER",
	}
}

// NewTaskInput holds the fields for task creation. Title is required;
// CategoryID falls back to the user's default list.
type NewTaskInput struct {
	Title      string
	CategoryID string
	Note       string
	Labels     []string
	AssignedTo string

	// DueDate is epoch milliseconds; zero means no due date
	DueDate int64

	// RepeatingMethod defaults to RepeatOff
	RepeatingMethod string

	// Alert is sent only when a due date is set; nil selects DefaultAlert
	Alert *Alert
}

// CreateTask creates a task for the user and appends it to the cached task
// list.
func CreateTask(ctx context.Context, user *User, input NewTaskInput) (*Task, error) {
	if user == nil {
		return nil, resourceError("create task", "", fmt.Errorf("%w: user is required", ErrMissingArgument))
	}
	if input.Title == "" {
		return nil, resourceError("create task", "title", fmt.Errorf("%w: title is required", ErrMissingArgument))
	}

	categoryID := input.CategoryID
	if categoryID == "" {
		defaultCategory, err := user.DefaultCategory(ctx)
		if err != nil {
			return nil, err
		}
		if defaultCategory == nil {
			return nil, resourceError("create task", "categoryId", fmt.Errorf("%w: no category given and the user has no default list", ErrMissingArgument))
		}
		categoryID = defaultCategory.ID()
	}

	repeating := input.RepeatingMethod
	if repeating == "" {
		repeating = RepeatOff
	}

	payload := map[string]any{
		"title":           input.Title,
		"categoryId":      categoryID,
		"repeatingMethod": repeating,
	}
	if input.Note != "" {
		payload["note"] = input.Note
	}
	if input.Labels != nil {
		payload["labels"] = input.Labels
	}
	if input.AssignedTo != "" {
		payload["assignedTo"] = input.AssignedTo
	}
	if input.DueDate != 0 {
		payload["dueDate"] = input.DueDate
		alert := input.Alert
		if alert == nil {
			defaultAlert := DefaultAlert()
			alert = &defaultAlert
		}
		payload["alert"] = alert
	}

	// The tasks endpoint takes a batch; a single create is a batch of one.
	body, err := user.sess.post(ctx, tasksEndpoint, nil, []map[string]any{payload})
	if err != nil {
		return nil, err
	}

	var created []map[string]any
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("anydo: decode created task: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("anydo: create task: empty response")
	}

	task := newTask(user, created[0])
	if err := user.addTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// filterTasks applies the status parts of a TaskQuery to an in-memory task
// list. The deleted/done parts are handled server-side by query params.
func filterTasks(tasks []*Task, q TaskQuery) ([]*Task, error) {
	result := make([]*Task, 0, len(tasks))
	for _, task := range tasks {
		status, err := task.Status()
		if err != nil {
			return nil, err
		}
		if q.ExcludeChecked && status == StatusChecked {
			continue
		}
		if q.ExcludeUnchecked && status == StatusUnchecked {
			continue
		}
		result = append(result, task)
	}
	return result, nil
}
