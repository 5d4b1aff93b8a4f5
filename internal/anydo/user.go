package anydo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// User represents the logged-in account. It owns cached lists of the user's
// tasks, categories and labels; the caches are filled on first access and
// invalidated only by an explicit refresh.
type User struct {
	Resource

	tasks      []*Task
	categories []*Category
	labels     []*Label
	pending    []PendingTask
}

func newUser(sess *session, data map[string]any) *User {
	return &User{Resource: newResource(sess, meEndpoint, data)}
}

// Name returns the user's display name.
func (u *User) Name() (string, error) {
	return u.String("name")
}

// EmailAddress returns the user's account email.
func (u *User) EmailAddress() (string, error) {
	return u.String("email")
}

// Save pushes changed attributes to /me; the user endpoint is not
// id-qualified.
func (u *User) Save(ctx context.Context) error {
	return u.SaveTo(ctx, meEndpoint)
}

// Destroy deletes the account. Deletion goes through /user, not /me.
func (u *User) Destroy(ctx context.Context) error {
	return u.DestroyAt(ctx, userEndpoint)
}

// Refresh reloads the user record from /me.
func (u *User) Refresh(ctx context.Context) error {
	return u.RefreshAt(ctx, meEndpoint)
}

// TaskQuery controls which tasks a Tasks call fetches and returns. The zero
// value fetches the cached, non-deleted, non-done set including both checked
// and unchecked tasks.
type TaskQuery struct {
	// Refresh bypasses the cache and re-fetches from the API
	Refresh bool

	// IncludeDeleted asks the API to include deleted tasks
	IncludeDeleted bool

	// IncludeDone asks the API to include done tasks
	IncludeDone bool

	// ExcludeChecked filters out tasks with status CHECKED
	ExcludeChecked bool

	// ExcludeUnchecked filters out tasks with status UNCHECKED
	ExcludeUnchecked bool
}

// Tasks returns the user's task list, fetching it from the API when the
// cache is cold or a refresh is requested.
func (u *User) Tasks(ctx context.Context, q TaskQuery) ([]*Task, error) {
	if u.tasks == nil || q.Refresh {
		params := url.Values{
			"includeDeleted": {strconv.FormatBool(q.IncludeDeleted)},
			"includeDone":    {strconv.FormatBool(q.IncludeDone)},
		}

		body, err := u.sess.get(ctx, tasksEndpoint, params)
		if err != nil {
			return nil, err
		}

		var items []map[string]any
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("anydo: decode tasks: %w", err)
		}

		tasks := make([]*Task, 0, len(items))
		for _, item := range items {
			tasks = append(tasks, newTask(u, item))
		}
		u.tasks = tasks
	}

	return filterTasks(u.tasks, q)
}

// CategoryQuery controls a Categories call.
type CategoryQuery struct {
	Refresh        bool
	IncludeDeleted bool
}

// Categories returns the user's task lists.
func (u *User) Categories(ctx context.Context, q CategoryQuery) ([]*Category, error) {
	if u.categories == nil || q.Refresh {
		params := url.Values{
			"includeDeleted": {strconv.FormatBool(q.IncludeDeleted)},
		}

		body, err := u.sess.get(ctx, categoriesEndpoint, params)
		if err != nil {
			return nil, err
		}

		var items []map[string]any
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("anydo: decode categories: %w", err)
		}

		categories := make([]*Category, 0, len(items))
		for _, item := range items {
			categories = append(categories, newCategory(u, item))
		}
		u.categories = categories
	}

	result := u.categories
	if !q.IncludeDeleted {
		kept := make([]*Category, 0, len(result))
		for _, cat := range result {
			deleted, err := cat.IsDeleted()
			if err != nil {
				return nil, err
			}
			if !deleted {
				kept = append(kept, cat)
			}
		}
		result = kept
	}
	return result, nil
}

// DefaultCategory returns the user's default list, or nil when none is
// marked default.
func (u *User) DefaultCategory(ctx context.Context) (*Category, error) {
	categories, err := u.Categories(ctx, CategoryQuery{})
	if err != nil {
		return nil, err
	}
	for _, cat := range categories {
		isDefault, err := cat.IsDefault()
		if err != nil {
			return nil, err
		}
		if isDefault {
			return cat, nil
		}
	}
	return nil, nil
}

// LabelQuery controls a Labels call.
type LabelQuery struct {
	Refresh        bool
	IncludeDeleted bool
}

// syncEnvelope is the shape of the combined sync response; labels have no
// dedicated collection endpoint.
type syncEnvelope struct {
	Models struct {
		Label struct {
			Items []map[string]any `json:"items"`
		} `json:"label"`
	} `json:"models"`
}

// Labels returns the user's tags via the sync endpoint.
func (u *User) Labels(ctx context.Context, q LabelQuery) ([]*Label, error) {
	if u.labels == nil || q.Refresh {
		params := url.Values{
			"includeDeleted": {strconv.FormatBool(q.IncludeDeleted)},
		}

		payload := map[string]any{
			"models": map[string]any{
				"label": map[string]any{
					"items": []any{},
					"config": map[string]any{
						"includeDone":    "false",
						"includeDeleted": strconv.FormatBool(q.IncludeDeleted),
					},
				},
			},
		}

		body, err := u.sess.post(ctx, syncEndpoint, params, payload)
		if err != nil {
			return nil, err
		}

		var envelope syncEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("anydo: decode sync labels: %w", err)
		}

		labels := make([]*Label, 0, len(envelope.Models.Label.Items))
		for _, item := range envelope.Models.Label.Items {
			labels = append(labels, newLabel(u, item))
		}
		u.labels = labels
	}

	result := u.labels
	if !q.IncludeDeleted {
		kept := make([]*Label, 0, len(result))
		for _, label := range result {
			deleted, err := label.IsDeleted()
			if err != nil {
				return nil, err
			}
			if !deleted {
				kept = append(kept, label)
			}
		}
		result = kept
	}
	return result, nil
}

// addTask appends a freshly created task to the cached list, fetching the
// list first so later reads see a complete set.
func (u *User) addTask(ctx context.Context, task *Task) error {
	if u.tasks == nil {
		if _, err := u.Tasks(ctx, TaskQuery{}); err != nil {
			return err
		}
	}
	u.tasks = append(u.tasks, task)
	return nil
}

// PendingTask is a task another user shared with this account that has not
// been accepted yet.
type PendingTask struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Inviter  string `json:"inviter"`
	TaskID   string `json:"taskId"`
	Category string `json:"categoryId"`
}

type pendingEnvelope struct {
	PendingTasks []PendingTask `json:"pendingTasks"`
}

// PendingTasks returns the tasks shared with the user that await approval.
func (u *User) PendingTasks(ctx context.Context, refresh bool) ([]PendingTask, error) {
	if u.pending == nil || refresh {
		body, err := u.sess.get(ctx, pendingEndpoint, nil)
		if err != nil {
			return nil, err
		}

		var envelope pendingEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("anydo: decode pending tasks: %w", err)
		}
		u.pending = envelope.PendingTasks
		if u.pending == nil {
			u.pending = []PendingTask{}
		}
	}
	return u.pending, nil
}

// PendingTaskIDs returns just the ids of the pending tasks.
func (u *User) PendingTaskIDs(ctx context.Context, refresh bool) ([]string, error) {
	pending, err := u.PendingTasks(ctx, refresh)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(pending))
	for _, task := range pending {
		ids = append(ids, task.ID)
	}
	return ids, nil
}

// ApprovePendingTask accepts a shared task by id or by record. One of the
// two must be supplied.
func (u *User) ApprovePendingTask(ctx context.Context, pendingTaskID string, pendingTask *PendingTask) (json.RawMessage, error) {
	id := pendingTaskID
	if id == "" && pendingTask != nil {
		id = pendingTask.ID
	}
	if id == "" {
		return nil, resourceError("approve pending task", "", fmt.Errorf("%w: either a pending task id or a pending task record is required", ErrMissingArgument))
	}

	return u.sess.post(ctx, pendingEndpoint+"/"+id+"/accept", nil, nil)
}
