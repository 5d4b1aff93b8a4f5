package anydo

import (
	"context"
	"slices"
)

// Label represents a user-defined tag, attachable to tasks across lists.
type Label struct {
	Resource

	user *User
}

func newLabel(user *User, data map[string]any) *Label {
	return &Label{
		Resource: newResource(user.sess, syncEndpoint, data),
		user:     user,
	}
}

// Name returns the tag name.
func (l *Label) Name() (string, error) {
	return l.String("name")
}

// IsDeleted reports whether the tag has been deleted.
func (l *Label) IsDeleted() (bool, error) {
	return l.Bool("isDeleted")
}

// Tasks returns the user's tasks carrying this label. Labels have no task
// endpoint of their own; the set is derived from the full task list.
func (l *Label) Tasks(ctx context.Context) ([]*Task, error) {
	tasks, err := l.user.Tasks(ctx, TaskQuery{})
	if err != nil {
		return nil, err
	}

	result := make([]*Task, 0, len(tasks))
	for _, task := range tasks {
		labels, err := task.Labels()
		if err != nil {
			return nil, err
		}
		if labels == nil {
			continue
		}
		if slices.Contains(labels, l.ID()) {
			result = append(result, task)
		}
	}
	return result, nil
}
