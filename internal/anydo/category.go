package anydo

import "context"

// Category represents a named task list.
type Category struct {
	Resource

	user *User
}

func newCategory(user *User, data map[string]any) *Category {
	return &Category{
		Resource: newResource(user.sess, categoriesEndpoint, data),
		user:     user,
	}
}

// Name returns the list name.
func (c *Category) Name() (string, error) {
	return c.String("name")
}

// IsDefault reports whether this is the user's default list.
func (c *Category) IsDefault() (bool, error) {
	return c.Bool("isDefault")
}

// IsDeleted reports whether the list has been deleted.
func (c *Category) IsDeleted() (bool, error) {
	return c.Bool("isDeleted")
}

// Tasks returns the user's tasks that belong to this list.
func (c *Category) Tasks(ctx context.Context) ([]*Task, error) {
	tasks, err := c.user.Tasks(ctx, TaskQuery{})
	if err != nil {
		return nil, err
	}

	result := make([]*Task, 0, len(tasks))
	for _, task := range tasks {
		categoryID, err := task.CategoryID()
		if err != nil {
			return nil, err
		}
		if categoryID == c.ID() {
			result = append(result, task)
		}
	}
	return result, nil
}
