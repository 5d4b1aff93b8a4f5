package anydo

import (
	"context"
	"encoding/json"
	"fmt"
)

// idField is the attribute that becomes immutable once present.
const idField = "id"

// Resource is the generic dirty-tracking wrapper around a server-side JSON
// entity. It carries the raw attribute map, remembers which keys changed
// since the last save, and pushes only the changed subset back to the API.
//
// Concrete entities (User, Task, Category, Label) embed Resource and declare
// their collection endpoint; everything else on the entity structs is local
// bookkeeping and never enters the dirty set.
type Resource struct {
	data  map[string]any
	dirty map[string]struct{}

	endpoint string
	sess     *session
}

func newResource(sess *session, endpoint string, data map[string]any) Resource {
	if data == nil {
		data = make(map[string]any)
	}
	return Resource{
		data:     data,
		dirty:    make(map[string]struct{}),
		endpoint: endpoint,
		sess:     sess,
	}
}

// Get returns the raw value of an attribute. Reading a key absent from the
// backing data is an error; a missing expected field means the upstream API
// changed shape and must not be silently coerced.
func (r *Resource) Get(key string) (any, error) {
	v, ok := r.data[key]
	if !ok {
		return nil, resourceError("get", key, ErrAttributeNotFound)
	}
	return v, nil
}

// String returns a string attribute. A JSON null reads as the empty string.
func (r *Resource) String(key string) (string, error) {
	v, err := r.Get(key)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", resourceError("get", key, fmt.Errorf("%w: not a string (%T)", ErrAttributeNotFound, v))
	}
	return s, nil
}

// Int64 returns a numeric attribute. JSON numbers decode as float64; a null
// reads as zero, matching the API's "0 or absent means unset" convention.
func (r *Resource) Int64(key string) (int64, error) {
	v, err := r.Get(key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, resourceError("get", key, fmt.Errorf("%w: %v", ErrAttributeNotFound, err))
		}
		return i, nil
	default:
		return 0, resourceError("get", key, fmt.Errorf("%w: not a number (%T)", ErrAttributeNotFound, v))
	}
}

// Bool returns a boolean attribute.
func (r *Resource) Bool(key string) (bool, error) {
	v, err := r.Get(key)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, resourceError("get", key, fmt.Errorf("%w: not a bool (%T)", ErrAttributeNotFound, v))
	}
	return b, nil
}

// StringSlice returns a list-of-strings attribute. A null reads as nil, which
// the task model uses for "no labels".
func (r *Resource) StringSlice(key string) ([]string, error) {
	v, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, resourceError("get", key, fmt.Errorf("%w: not a list (%T)", ErrAttributeNotFound, v))
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, resourceError("get", key, fmt.Errorf("%w: list element is not a string (%T)", ErrAttributeNotFound, item))
		}
		out = append(out, s)
	}
	return out, nil
}

// Set updates an attribute and marks it dirty. The id of an existing
// resource cannot be reassigned.
func (r *Resource) Set(key string, value any) error {
	if key == idField {
		if _, exists := r.data[idField]; exists {
			return resourceError("set", key, ErrImmutableAttribute)
		}
	}
	r.data[key] = value
	r.dirty[key] = struct{}{}
	return nil
}

// ID returns the resource id, or the empty string when the resource has not
// been created yet.
func (r *Resource) ID() string {
	if v, ok := r.data[idField]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IsDirty reports whether any attribute changed since the last save.
func (r *Resource) IsDirty() bool {
	return len(r.dirty) > 0
}

// Data returns a copy of the backing attribute map.
func (r *Resource) Data() map[string]any {
	out := make(map[string]any, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out
}

func (r *Resource) itemEndpoint() (string, error) {
	id := r.ID()
	if id == "" {
		return "", resourceError("endpoint", idField, ErrAttributeNotFound)
	}
	return r.endpoint + "/" + id, nil
}

// Save pushes the dirty attribute subset to the resource's id-qualified
// endpoint and merges any returned fields back. With nothing dirty it
// performs no network call.
func (r *Resource) Save(ctx context.Context) error {
	endpoint, err := r.itemEndpoint()
	if err != nil {
		return err
	}
	return r.SaveTo(ctx, endpoint)
}

// SaveTo is Save against an alternate endpoint, for entities whose update
// path differs from the collection convention.
func (r *Resource) SaveTo(ctx context.Context, endpoint string) error {
	if !r.IsDirty() {
		return nil
	}

	payload := make(map[string]any, len(r.dirty))
	for key := range r.dirty {
		payload[key] = r.data[key]
	}

	body, err := r.sess.put(ctx, endpoint, payload)
	if err != nil {
		return err
	}

	var updated map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &updated); err != nil {
			return fmt.Errorf("anydo: decode save response: %w", err)
		}
	}
	for k, v := range updated {
		r.data[k] = v
	}

	r.dirty = make(map[string]struct{})
	return nil
}

// Destroy deletes the resource at its id-qualified endpoint.
func (r *Resource) Destroy(ctx context.Context) error {
	endpoint, err := r.itemEndpoint()
	if err != nil {
		return err
	}
	return r.DestroyAt(ctx, endpoint)
}

// DestroyAt is Destroy against an alternate endpoint.
func (r *Resource) DestroyAt(ctx context.Context, endpoint string) error {
	_, err := r.sess.delete(ctx, endpoint)
	return err
}

// Refresh reloads the resource from the API, replacing the backing data
// wholesale and discarding local changes.
func (r *Resource) Refresh(ctx context.Context) error {
	endpoint, err := r.itemEndpoint()
	if err != nil {
		return err
	}
	return r.RefreshAt(ctx, endpoint)
}

// RefreshAt is Refresh against an alternate endpoint.
func (r *Resource) RefreshAt(ctx context.Context, endpoint string) error {
	body, err := r.sess.get(ctx, endpoint, nil)
	if err != nil {
		return err
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("anydo: decode refresh response: %w", err)
	}

	r.data = data
	r.dirty = make(map[string]struct{})
	return nil
}
