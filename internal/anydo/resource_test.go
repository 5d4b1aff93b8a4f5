package anydo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestResourceAccessors(t *testing.T) {
	r := newResource(nil, "/things", map[string]any{
		"id":      "t1",
		"title":   "Buy milk",
		"note":    nil,
		"dueDate": float64(1750000000000),
		"checked": true,
		"labels":  []any{"l1", "l2"},
		"empty":   nil,
	})

	if s, err := r.String("title"); err != nil || s != "Buy milk" {
		t.Errorf(`String("title") = %q, %v`, s, err)
	}
	if s, err := r.String("note"); err != nil || s != "" {
		t.Errorf(`String("note") = %q, %v, want empty string for null`, s, err)
	}
	if n, err := r.Int64("dueDate"); err != nil || n != 1750000000000 {
		t.Errorf(`Int64("dueDate") = %d, %v`, n, err)
	}
	if n, err := r.Int64("empty"); err != nil || n != 0 {
		t.Errorf(`Int64("empty") = %d, %v, want 0 for null`, n, err)
	}
	if b, err := r.Bool("checked"); err != nil || !b {
		t.Errorf(`Bool("checked") = %v, %v`, b, err)
	}
	if labels, err := r.StringSlice("labels"); err != nil || len(labels) != 2 {
		t.Errorf(`StringSlice("labels") = %v, %v`, labels, err)
	}
	if labels, err := r.StringSlice("empty"); err != nil || labels != nil {
		t.Errorf(`StringSlice("empty") = %v, %v, want nil for null`, labels, err)
	}

	if _, err := r.Get("missing"); !errors.Is(err, ErrAttributeNotFound) {
		t.Errorf(`Get("missing") error = %v, want ErrAttributeNotFound`, err)
	}
	if _, err := r.Int64("title"); !errors.Is(err, ErrAttributeNotFound) {
		t.Errorf(`Int64("title") error = %v, want ErrAttributeNotFound for a type mismatch`, err)
	}
}

func TestResourceIDImmutable(t *testing.T) {
	r := newResource(nil, "/things", map[string]any{"id": "t1"})
	if err := r.Set("id", "t2"); !errors.Is(err, ErrImmutableAttribute) {
		t.Errorf("Set(id) on an existing resource error = %v, want ErrImmutableAttribute", err)
	}

	fresh := newResource(nil, "/things", nil)
	if err := fresh.Set("id", "t3"); err != nil {
		t.Errorf("Set(id) on an id-less resource error = %v", err)
	}
	if fresh.ID() != "t3" {
		t.Errorf("ID() = %q, want t3", fresh.ID())
	}
}

func TestResourceSaveSendsOnlyDirtyFields(t *testing.T) {
	var saved map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/things/t1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&saved); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"title":"Buy oat milk","lastUpdateDate":1750000000000}`)
	})

	srv := newTestServer(t, mux)
	sess := newSession(srv.URL, 0, nil)
	r := newResource(sess, "/things", map[string]any{
		"id":    "t1",
		"title": "Buy milk",
		"note":  "from the corner shop",
	})

	if r.IsDirty() {
		t.Fatal("fresh resource reported dirty")
	}
	if err := r.Set("title", "Buy oat milk"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !r.IsDirty() {
		t.Fatal("Set() did not mark the resource dirty")
	}

	if err := r.Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if len(saved) != 1 || saved["title"] != "Buy oat milk" {
		t.Errorf("Save() sent %v, want only the changed title", saved)
	}
	if r.IsDirty() {
		t.Error("resource still dirty after Save()")
	}

	// Fields from the save response are merged back.
	if n, err := r.Int64("lastUpdateDate"); err != nil || n != 1750000000000 {
		t.Errorf("lastUpdateDate after Save() = %d, %v, want the server-provided value", n, err)
	}
}

func TestResourceSaveCleanIsNoop(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits++
	})

	srv := newTestServer(t, mux)
	sess := newSession(srv.URL, 0, nil)
	r := newResource(sess, "/things", map[string]any{"id": "t1", "title": "Buy milk"})

	if err := r.Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if hits != 0 {
		t.Errorf("clean Save() made %d network calls, want 0", hits)
	}
}

func TestResourceSaveWithoutID(t *testing.T) {
	r := newResource(nil, "/things", map[string]any{"title": "Buy milk"})
	_ = r.Set("title", "changed")
	if err := r.Save(context.Background()); !errors.Is(err, ErrAttributeNotFound) {
		t.Errorf("Save() without id error = %v, want ErrAttributeNotFound", err)
	}
}

func TestResourceRefreshDiscardsLocalChanges(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/things/t1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"t1","title":"server truth"}`)
	})

	srv := newTestServer(t, mux)
	sess := newSession(srv.URL, 0, nil)
	r := newResource(sess, "/things", map[string]any{"id": "t1", "title": "Buy milk"})

	_ = r.Set("title", "local edit")
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if title, _ := r.String("title"); title != "server truth" {
		t.Errorf("title after Refresh() = %q, want the server value", title)
	}
	if r.IsDirty() {
		t.Error("resource still dirty after Refresh()")
	}
}
