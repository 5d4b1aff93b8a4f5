package anydo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := newTestServer(t, handler)
	client, err := NewClient("user@example.com", "hunter2", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

// loginHandler counts successful form logins and sets a session cookie.
func loginHandler(logins *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostFormValue("j_username") == "" || r.PostFormValue("j_password") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		*logins++
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "test-session"})
		w.WriteHeader(http.StatusOK)
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var logins, meHits int

	mux := http.NewServeMux()
	mux.Handle("/j_spring_security_check", loginHandler(&logins))
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		meHits++
		if meHits <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"id":"u1","name":"Test","email":"user@example.com"}`)
	})

	client := newTestClient(t, mux)
	user, err := client.GetUser(context.Background(), false)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}

	name, err := user.Name()
	if err != nil || name != "Test" {
		t.Errorf("user.Name() = %q, %v, want %q", name, err, "Test")
	}
	if meHits != 3 {
		t.Errorf("GET /me hit %d times, want 3 (two 500s then success)", meHits)
	}
	if logins != 1 {
		t.Errorf("logged in %d times, want 1", logins)
	}
}

func TestGetGivesUpAfterRetries(t *testing.T) {
	var logins, meHits int

	mux := http.NewServeMux()
	mux.Handle("/j_spring_security_check", loginHandler(&logins))
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		meHits++
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "upstream down")
	})

	client := newTestClient(t, mux)
	_, err := client.GetUser(context.Background(), false)
	if err == nil {
		t.Fatal("GetUser() expected error, got nil")
	}
	if !errors.Is(err, ErrInternalServer) {
		t.Errorf("GetUser() error = %v, want ErrInternalServer", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetUser() error %v is not an *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("APIError.StatusCode = %d, want %d", apiErr.StatusCode, http.StatusServiceUnavailable)
	}
	if meHits != 1+maxGetRetries {
		t.Errorf("GET /me hit %d times, want %d", meHits, 1+maxGetRetries)
	}
}

func TestPostIsNotRetried(t *testing.T) {
	var logins, syncHits int

	mux := http.NewServeMux()
	mux.Handle("/j_spring_security_check", loginHandler(&logins))
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"u1"}`)
	})
	mux.HandleFunc("/api/v2/me/sync", func(w http.ResponseWriter, r *http.Request) {
		syncHits++
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := newTestClient(t, mux)
	user, err := client.GetUser(context.Background(), false)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}

	if _, err := user.Labels(context.Background(), LabelQuery{}); err == nil {
		t.Fatal("Labels() expected error, got nil")
	}
	if syncHits != 1 {
		t.Errorf("POST /api/v2/me/sync hit %d times, want 1 (writes are not retried)", syncHits)
	}
}

func TestReauthRetryKeepsOriginalURL(t *testing.T) {
	var logins, taskHits int
	var taskPaths []string

	mux := http.NewServeMux()
	mux.Handle("/j_spring_security_check", loginHandler(&logins))
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"u1"}`)
	})
	mux.HandleFunc("/me/tasks", func(w http.ResponseWriter, r *http.Request) {
		taskHits++
		taskPaths = append(taskPaths, r.URL.Path)
		if taskHits == 1 {
			// Session expired between login and this call.
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `[{"id":"t1","title":"Buy milk","note":"","assignedTo":"","status":"UNCHECKED","dueDate":0,"labels":null,"categoryId":"c1"}]`)
	})

	client := newTestClient(t, mux)
	user, err := client.GetUser(context.Background(), false)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}

	tasks, err := user.Tasks(context.Background(), TaskQuery{})
	if err != nil {
		t.Fatalf("Tasks() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Tasks() returned %d tasks, want 1", len(tasks))
	}

	if logins != 2 {
		t.Errorf("logged in %d times, want 2 (initial + re-auth)", logins)
	}
	if taskHits != 2 {
		t.Errorf("GET /me/tasks hit %d times, want 2 (401 then retry)", taskHits)
	}
	for _, path := range taskPaths {
		if path != "/me/tasks" {
			t.Errorf("retry hit %q, want the original URL /me/tasks", path)
		}
	}
}

func TestSecondUnauthorizedPropagates(t *testing.T) {
	var logins int

	mux := http.NewServeMux()
	mux.Handle("/j_spring_security_check", loginHandler(&logins))
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client := newTestClient(t, mux)
	_, err := client.GetUser(context.Background(), false)
	if err == nil {
		t.Fatal("GetUser() expected error, got nil")
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("GetUser() error = %v, want ErrUnauthorized", err)
	}
	if logins != 2 {
		t.Errorf("logged in %d times, want 2 (re-auth happens exactly once)", logins)
	}
}

func TestLoginFailureDoesNotRecurse(t *testing.T) {
	var loginHits int

	mux := http.NewServeMux()
	mux.HandleFunc("/j_spring_security_check", func(w http.ResponseWriter, r *http.Request) {
		loginHits++
		w.WriteHeader(http.StatusUnauthorized)
	})

	client := newTestClient(t, mux)
	_, err := client.GetUser(context.Background(), false)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("GetUser() error = %v, want ErrUnauthorized", err)
	}
	if loginHits != 1 {
		t.Errorf("login attempted %d times, want 1 (a failed login must not retry itself)", loginHits)
	}

	// The half-built session was discarded; a later call starts over.
	_, _ = client.GetUser(context.Background(), false)
	if loginHits != 2 {
		t.Errorf("login attempted %d times after second call, want 2", loginHits)
	}
}

func TestAPIErrorTaxonomy(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusConflict, ErrConflict},
		{http.StatusInternalServerError, ErrInternalServer},
		{http.StatusBadGateway, ErrInternalServer},
		{http.StatusNotFound, ErrInternalServer},
	}

	for _, tt := range tests {
		err := apiError("GET /me", tt.status, []byte("body"))
		if !errors.Is(err, tt.want) {
			t.Errorf("apiError(status %d) = %v, want kind %v", tt.status, err, tt.want)
		}
	}

	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusNoContent} {
		if err := apiError("GET /me", status, nil); err != nil {
			t.Errorf("apiError(status %d) = %v, want nil", status, err)
		}
	}
}
