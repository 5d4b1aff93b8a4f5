package anydo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds every HTTP round trip so a slow API cannot hang
	// the caller.
	DefaultTimeout = 5 * time.Second

	// maxGetRetries is the number of extra attempts for GET requests that hit
	// a 5xx response. Only GETs are retried; they are the idempotent calls.
	maxGetRetries = 2
)

// loginFunc authenticates against the API using the session's fresh cookie
// jar. It is invoked lazily on first use and again whenever a call has to
// recover from a 401.
type loginFunc func(ctx context.Context, s *session) error

// session wraps an http.Client with the Any.do request defaults: JSON
// headers, a bounded timeout, GET retries on server errors, and a single
// transparent re-login when a call comes back 401. The underlying client is
// replaced wholesale on re-authentication; it is never mutated in place.
type session struct {
	baseURL string
	timeout time.Duration
	login   loginFunc

	hc *http.Client
}

func newSession(baseURL string, timeout time.Duration, login loginFunc) *session {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &session{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		login:   login,
	}
}

// requestOptions carries the per-call knobs of the base request wrapper.
type requestOptions struct {
	params   url.Values
	headers  map[string]string
	jsonBody any
	formBody url.Values

	// raw skips JSON handling and hands back the response as-is
	raw bool

	// noReauth disables the 401 re-login retry; set for the login call
	// itself so a bad credential fails instead of recursing
	noReauth bool
}

func (s *session) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	body, _, err := s.do(ctx, http.MethodGet, path, requestOptions{params: params})
	return body, err
}

func (s *session) post(ctx context.Context, path string, params url.Values, payload any) (json.RawMessage, error) {
	body, _, err := s.do(ctx, http.MethodPost, path, requestOptions{params: params, jsonBody: payload})
	return body, err
}

func (s *session) put(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, _, err := s.do(ctx, http.MethodPut, path, requestOptions{jsonBody: payload})
	return body, err
}

// delete returns the raw response; DELETE bodies are not JSON-decoded.
func (s *session) delete(ctx context.Context, path string) (*http.Response, error) {
	_, resp, err := s.do(ctx, http.MethodDelete, path, requestOptions{raw: true})
	return resp, err
}

// do issues a request with default options applied. A 401 response triggers
// one re-authentication followed by a single retry of the original URL; a
// second 401 propagates to the caller.
func (s *session) do(ctx context.Context, method, path string, opt requestOptions) (json.RawMessage, *http.Response, error) {
	op := method + " " + path

	if err := s.ensure(ctx); err != nil {
		return nil, nil, err
	}

	refreshed := false
	for {
		resp, body, err := s.send(ctx, method, path, opt)
		if err != nil {
			return nil, nil, fmt.Errorf("anydo %s: %w", op, err)
		}

		if apiErr := apiError(op, resp.StatusCode, body); apiErr != nil {
			if errors.Is(apiErr, ErrUnauthorized) && !opt.noReauth && !refreshed {
				refreshed = true
				if err := s.refresh(ctx); err != nil {
					return nil, nil, err
				}
				continue
			}
			return nil, nil, apiErr
		}

		if opt.raw || method == http.MethodDelete {
			return nil, resp, nil
		}
		return json.RawMessage(body), resp, nil
	}
}

// ensure lazily generates the authenticated session on first use.
func (s *session) ensure(ctx context.Context) error {
	if s.hc != nil {
		return nil
	}
	return s.refresh(ctx)
}

// refresh replaces the transport with a fresh cookie jar and logs in again.
// On login failure the half-built session is discarded so the next call
// starts over.
func (s *session) refresh(ctx context.Context) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("anydo: create cookie jar: %w", err)
	}

	s.hc = &http.Client{
		Jar:     jar,
		Timeout: s.timeout,
	}

	if s.login != nil {
		if err := s.login(ctx, s); err != nil {
			s.hc = nil
			return err
		}
	}
	return nil
}

// send performs the network round trip, retrying GETs on 5xx responses. The
// returned body is fully read and the response closed.
func (s *session) send(ctx context.Context, method, path string, opt requestOptions) (*http.Response, []byte, error) {
	attempts := 1
	if method == http.MethodGet {
		attempts += maxGetRetries
	}

	var (
		resp *http.Response
		body []byte
	)
	for i := 0; i < attempts; i++ {
		req, err := s.buildRequest(ctx, method, path, opt)
		if err != nil {
			return nil, nil, err
		}

		resp, err = s.hc.Do(req)
		if err != nil {
			return nil, nil, err
		}

		body, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read response body: %w", err)
		}

		if resp.StatusCode < 500 || resp.StatusCode > 599 {
			break
		}
	}
	return resp, body, nil
}

func (s *session) buildRequest(ctx context.Context, method, path string, opt requestOptions) (*http.Request, error) {
	u := s.baseURL + path
	if len(opt.params) > 0 {
		u += "?" + opt.params.Encode()
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch {
	case opt.formBody != nil:
		reader = strings.NewReader(opt.formBody.Encode())
		contentType = "application/x-www-form-urlencoded"
	case opt.jsonBody != nil:
		encoded, err := json.Marshal(opt.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "deflate")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range opt.headers {
		req.Header.Set(k, v)
	}

	// No keep-alive reuse across calls; the API closes sessions aggressively.
	req.Close = true

	return req, nil
}
