package anydo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// Client is the interface for communication with the Any.do API. It owns the
// user credentials and the single live session, logs in lazily on first use,
// and caches the current user record.
type Client struct {
	email    string
	password string
	baseURL  string
	timeout  time.Duration

	sess *session
	user *User
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host. Used by tests and
// for self-hosted proxies.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a client for the given credentials. No network call is
// made until the first API operation.
func NewClient(email, password string, opts ...Option) (*Client, error) {
	if email == "" {
		return nil, fmt.Errorf("anydo: email cannot be empty")
	}
	if password == "" {
		return nil, fmt.Errorf("anydo: password cannot be empty")
	}

	c := &Client{
		email:    email,
		password: password,
		baseURL:  DefaultBaseURL,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.sess = newSession(c.baseURL, c.timeout, c.logIn)
	return c, nil
}

// Email returns the account email this client authenticates as.
func (c *Client) Email() string {
	return c.email
}

// GetUser returns the currently logged-in user, fetching it on first use.
// With refresh the record is re-fetched and all cached entity lists on it
// are discarded.
func (c *Client) GetUser(ctx context.Context, refresh bool) (*User, error) {
	if c.user != nil && !refresh {
		return c.user, nil
	}

	body, err := c.sess.get(ctx, meEndpoint, nil)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("anydo: decode user: %w", err)
	}

	c.user = newUser(c.sess, data)
	return c.user, nil
}

// logIn authenticates with the credential form POST. The response sets the
// session cookie on the fresh jar; the body is not decoded.
func (c *Client) logIn(ctx context.Context, s *session) error {
	form := url.Values{
		"j_username":                   {c.email},
		"j_password":                   {c.password},
		"_spring_security_remember_me": {"on"},
	}

	_, _, err := s.do(ctx, "POST", loginEndpoint, requestOptions{
		formBody: form,
		raw:      true,
		noReauth: true,
	})
	return err
}

// NewUserInput holds the fields for account creation.
type NewUserInput struct {
	Name         string
	Email        string
	Password     string
	Emails       []string
	PhoneNumbers []string
}

// CreateUser registers a new Any.do account and returns a client logged in
// as that user. Name, email and password are required; the check avoids a
// pointless API round trip.
func CreateUser(ctx context.Context, input NewUserInput, opts ...Option) (*Client, error) {
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, resourceError("create user", "", fmt.Errorf("%w: name, email and password are required", ErrMissingArgument))
	}

	emails := input.Emails
	if len(emails) == 0 {
		emails = []string{input.Email}
	}
	phoneNumbers := input.PhoneNumbers
	if phoneNumbers == nil {
		phoneNumbers = []string{}
	}

	payload := map[string]any{
		"name":         input.Name,
		"username":     input.Email,
		"password":     input.Password,
		"emails":       emails,
		"phoneNumbers": phoneNumbers,
	}

	// Registration happens unauthenticated; a throwaway session without a
	// login hook is enough.
	c := &Client{
		email:    input.Email,
		password: input.Password,
		baseURL:  DefaultBaseURL,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	register := newSession(c.baseURL, c.timeout, nil)
	if _, err := register.post(ctx, userEndpoint, nil, payload); err != nil {
		return nil, err
	}

	c.sess = newSession(c.baseURL, c.timeout, c.logIn)
	if _, err := c.GetUser(ctx, false); err != nil {
		return nil, err
	}
	return c, nil
}
