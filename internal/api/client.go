// Package api implements the client for the attendance recognition service.
// All network-boundary failures are converted to typed errors or outcomes
// here; nothing past this package sees a raw HTTP status.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnauthorized signals a 401-class response. It is the sole trigger for
// discarding the stored credential and forcing re-authentication.
var ErrUnauthorized = errors.New("credential no longer accepted")

// ErrMissingCapture is returned locally when an enrollment draft is submitted
// without a captured frame. No network call is made.
var ErrMissingCapture = errors.New("no captured frame attached")

// APIError is a service rejection with a displayable message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Client talks to the attendance service.
type Client struct {
	Url       string
	parsedURL *url.URL
	token     string
	http      *http.Client
}

// New creates an unauthenticated client. Recognition submissions can take
// a while server-side, hence the generous default timeout.
func New(rawURL string, timeout time.Duration) (*Client, error) {
	apiURL := strings.TrimRight(rawURL, "/") + "/api"
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid attendance service URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		Url:       apiURL,
		parsedURL: parsed,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

// NewFromToken creates a client reusing a previously issued credential.
func NewFromToken(rawURL, token string, timeout time.Duration) (*Client, error) {
	c, err := New(rawURL, timeout)
	if err != nil {
		return nil, err
	}
	c.token = token
	return c, nil
}

// Token returns the current bearer credential, empty when logged out.
func (c *Client) Token() string {
	return c.token
}

// InvalidateToken discards the credential after a 401-class response.
func (c *Client) InvalidateToken() {
	c.token = ""
}

// resolveURL builds a full URL from the base API URL and the given path
// segments. If the last segment contains a query string it is split so
// JoinPath only receives the path portion.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	last := pathSegments[len(pathSegments)-1]
	if pathPart, query, ok := strings.Cut(last, "?"); ok {
		pathSegments[len(pathSegments)-1] = pathPart
		result := c.parsedURL.JoinPath(pathSegments...)
		result.RawQuery = query
		return result.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// loginResponse covers both login variants: students receive "token",
// admins "access_token".
type loginResponse struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Token       string          `json:"token"`
	AccessToken string          `json:"access_token"`
	Student     *StudentProfile `json:"student"`
	Admin       *AdminProfile   `json:"admin"`
}

// LoginStudent exchanges student credentials for a bearer token.
func (c *Client) LoginStudent(ctx context.Context, email, password string) (*LoginResult, error) {
	out, err := doPostJSON[loginResponse](ctx, c, "students/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if !out.Success || out.Token == "" {
		return nil, &APIError{Message: messageOr(out.Message, "login failed")}
	}
	c.token = out.Token
	return &LoginResult{Token: out.Token, Student: out.Student}, nil
}

// LoginAdmin exchanges administrator credentials for a bearer token.
func (c *Client) LoginAdmin(ctx context.Context, email, password string) (*LoginResult, error) {
	out, err := doPostJSON[loginResponse](ctx, c, "admin/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if !out.Success || out.AccessToken == "" {
		return nil, &APIError{Message: messageOr(out.Message, "login failed")}
	}
	c.token = out.AccessToken
	return &LoginResult{Token: out.AccessToken, Admin: out.Admin}, nil
}

// RegisterStudent creates a student account without a reference face.
func (c *Client) RegisterStudent(ctx context.Context, draft RegistrationDraft) (*StudentProfile, error) {
	out, err := doPostJSON[struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Student *StudentProfile `json:"student"`
	}](ctx, c, "students/register", draft)
	if err != nil {
		return nil, err
	}
	if !out.Success || out.Student == nil {
		return nil, &APIError{Message: messageOr(out.Message, "registration failed")}
	}
	return out.Student, nil
}

// RegisterAdmin creates an administrator account.
func (c *Client) RegisterAdmin(ctx context.Context, draft AdminRegistration) (*AdminProfile, error) {
	out, err := doPostJSON[struct {
		Success bool          `json:"success"`
		Message string        `json:"message"`
		Admin   *AdminProfile `json:"admin"`
	}](ctx, c, "admin/register", draft)
	if err != nil {
		return nil, err
	}
	if !out.Success || out.Admin == nil {
		return nil, &APIError{Message: messageOr(out.Message, "registration failed")}
	}
	return out.Admin, nil
}

// StudentProfile fetches the authenticated student's own profile.
func (c *Client) StudentProfile(ctx context.Context) (*StudentProfile, error) {
	out, err := doGetJSON[struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Student *StudentProfile `json:"student"`
	}](ctx, c, "students/profile")
	if err != nil {
		return nil, err
	}
	if !out.Success || out.Student == nil {
		return nil, &APIError{Message: messageOr(out.Message, "could not load profile")}
	}
	return out.Student, nil
}

// AdminProfile fetches the authenticated administrator's own profile.
func (c *Client) AdminProfile(ctx context.Context) (*AdminProfile, error) {
	out, err := doGetJSON[struct {
		Success bool          `json:"success"`
		Message string        `json:"message"`
		Admin   *AdminProfile `json:"admin"`
	}](ctx, c, "admin/profile")
	if err != nil {
		return nil, err
	}
	if !out.Success || out.Admin == nil {
		return nil, &APIError{Message: messageOr(out.Message, "could not load profile")}
	}
	return out.Admin, nil
}

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
