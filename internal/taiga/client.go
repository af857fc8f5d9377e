// Package taiga is an HTTP client for the Taiga v1 API.
package taiga

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brianberg/taigasync/internal/domain/project"
	"github.com/brianberg/taigasync/internal/domain/timeline"
	"github.com/brianberg/taigasync/internal/metrics"
	"github.com/brianberg/taigasync/internal/remote"
	"github.com/brianberg/taigasync/internal/session"
)

// DefaultBaseURL is the hosted Taiga API root.
const DefaultBaseURL = "https://api.taiga.io/api/v1"

// requestTimeout bounds every call; a request that has reached the transport
// layer is not aborted by caller-side cancellation, so at-most-once delivery
// rests on this single attempt.
const requestTimeout = 30 * time.Second

// TokenSource supplies the bearer token attached to authenticated requests.
type TokenSource interface {
	Token() (string, bool)
}

// Client issues authenticated requests against the Taiga API. Failures are
// reported through the remote error taxonomy; no call is retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

// NewClient creates a client. An empty baseURL selects the hosted API.
func NewClient(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		tokens:     tokens,
		logger:     logger,
	}
}

type signInRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignIn exchanges credentials for an authenticated user. Rejected
// credentials surface as a transport failure like any other non-2xx status.
func (c *Client) SignIn(ctx context.Context, username, password string) (*session.User, error) {
	body := signInRequest{Type: "normal", Username: username, Password: password}
	var user session.User
	if err := c.do(ctx, "sign_in", http.MethodPost, "/auth", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListProjects fetches the projects the given member belongs to.
func (c *Client) ListProjects(ctx context.Context, memberID int) ([]project.Project, error) {
	var projects []project.Project
	path := fmt.Sprintf("/projects?member=%d", memberID)
	if err := c.do(ctx, "list_projects", http.MethodGet, path, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject fetches a single project.
func (c *Client) GetProject(ctx context.Context, projectID int) (*project.Project, error) {
	var proj project.Project
	path := fmt.Sprintf("/projects/%d", projectID)
	if err := c.do(ctx, "get_project", http.MethodGet, path, nil, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

// ProjectTimeline fetches the full timeline of a project.
func (c *Client) ProjectTimeline(ctx context.Context, projectID int) ([]timeline.Entry, error) {
	var entries []timeline.Entry
	path := fmt.Sprintf("/timeline/project/%d", projectID)
	if err := c.do(ctx, "project_timeline", http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	reqID := uuid.NewString()
	start := time.Now()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveRemoteRequest(op, "error", time.Since(start))
		c.logger.Warn("request failed",
			"request_id", reqID, "operation", op, "timeout", isTimeout(err), "error", err)
		return fmt.Errorf("%w: %s: %v", remote.ErrTransport, op, err)
	}
	defer resp.Body.Close()

	metrics.ObserveRemoteRequest(op, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", remote.ErrNotFound, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("request rejected",
			"request_id", reqID, "operation", op, "status", resp.StatusCode)
		return fmt.Errorf("%w: %s: status %d", remote.ErrTransport, op, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: reading body: %v", remote.ErrTransport, op, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", remote.ErrMalformed, op, err)
	}

	c.logger.Debug("request complete",
		"request_id", reqID, "operation", op,
		"status", resp.StatusCode, "duration", time.Since(start))
	return nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
