package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lostfound/tui/internal/filter"
)

// ErrUnauthorized is wrapped by RequestError when the server rejects the
// session token.
var ErrUnauthorized = errors.New("unauthorized")

// RequestError describes a failed REST call. Detail is the server's
// human-readable message when it sent one.
type RequestError struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": %d", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": " + e.Detail)
	}
	if e.Err != nil && e.Detail == "" {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// queryParams maps filter dimensions to the admin API parameter names.
var queryParams = map[filter.Dimension]string{
	filter.Section: "section",
	filter.Time:    "time_filter",
	filter.Status:  "status",
	filter.Type:    "report_type",
}

// HTTPClient makes REST calls to the lost-and-found backend.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g.
// "http://127.0.0.1:8000"). A zero timeout defaults to 10s.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Login sends POST /api/auth/login.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchReports fetches /api/admin/reports narrowed by q.
func (c *HTTPClient) FetchReports(ctx context.Context, q filter.Query) ([]Report, error) {
	params := make([]string, 0, len(q))
	for _, s := range q {
		name, ok := queryParams[s.Dimension]
		if !ok {
			return nil, fmt.Errorf("fetch reports: %w: %q", filter.ErrUnknownDimension, s.Dimension)
		}
		params = append(params, url.QueryEscape(name)+"="+url.QueryEscape(s.Value))
	}
	path := "/api/admin/reports"
	if len(params) > 0 {
		path += "?" + strings.Join(params, "&")
	}

	var out []Report
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchMatches fetches /api/admin/matches.
func (c *HTTPClient) FetchMatches(ctx context.Context) ([]Match, error) {
	var out []Match
	if err := c.do(ctx, http.MethodGet, "/api/admin/matches", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetReportStatus sends PATCH /api/admin/reports/{id}/status.
func (c *HTTPClient) SetReportStatus(ctx context.Context, id int64, status ReportStatus) (*StatusAck, error) {
	body := map[string]string{"status": string(status)}
	var out StatusAck
	path := "/api/admin/reports/" + strconv.FormatInt(id, 10) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, body, &out); err != nil {
		return nil, err
	}
	if out.NewStatus == "" {
		out.NewStatus = status
	}
	return &out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Op: op, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		rerr := &RequestError{Op: op, Status: resp.StatusCode, Detail: errorDetail(respBody)}
		if resp.StatusCode == http.StatusUnauthorized {
			rerr.Err = ErrUnauthorized
		}
		return rerr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorDetail extracts FastAPI-style {"detail": "..."} messages, falling
// back to the trimmed body.
func errorDetail(body []byte) string {
	var e struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(body, &e) == nil && e.Detail != nil {
		if s, ok := e.Detail.(string); ok {
			return s
		}
		if data, err := json.Marshal(e.Detail); err == nil {
			return string(data)
		}
	}
	return strings.TrimSpace(string(body))
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
