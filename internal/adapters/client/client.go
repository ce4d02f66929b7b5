// Package client talks to the GearGuard REST API. It implements
// workflow.RequestAPI so the board controller can run against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"gearguard/internal/core/domain"
	"gearguard/internal/core/workflow"

	"github.com/pkg/errors"
)

const apiPrefix = "/api/v1"

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Message    string
	// RequestID is the server's id for the failed call, when it sent one
	RequestID string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("server returned %d", e.StatusCode)
	} else {
		msg = fmt.Sprintf("%s (%d)", msg, e.StatusCode)
	}
	if e.RequestID != "" {
		msg += " [request " + e.RequestID + "]"
	}
	return msg
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// envelope is the server's response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID string          `json:"request_id"`
}

// User is the account behind a token
type User struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	FullName string      `json:"full_name"`
	Role     domain.Role `json:"role"`
}

// Viewer returns the workflow view of the user
func (u User) Viewer() domain.Viewer {
	return domain.Viewer{UserID: u.ID, Role: u.Role}
}

// Session is the result of a successful login
type Session struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Option configures a Client
type Option func(*Client)

// WithToken sets the bearer token sent with every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client is a GearGuard API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ workflow.RequestAPI = (*Client)(nil)

// New creates a client for the server at baseURL (scheme and host, without /api/v1)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ============================================================
// Auth
// ============================================================

// Login exchanges credentials for tokens and keeps the access token
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	body := map[string]string{"username": username, "password": password}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &session); err != nil {
		return nil, err
	}
	c.SetToken(session.AccessToken)
	return &session, nil
}

// Me returns the user the token belongs to
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ============================================================
// Requests
// ============================================================

// List loads the board. The server answers with a grouped object for the
// whole board and a flat array when filtered by equipment.
func (c *Client) List(ctx context.Context, filter workflow.ListFilter) (*workflow.Listing, error) {
	query := url.Values{}
	if filter.EquipmentID != nil {
		query.Set("equipment_id", strconv.FormatUint(uint64(*filter.EquipmentID), 10))
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/requests", query, nil, &raw); err != nil {
		return nil, err
	}
	return decodeListing(raw)
}

func decodeListing(raw json.RawMessage) (*workflow.Listing, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &workflow.Listing{}, nil
	}

	if trimmed[0] == '[' {
		var flat []domain.MaintenanceRequest
		if err := json.Unmarshal(trimmed, &flat); err != nil {
			return nil, errors.Wrap(err, "decode request list")
		}
		return &workflow.Listing{Flat: flat}, nil
	}

	var grouped map[domain.Stage][]domain.MaintenanceRequest
	if err := json.Unmarshal(trimmed, &grouped); err != nil {
		return nil, errors.Wrap(err, "decode board")
	}
	return &workflow.Listing{Grouped: grouped}, nil
}

// Get loads one request
func (c *Client) Get(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	return c.requestCall(ctx, http.MethodGet, "/requests/"+url.PathEscape(id), nil)
}

// Create files a new request
func (c *Client) Create(ctx context.Context, draft domain.RequestDraft) (*domain.MaintenanceRequest, error) {
	return c.requestCall(ctx, http.MethodPost, "/requests", draft)
}

// UpdateStage moves a request to another stage
func (c *Client) UpdateStage(ctx context.Context, id string, stage domain.Stage) (*domain.MaintenanceRequest, error) {
	body := map[string]string{"stage": string(stage)}
	return c.requestCall(ctx, http.MethodPatch, "/requests/"+url.PathEscape(id)+"/stage", body)
}

// Assign assigns technicianID, or the caller when it is nil
func (c *Client) Assign(ctx context.Context, id string, technicianID *uint) (*domain.MaintenanceRequest, error) {
	body := map[string]*uint{}
	if technicianID != nil {
		body["technician_id"] = technicianID
	}
	return c.requestCall(ctx, http.MethodPost, "/requests/"+url.PathEscape(id)+"/assign", body)
}

// Complete marks a request repaired. workflow.AutoDuration lets the server
// derive the hours from the start time.
func (c *Client) Complete(ctx context.Context, id string, durationHours float64) (*domain.MaintenanceRequest, error) {
	body := map[string]float64{"duration_hours": durationHours}
	return c.requestCall(ctx, http.MethodPost, "/requests/"+url.PathEscape(id)+"/complete", body)
}

// Scrap scraps a request and its equipment
func (c *Client) Scrap(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	return c.requestCall(ctx, http.MethodPost, "/requests/"+url.PathEscape(id)+"/scrap", nil)
}

// Calendar returns preventive requests scheduled between from and to
// (inclusive dates), keyed by YYYY-MM-DD
func (c *Client) Calendar(ctx context.Context, from, to time.Time) (map[string][]domain.MaintenanceRequest, error) {
	query := url.Values{}
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))

	days := map[string][]domain.MaintenanceRequest{}
	if err := c.do(ctx, http.MethodGet, "/requests/calendar", query, nil, &days); err != nil {
		return nil, err
	}
	return days, nil
}

// AvailableTechnicians lists active technicians, optionally of one team
func (c *Client) AvailableTechnicians(ctx context.Context, teamID *uint) ([]domain.Technician, error) {
	query := url.Values{}
	if teamID != nil {
		query.Set("team_id", strconv.FormatUint(uint64(*teamID), 10))
	}

	var techs []domain.Technician
	if err := c.do(ctx, http.MethodGet, "/technicians/available", query, nil, &techs); err != nil {
		return nil, err
	}
	return techs, nil
}

func (c *Client) requestCall(ctx context.Context, method, path string, body interface{}) (*domain.MaintenanceRequest, error) {
	var r domain.MaintenanceRequest
	if err := c.do(ctx, method, path, nil, body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ============================================================
// Transport
// ============================================================

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read %s %s", method, path)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return errors.Wrapf(err, "decode %s %s", method, path)
		}
	}

	if resp.StatusCode >= 300 || (len(raw) > 0 && !env.Success) {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		reqID := env.RequestID
		if reqID == "" {
			reqID = resp.Header.Get("X-Request-ID")
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg, RequestID: reqID}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}
