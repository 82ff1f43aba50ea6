// Package client talks to the schedpoint HTTP API and keeps client-side
// state for the current day: plans, actuals, categories and the date cursor.
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
	"sync"
	"time"

	"github.com/barsea/schedpoint/internal/models"
)

// ErrNotLoggedIn is returned before any network call when no token is held.
var ErrNotLoggedIn = errors.New("Please log in.")

// APIError is a non-2xx response.
type APIError struct {
	Status   int
	Messages []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return strings.Join(e.Messages, ", ")
}

// Client is a thin JSON client for the API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken starts the client with a previously issued token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current bearer token, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token. An empty token logs the client out locally.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// HasToken reports whether a token is held.
func (c *Client) HasToken() bool {
	return c.Token() != ""
}

// Signup registers a new account. It does not log in.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*User, error) {
	body := map[string]any{"user": map[string]string{"name": name, "email": email, "password": password}}

	var doc document
	if _, err := c.do(ctx, http.MethodPost, "/users", body, &doc); err != nil {
		return nil, err
	}
	return decodeUser(doc.Data)
}

// Login exchanges credentials for a token and stores it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]any{"user": map[string]string{"email": email, "password": password}}

	var doc document
	header, err := c.do(ctx, http.MethodPost, "/users/sign_in", body, &doc)
	if err != nil {
		return nil, err
	}

	token := strings.TrimSpace(strings.TrimPrefix(header.Get("Authorization"), "Bearer"))
	if token == "" {
		return nil, errors.New("login response carried no token")
	}
	c.SetToken(token)
	return decodeUser(doc.Data)
}

// Logout revokes the session on the server.
func (c *Client) Logout(ctx context.Context) error {
	if !c.HasToken() {
		return ErrNotLoggedIn
	}
	_, err := c.do(ctx, http.MethodDelete, "/users/sign_out", nil, nil)
	return err
}

// ListCategories returns all categories ordered by id.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	if !c.HasToken() {
		return nil, ErrNotLoggedIn
	}
	var doc listDocument
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/categories", nil, &doc); err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(doc.Data))
	for _, r := range doc.Data {
		cat, err := decodeCategory(r)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, nil
}

// ListBlocks returns the plans or actuals overlapping date (YYYY-MM-DD).
func (c *Client) ListBlocks(ctx context.Context, kind models.Kind, date string) ([]Block, error) {
	if !c.HasToken() {
		return nil, ErrNotLoggedIn
	}
	path := "/api/v1/" + kind.Plural()
	if date != "" {
		path += "?" + url.Values{"date": {date}}.Encode()
	}

	var doc listDocument
	if _, err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return normalizeBlocks(doc.Data, doc.Included)
}

// GetBlock fetches one block. The server only offers this for plans.
func (c *Client) GetBlock(ctx context.Context, kind models.Kind, id int64) (*Block, error) {
	if !c.HasToken() {
		return nil, ErrNotLoggedIn
	}
	var doc document
	if _, err := c.do(ctx, http.MethodGet, blockPath(kind, id), nil, &doc); err != nil {
		return nil, err
	}
	return normalizeBlock(doc.Data, doc.Included)
}

// CreateBlock creates a plan or actual.
func (c *Client) CreateBlock(ctx context.Context, kind models.Kind, fields BlockFields) (*Block, error) {
	if !c.HasToken() {
		return nil, ErrNotLoggedIn
	}
	var doc document
	body := map[string]any{kind.String(): fields}
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/"+kind.Plural(), body, &doc); err != nil {
		return nil, err
	}
	return normalizeBlock(doc.Data, doc.Included)
}

// UpdateBlock changes the non-nil fields of a block.
func (c *Client) UpdateBlock(ctx context.Context, kind models.Kind, id int64, fields BlockFields) (*Block, error) {
	if !c.HasToken() {
		return nil, ErrNotLoggedIn
	}
	var doc document
	body := map[string]any{kind.String(): fields}
	if _, err := c.do(ctx, http.MethodPut, blockPath(kind, id), body, &doc); err != nil {
		return nil, err
	}
	return normalizeBlock(doc.Data, doc.Included)
}

// DeleteBlock removes a block.
func (c *Client) DeleteBlock(ctx context.Context, kind models.Kind, id int64) error {
	if !c.HasToken() {
		return ErrNotLoggedIn
	}
	_, err := c.do(ctx, http.MethodDelete, blockPath(kind, id), nil, nil)
	return err
}

func blockPath(kind models.Kind, id int64) string {
	return "/api/v1/" + kind.Plural() + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
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
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.Header, &APIError{Status: resp.StatusCode, Messages: errorMessages(raw)}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.Header, nil
}

// errorMessages understands every error body shape the API produces.
func errorMessages(raw []byte) []string {
	var body struct {
		Errors  []string        `json:"errors"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Status  json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}

	switch {
	case len(body.Errors) > 0:
		return body.Errors
	case body.Error != "":
		return []string{body.Error}
	case body.Message != "":
		return []string{body.Message}
	}

	var status struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body.Status, &status) == nil && status.Message != "" {
		return []string{status.Message}
	}
	return nil
}
