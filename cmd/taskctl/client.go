package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fyrsmithlabs/taskmaster/internal/taskstore"
)

// HealthResponse matches internal/http HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
	Tasks  int    `json:"tasks"`
}

// RouteResponse matches the body of POST /api/ai
type RouteResponse struct {
	Call   map[string]any   `json:"call"`
	Result json.RawMessage  `json:"result"`
	Tasks  []taskstore.Task `json:"tasks"`
}

// APIError is a failed request decoded from the {ok:false, error} envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Client calls the taskmaster JSON API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// List returns all tasks.
func (c *Client) List(ctx context.Context) ([]taskstore.Task, error) {
	var tasks []taskstore.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks)
	return tasks, err
}

// Add creates a task.
func (c *Client) Add(ctx context.Context, description string) (taskstore.Task, error) {
	var task taskstore.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", map[string]string{"description": description}, &task)
	return task, err
}

// Complete marks a task completed.
func (c *Client) Complete(ctx context.Context, id int) (taskstore.Task, error) {
	var task taskstore.Task
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/tasks/%d/complete", id), nil, &task)
	return task, err
}

// Remove deletes a task.
func (c *Client) Remove(ctx context.Context, id int) (taskstore.Task, error) {
	var task taskstore.Task
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, &task)
	return task, err
}

// Ask routes free text through the server's language model.
func (c *Client) Ask(ctx context.Context, text string) (*RouteResponse, error) {
	var resp RouteResponse
	if err := c.do(ctx, http.MethodPost, "/api/ai", map[string]string{"text": text}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health returns the server health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error == "" {
			return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		}
		return &APIError{Status: resp.StatusCode, Message: envelope.Error}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
