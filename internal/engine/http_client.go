package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-calendar-agent/internal/application"
)

// HTTPClient talks JSON over HTTP to the reasoning engine's run API.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient constructs a client for the engine at the given base endpoint.
func NewHTTPClient(endpoint string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
	}
}

// CreateThread starts a new conversation thread.
func (c *HTTPClient) CreateThread(ctx context.Context) (Thread, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodPost, "/threads", nil, &thread); err != nil {
		return Thread{}, err
	}
	return thread, nil
}

// CreateMessage appends a message to a thread.
func (c *HTTPClient) CreateMessage(ctx context.Context, threadID, role, content string) (Message, error) {
	body := map[string]string{"role": role, "text": content}
	var message Message
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/threads/%s/messages", threadID), body, &message); err != nil {
		return Message{}, err
	}
	return message, nil
}

// CreateRun starts a run over the thread's current messages.
func (c *HTTPClient) CreateRun(ctx context.Context, threadID string, opts RunOptions) (Run, error) {
	var run Run
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/threads/%s/runs", threadID), opts, &run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// GetRun fetches the current state of a run.
func (c *HTTPClient) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	var run Run
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/threads/%s/runs/%s", threadID, runID), nil, &run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// SubmitToolOutputs returns the batch results for a requires_action run.
func (c *HTTPClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Run, error) {
	body := map[string][]ToolOutput{"tool_outputs": outputs}
	var run Run
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/threads/%s/runs/%s/submit_tool_outputs", threadID, runID), body, &run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListMessages returns the thread's messages, newest first.
func (c *HTTPClient) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	var response struct {
		Data []Message `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/threads/%s/messages", threadID), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &application.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &application.TransportError{
			Op:  method + " " + path,
			Err: fmt.Errorf("engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &application.TransportError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
