package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/bundle"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/metrics"
)

// Defaults for the poll loop; both are configurable per client.
const (
	DefaultTaskTimeout  = 60 * time.Second
	DefaultPollInterval = 1 * time.Second
	rpcCallTimeout      = 10 * time.Second
)

// ErrTimeout marks a task that reached neither a terminal status nor a
// protocol failure before the wall-clock deadline. The remote task is NOT
// canceled on this path; the client just stops polling.
var ErrTimeout = errors.New("a2a: task timed out")

// ClientError is a protocol-level failure: transport errors, RPC error
// envelopes, missing task ids, and terminal failed/canceled statuses.
type ClientError struct {
	Op  string
	Msg string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("a2a %s: %s", e.Op, e.Msg)
}

// Client talks to one remote researcher worker.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	taskTimeout  time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
}

// Option configures the client.
type Option func(*Client)

// WithTaskTimeout sets the overall completion deadline.
func WithTaskTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.taskTimeout = d
		}
	}
}

// WithPollInterval sets the sleep between status polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithHTTPClient overrides the transport; mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// NewClient builds a client for the worker at baseURL.
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: rpcCallTimeout},
		taskTimeout:  DefaultTaskTimeout,
		pollInterval: DefaultPollInterval,
		logger:       logger,
	}
	for _, apply := range opts {
		apply(c)
	}
	return c
}

// SendMessage submits a research instruction and returns the created task.
// A result without a task id is a protocol error.
func (c *Client) SendMessage(ctx context.Context, text string) (*Task, error) {
	params := sendMessageParams{Message: message{
		Parts: []messagePart{{Type: "text", Text: text}},
	}}
	var result sendMessageResult
	if err := c.call(ctx, "message/send", params, &result); err != nil {
		return nil, err
	}
	if result.Task.ID == "" {
		return nil, &ClientError{Op: "message/send", Msg: "no task ID returned"}
	}
	return &result.Task, nil
}

// GetTask fetches the current status (and artifacts, once completed) of a
// previously submitted task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var result getTaskResult
	if err := c.call(ctx, "tasks/get", getTaskParams{TaskID: taskID}, &result); err != nil {
		return nil, err
	}
	metrics.RemoteTaskPolls.Inc()
	return &result.Task, nil
}

// WaitForCompletion polls the task at the configured interval until it
// reaches a terminal status or the overall deadline passes. Terminal
// failed/canceled statuses surface as ClientError; the deadline surfaces
// as ErrTimeout.
func (c *Client) WaitForCompletion(ctx context.Context, taskID string) (*Task, error) {
	deadline := time.Now().Add(c.taskTimeout)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		switch task.Status {
		case StatusCompleted:
			return task, nil
		case StatusFailed:
			msg := "Unknown error"
			if task.Error != nil && task.Error.Message != "" {
				msg = task.Error.Message
			}
			return nil, &ClientError{Op: "tasks/get", Msg: "task failed: " + msg}
		case StatusCanceled:
			return nil, &ClientError{Op: "tasks/get", Msg: "task was canceled"}
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.taskTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Delegate runs the full protocol for one company: submit, poll, extract.
// The returned bundle is the payload of the first artifact of type "data".
func (c *Client) Delegate(ctx context.Context, company, ticker string) (*bundle.ResearchBundle, error) {
	instruction := "Research " + company
	if ticker != "" {
		instruction = fmt.Sprintf("Research %s %s", ticker, company)
	}
	c.logger.Info("Delegating research to A2A worker",
		zap.String("instruction", instruction),
		zap.String("url", c.baseURL),
	)

	task, err := c.SendMessage(ctx, instruction)
	if err != nil {
		metrics.RemoteTasks.WithLabelValues("submit_error").Inc()
		return nil, err
	}
	c.logger.Info("Remote task created", zap.String("task_id", task.ID))

	task, err = c.WaitForCompletion(ctx, task.ID)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			metrics.RemoteTasks.WithLabelValues("timeout").Inc()
		} else {
			metrics.RemoteTasks.WithLabelValues("failed").Inc()
		}
		return nil, err
	}

	for _, artifact := range task.Artifacts {
		if artifact.Type != "data" {
			continue
		}
		var b bundle.ResearchBundle
		if err := json.Unmarshal(artifact.Data, &b); err != nil {
			metrics.RemoteTasks.WithLabelValues("bad_artifact").Inc()
			return nil, &ClientError{Op: "tasks/get", Msg: "malformed data artifact: " + err.Error()}
		}
		metrics.RemoteTasks.WithLabelValues("completed").Inc()
		return &b, nil
	}
	metrics.RemoteTasks.WithLabelValues("no_artifact").Inc()
	return nil, &ClientError{Op: "tasks/get", Msg: "no data artifact found in response"}
}

// Health probes the worker's liveness side-channel.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if json.NewDecoder(resp.Body).Decode(&body) != nil {
		return false
	}
	return body.Status == "healthy"
}

// FetchAgentCard retrieves the worker's capability descriptor.
func (c *Client) FetchAgentCard(ctx context.Context) (*AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/.well-known/agent.json", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	var card AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	return &card, nil
}

func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return &ClientError{Op: method, Msg: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return &ClientError{Op: method, Msg: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ClientError{Op: method, Msg: "connection error: " + err.Error()}
	}
	defer resp.Body.Close()

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &ClientError{Op: method, Msg: "malformed response: " + err.Error()}
	}
	if envelope.Error != nil {
		return &ClientError{Op: method, Msg: envelope.Error.Message}
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return &ClientError{Op: method, Msg: "malformed result: " + err.Error()}
		}
	}
	return nil
}
