// Package a2a implements the client side of the request/poll research
// delegation protocol: JSON-RPC 2.0 over HTTP with message/send and
// tasks/get methods, plus the plain-HTTP health and agent-card probes.
package a2a

import "encoding/json"

// TaskStatus values reported by the remote worker. Completed, failed and
// canceled are terminal; a task is never resurrected out of them.
const (
	StatusSubmitted = "submitted"
	StatusWorking   = "working"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// IsTerminal reports whether a status permits no further transition.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type messagePart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type message struct {
	Parts []messagePart `json:"parts"`
}

type sendMessageParams struct {
	Message message `json:"message"`
}

type getTaskParams struct {
	TaskID string `json:"taskId"`
}

// Artifact is one output attached to a completed task. Only artifacts of
// type "data" carry a research payload.
type Artifact struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Task is the protocol-level task entity.
type Task struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	Error     *taskError `json:"error,omitempty"`
}

type taskError struct {
	Message string `json:"message"`
}

type sendMessageResult struct {
	Task Task `json:"task"`
}

type getTaskResult struct {
	Task Task `json:"task"`
}

// AgentCard is the capability descriptor served by the remote worker.
type AgentCard struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	URL          string          `json:"url"`
	Version      string          `json:"version"`
	Capabilities json.RawMessage `json:"capabilities,omitempty"`
	Skills       json.RawMessage `json:"skills,omitempty"`
}
