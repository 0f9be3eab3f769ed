// Package engine defines the contract with the hosted conversational
// reasoning engine. The engine turns a thread of messages into either a final
// assistant message or a batch of proposed tool calls; everything else about
// it is opaque to this service.
package engine

import (
	"context"
	"encoding/json"
)

// RunStatus enumerates the lifecycle states a run reports.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
)

// Terminal reports whether the status ends the run.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	}
	return false
}

// Thread identifies one conversation held by the engine.
type Thread struct {
	ID string `json:"id"`
}

// Message is one entry on a thread.
type Message struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Text string `json:"text"`
}

// Roles the engine distinguishes on a thread.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolCall is one action the engine asks the orchestrator to perform.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolOutput carries the result of one tool call back to the engine.
type ToolOutput struct {
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// Run is the engine's view of one in-flight conversation turn.
type Run struct {
	ID               string     `json:"id"`
	ThreadID         string     `json:"thread_id"`
	Status           RunStatus  `json:"status"`
	PendingToolCalls []ToolCall `json:"pending_tool_calls,omitempty"`
	LastError        string     `json:"last_error,omitempty"`
}

// RunOptions tune a new run.
type RunOptions struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Client is the orchestrator's window onto the reasoning engine. All calls
// block on network I/O and honor context cancellation; failures to reach the
// engine surface as TransportError values from the concrete implementation.
type Client interface {
	CreateThread(ctx context.Context) (Thread, error)
	CreateMessage(ctx context.Context, threadID, role, content string) (Message, error)
	CreateRun(ctx context.Context, threadID string, opts RunOptions) (Run, error)
	GetRun(ctx context.Context, threadID, runID string) (Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Run, error)
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}
