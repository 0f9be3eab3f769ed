package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/example/campus-calendar-agent/internal/engine"
	"github.com/example/campus-calendar-agent/internal/logging"
)

// Result is the structured outcome of one tool call. Exactly one Result is
// produced for every call in a batch.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler executes one tool call. Handlers are pure adapters: they validate
// and convert arguments, delegate to the booking services, and report the
// outcome as a Result rather than an error.
type Handler func(ctx context.Context, args json.RawMessage) Result

// Registry is the fixed table mapping tool names to handlers. It is built
// once at startup and never mutated afterwards.
type Registry struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{handlers: make(map[string]Handler), logger: logger}
}

// Register binds a tool name to its handler. Registering a duplicate name is
// a programming error and panics during startup wiring.
func (r *Registry) Register(name string, handler Handler) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("orchestrator: tool %q registered twice", name))
	}
	r.handlers[name] = handler
}

// ToolNames returns the registered tool names in sorted order.
func (r *Registry) ToolNames() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch executes a single tool call. An unknown tool name or a panicking
// handler yields a structured error result, never a crash.
func (r *Registry) Dispatch(ctx context.Context, call engine.ToolCall) (result Result) {
	handler, ok := r.handlers[call.Name]
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("unknown tool: %s", call.Name)}
	}

	defer func() {
		if p := recover(); p != nil {
			r.loggerFor(ctx).ErrorContext(ctx, "tool handler panicked", "tool", call.Name, "panic", p)
			result = Result{Success: false, Error: fmt.Sprintf("tool %s failed", call.Name)}
		}
	}()

	return handler(ctx, call.Arguments)
}

// DispatchBatch executes every call in order, sequentially. A single call's
// failure does not abort the batch: all remaining calls are still dispatched
// and every call receives exactly one output.
func (r *Registry) DispatchBatch(ctx context.Context, calls []engine.ToolCall) []engine.ToolOutput {
	outputs := make([]engine.ToolOutput, 0, len(calls))
	for _, call := range calls {
		result := r.Dispatch(ctx, call)
		if !result.Success {
			r.loggerFor(ctx).WarnContext(ctx, "tool call failed", "tool", call.Name, "call_id", call.ID, "error", result.Error)
		}

		encoded, err := json.Marshal(result)
		if err != nil {
			encoded = []byte(fmt.Sprintf(`{"success":false,"error":"tool %s produced an unserializable result"}`, call.Name))
		}
		outputs = append(outputs, engine.ToolOutput{CallID: call.ID, Output: string(encoded)})
	}
	return outputs
}

func (r *Registry) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}
