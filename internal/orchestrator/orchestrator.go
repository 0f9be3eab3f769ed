// Package orchestrator owns the lifecycle of one conversation with the
// reasoning engine: it posts user messages, advances the resulting run, and
// resolves every tool-call batch the engine proposes before handing the final
// answer back.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-calendar-agent/internal/application"
	"github.com/example/campus-calendar-agent/internal/engine"
	"github.com/example/campus-calendar-agent/internal/logging"
)

// ErrBusy is returned when a conversation already has an active run. Callers
// surface it as a "busy, please wait" reply instead of queuing the message.
var ErrBusy = errors.New("orchestrator: conversation busy")

// RunError reports a run that ended without a usable answer: the engine
// declared it failed, cancelled or expired, the poll deadline elapsed, or the
// tool-round cap was hit. Send always pairs it with a non-empty fallback
// reply.
type RunError struct {
	Status engine.RunStatus
	Reason string
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e == nil {
		return "run failed"
	}
	if e.Reason == "" {
		return fmt.Sprintf("run ended with status %s", e.Status)
	}
	return fmt.Sprintf("run ended with status %s: %s", e.Status, e.Reason)
}

const (
	fallbackReply = "I'm sorry, I wasn't able to complete that request. Please try again in a moment."
	timeoutReply  = "I'm sorry, the request took too long to process. Please try again in a moment."
	busyReply     = "I'm still working on your previous request. Please wait for it to finish."
)

// Config tunes the orchestration loop.
type Config struct {
	// Model identifies the reasoning model requested for each run.
	Model string
	// PollInterval is the fixed wait between run status polls.
	PollInterval time.Duration
	// PollTimeout bounds the total time spent waiting on one run.
	PollTimeout time.Duration
	// MaxToolRounds caps the number of requires_action rounds a run may go
	// through before it is abandoned with a fallback reply.
	MaxToolRounds int
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 30 * time.Second
	}
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = 10
	}
	return c
}

// Conversation drives one reasoning-engine thread. A conversation accepts one
// message at a time: while a run is active further messages are rejected with
// ErrBusy rather than queued or interleaved.
type Conversation struct {
	engine   engine.Client
	registry *Registry
	cfg      Config
	threadID string
	logger   *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	busy chan struct{}
}

// StartConversation creates the engine thread backing a new conversation.
func StartConversation(ctx context.Context, client engine.Client, registry *Registry, cfg Config, logger *slog.Logger) (*Conversation, error) {
	if client == nil {
		return nil, fmt.Errorf("orchestrator: engine client is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("orchestrator: tool registry is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	thread, err := client.CreateThread(ctx)
	if err != nil {
		return nil, err
	}

	conversation := &Conversation{
		engine:   client,
		registry: registry,
		cfg:      cfg.withDefaults(),
		threadID: thread.ID,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepWithContext,
		busy:     make(chan struct{}, 1),
	}
	conversation.busy <- struct{}{}
	return conversation, nil
}

// ThreadID returns the engine thread backing this conversation.
func (c *Conversation) ThreadID() string {
	if c == nil {
		return ""
	}
	return c.threadID
}

// BusyReply is the user-facing text paired with ErrBusy.
func BusyReply() string { return busyReply }

// Send posts the user's message, runs the engine over it, resolves every
// tool-call batch, and returns the final reply. The reply is always
// non-empty: terminal failures produce an apologetic fallback alongside the
// error describing what went wrong.
func (c *Conversation) Send(ctx context.Context, userText string) (string, error) {
	if c == nil || c.engine == nil {
		return fallbackReply, fmt.Errorf("orchestrator: conversation not initialized")
	}

	select {
	case token := <-c.busy:
		defer func() { c.busy <- token }()
	default:
		return busyReply, ErrBusy
	}

	logger := c.loggerFor(ctx).With("thread_id", c.threadID)
	logger.InfoContext(ctx, "processing message")

	if _, err := c.engine.CreateMessage(ctx, c.threadID, engine.RoleUser, userText); err != nil {
		logger.ErrorContext(ctx, "failed to post message", "error", err)
		return fallbackReply, err
	}

	run, err := c.engine.CreateRun(ctx, c.threadID, engine.RunOptions{Model: c.cfg.Model})
	if err != nil {
		logger.ErrorContext(ctx, "failed to start run", "error", err)
		return fallbackReply, err
	}
	logger = logger.With("run_id", run.ID)

	return c.driveRun(ctx, logger, run, userText)
}

// driveRun advances the run state machine until a terminal state:
//
//	created -> in_progress -> {requires_action <-> in_progress} ->
//	{completed | failed | cancelled | expired}
//
// Polling is the only blocking step. It uses the configured interval and an
// overall deadline; transport errors during a poll are retried inside the
// loop and become a timeout-flavored failure once the deadline elapses. An
// abandoned run is marked failed locally and any late engine result is
// discarded.
func (c *Conversation) driveRun(ctx context.Context, logger *slog.Logger, run engine.Run, userText string) (string, error) {
	deadline := c.now().Add(c.cfg.PollTimeout)
	rounds := 0

	for {
		switch {
		case run.Status == engine.RunStatusCompleted:
			logger.InfoContext(ctx, "run completed", "tool_rounds", rounds)
			return c.extractReply(ctx, logger, userText), nil

		case run.Status.Terminal():
			logger.WarnContext(ctx, "run ended without answer", "status", run.Status, "last_error", run.LastError)
			return fallbackReply, &RunError{Status: run.Status, Reason: run.LastError}

		case run.Status == engine.RunStatusRequiresAction:
			rounds++
			if rounds > c.cfg.MaxToolRounds {
				logger.WarnContext(ctx, "tool round cap reached", "cap", c.cfg.MaxToolRounds)
				return fallbackReply, &RunError{
					Status: engine.RunStatusFailed,
					Reason: fmt.Sprintf("tool round cap of %d reached", c.cfg.MaxToolRounds),
				}
			}

			// Calls run sequentially in the order received: handler side
			// effects such as notifications must reach downstream observers
			// in request order.
			outputs := c.registry.DispatchBatch(ctx, run.PendingToolCalls)

			next, err := c.engine.SubmitToolOutputs(ctx, c.threadID, run.ID, outputs)
			if err != nil {
				logger.ErrorContext(ctx, "failed to submit tool outputs", "error", err)
				return fallbackReply, err
			}
			run = next

		default: // queued or in_progress
			if !c.now().Before(deadline) {
				logger.WarnContext(ctx, "run poll deadline elapsed")
				return timeoutReply, &RunError{Status: engine.RunStatusExpired, Reason: "poll deadline elapsed"}
			}
			if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
				return fallbackReply, err
			}

			next, err := c.engine.GetRun(ctx, c.threadID, run.ID)
			if err != nil {
				if !isRetryablePollError(err) {
					logger.ErrorContext(ctx, "failed to poll run", "error", err)
					return fallbackReply, err
				}
				// Transient poll failure: keep the last known state and let
				// the deadline bound the retries.
				logger.WarnContext(ctx, "run poll failed, retrying", "error", err)
				continue
			}
			run = next
		}
	}
}

// extractReply returns the newest assistant message whose text does not
// merely echo the user's input. Echoes are never used as replies; when no
// real assistant text exists the caller gets a generic apology instead of
// an empty string.
func (c *Conversation) extractReply(ctx context.Context, logger *slog.Logger, userText string) string {
	messages, err := c.engine.ListMessages(ctx, c.threadID)
	if err != nil {
		logger.WarnContext(ctx, "failed to list messages", "error", err)
		return fallbackReply
	}

	for _, message := range messages {
		if message.Role != engine.RoleAssistant {
			continue
		}
		text := strings.TrimSpace(message.Text)
		if text == "" || text == strings.TrimSpace(userText) {
			continue
		}
		return text
	}

	logger.WarnContext(ctx, "no assistant reply found on thread")
	return "I processed your message but couldn't retrieve the response. Please try again."
}

func (c *Conversation) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return c.logger
}

func isRetryablePollError(err error) bool {
	// Only downstream transport failures are retried, and only within the
	// poll loop's deadline. Everything else is terminal.
	return application.IsTransport(err)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
