package loop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thruflo/ember/internal/logging"
	"github.com/thruflo/ember/internal/promise"
	"github.com/thruflo/ember/internal/state"
)

// HistoryReader fetches the most recent agent-authored message text for a
// session. A failure or empty result is terminal for the active loop.
type HistoryReader interface {
	LatestAgentText(ctx context.Context, sessionID string) (string, error)
}

// Dispatcher sends a message into a session, fire-and-forget.
type Dispatcher interface {
	SendMessage(ctx context.Context, sessionID, text string) error
}

// Outcome indicates what an idle signal did to the loop.
type Outcome int

const (
	// OutcomeNoLoop means no loop state exists; the signal was a no-op.
	OutcomeNoLoop Outcome = iota
	// OutcomeBusy means a handler for the same session was already in
	// flight and the signal was dropped.
	OutcomeBusy
	// OutcomeAdvanced means the iteration counter moved and a new prompt
	// was dispatched.
	OutcomeAdvanced
	// OutcomeStoppedByLimit means the iteration budget was exhausted.
	OutcomeStoppedByLimit
	// OutcomeStoppedByCompletion means the completion promise was detected.
	OutcomeStoppedByCompletion
	// OutcomeStoppedByFailure means a collaborator call failed and the loop
	// shut down fail-safe.
	OutcomeStoppedByFailure
)

// String returns a human-readable description of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNoLoop:
		return "no loop"
	case OutcomeBusy:
		return "busy"
	case OutcomeAdvanced:
		return "advanced"
	case OutcomeStoppedByLimit:
		return "max iterations"
	case OutcomeStoppedByCompletion:
		return "completed"
	case OutcomeStoppedByFailure:
		return "collaborator failure"
	default:
		return "unknown"
	}
}

// Result contains the outcome of handling one idle signal.
type Result struct {
	Outcome   Outcome
	Iteration int
	Err       error
}

// ErrNoAgentText is reported when the history reader returns no usable
// agent output for the session.
var ErrNoAgentText = errors.New("no agent output available for session")

// Controller is the loop state machine. It owns no goroutines: all work
// happens inside handlers invoked by host-emitted events.
type Controller struct {
	store      *state.Store
	history    HistoryReader
	dispatcher Dispatcher
	guard      *sessionGuard
	log        *logging.Logger
}

// Options holds the collaborators for creating a Controller.
type Options struct {
	Store      *state.Store
	History    HistoryReader
	Dispatcher Dispatcher
	Logger     *logging.Logger // optional; defaults to the package logger
}

// NewController creates a Controller with explicit collaborators.
func NewController(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}
	return &Controller{
		store:      opts.Store,
		history:    opts.History,
		dispatcher: opts.Dispatcher,
		guard:      newSessionGuard(),
		log:        log,
	}
}

// HandleIdle processes one "session idle" signal. It runs the transition
// algorithm under the per-session guard; a second signal for the same
// session arriving while one is in flight is dropped, not queued.
func (c *Controller) HandleIdle(ctx context.Context, sessionID string) Result {
	if !c.guard.acquire(sessionID) {
		return Result{Outcome: OutcomeBusy}
	}
	defer c.guard.release(sessionID)

	st := c.store.Load()
	if st == nil {
		return Result{Outcome: OutcomeNoLoop}
	}

	log := c.log.With("session", sessionID)

	if st.Bounded() && st.Iteration >= st.MaxIterations {
		return c.stopAtLimit(ctx, sessionID, st, log)
	}

	text, err := c.history.LatestAgentText(ctx, sessionID)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrNoAgentText
	}
	if err != nil {
		// Fail-safe: without visibility into the agent's output the loop
		// could spin forever, so it stops instead of retrying.
		return c.stopOnFailure(sessionID, st, log, fmt.Errorf("failed to read agent output: %w", err))
	}

	if marker, ok := st.Promise(); ok && promise.Match(text, marker) {
		return c.stopOnCompletion(ctx, sessionID, st, marker, log)
	}

	st.Iteration++
	if err := c.store.Save(st); err != nil {
		return c.stopOnFailure(sessionID, st, log, fmt.Errorf("failed to persist state: %w", err))
	}

	if err := c.dispatcher.SendMessage(ctx, sessionID, buildPrompt(st)); err != nil {
		return c.stopOnFailure(sessionID, st, log, fmt.Errorf("failed to dispatch prompt: %w", err))
	}

	log.Info("loop advanced", "iteration", st.Iteration, "max", st.MaxIterations)
	return Result{Outcome: OutcomeAdvanced, Iteration: st.Iteration}
}

func (c *Controller) stopAtLimit(ctx context.Context, sessionID string, st *state.LoopState, log *logging.Logger) Result {
	if err := c.store.Clear(); err != nil {
		log.Warn("failed to clear state at limit", "error", err)
	}

	msg := fmt.Sprintf("Loop stopped: max iterations reached (%d of %d).", st.Iteration, st.MaxIterations)
	if err := c.dispatcher.SendMessage(ctx, sessionID, msg); err != nil {
		// The loop is already stopped; the notice is best-effort.
		log.Warn("failed to post limit notice", "error", err)
	}

	log.Info("loop stopped", "reason", OutcomeStoppedByLimit.String(), "iteration", st.Iteration)
	return Result{Outcome: OutcomeStoppedByLimit, Iteration: st.Iteration}
}

func (c *Controller) stopOnCompletion(ctx context.Context, sessionID string, st *state.LoopState, marker string, log *logging.Logger) Result {
	if err := c.store.Clear(); err != nil {
		log.Warn("failed to clear state on completion", "error", err)
	}

	msg := fmt.Sprintf("Loop complete: promise %q fulfilled after %d iteration(s).", marker, st.Iteration)
	if err := c.dispatcher.SendMessage(ctx, sessionID, msg); err != nil {
		log.Warn("failed to post completion notice", "error", err)
	}

	log.Info("loop stopped", "reason", OutcomeStoppedByCompletion.String(), "iteration", st.Iteration)
	return Result{Outcome: OutcomeStoppedByCompletion, Iteration: st.Iteration}
}

func (c *Controller) stopOnFailure(sessionID string, st *state.LoopState, log *logging.Logger, err error) Result {
	if clearErr := c.store.Clear(); clearErr != nil {
		log.Warn("failed to clear state on failure", "error", clearErr)
	}

	log.Error("loop stopped", "reason", OutcomeStoppedByFailure.String(), "iteration", st.Iteration, "error", err)
	return Result{Outcome: OutcomeStoppedByFailure, Iteration: st.Iteration, Err: err}
}

// buildPrompt assembles the next iteration's message: a short machine
// header, then the original task prompt verbatim. Re-sending the whole
// prompt every iteration tolerates lossy summarization of prior turns.
func buildPrompt(st *state.LoopState) string {
	var b strings.Builder

	if st.Bounded() {
		fmt.Fprintf(&b, "Iteration %d of %d.\n", st.Iteration, st.MaxIterations)
	} else {
		fmt.Fprintf(&b, "Iteration %d.\n", st.Iteration)
	}

	if marker, ok := st.Promise(); ok {
		fmt.Fprintf(&b, "When the task is fully complete, output <promise>%s</promise> in your reply.\n", marker)
	} else {
		b.WriteString("No completion promise is configured; this loop ends only by iteration limit or cancellation.\n")
	}

	b.WriteString("\n")
	b.WriteString(st.TaskPrompt)
	return b.String()
}
