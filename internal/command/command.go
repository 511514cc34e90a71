// Package command implements the loop initiation and cancellation surface.
// Initiation takes one free-text string: recognized flags configure the
// iteration budget and completion promise, everything else becomes the task
// prompt.
package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thruflo/ember/internal/state"
)

const (
	flagMaxIterations     = "--max-iterations"
	flagCompletionPromise = "--completion-promise"
)

// Request holds the parsed initiation parameters.
type Request struct {
	TaskPrompt        string
	MaxIterations     int
	MaxIterationsSet  bool
	CompletionPromise string // empty means no promise
}

// Parse extracts flags and the task prompt from a free-text loop command.
// Malformed flags and an empty resulting prompt are hard input errors: the
// command is rejected and no state is written.
func Parse(input string) (*Request, error) {
	tokens := tokenize(input)

	req := &Request{}
	var promptTokens []string

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		switch {
		case tok.value == flagMaxIterations || strings.HasPrefix(tok.value, flagMaxIterations+"="):
			value, ok := strings.CutPrefix(tok.value, flagMaxIterations+"=")
			if !ok {
				if i+1 >= len(tokens) {
					return nil, fmt.Errorf("%s requires a value", flagMaxIterations)
				}
				i++
				value = tokens[i].value
			}
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%s requires a non-negative integer, got %q", flagMaxIterations, value)
			}
			req.MaxIterations = n
			req.MaxIterationsSet = true

		case tok.value == flagCompletionPromise || strings.HasPrefix(tok.value, flagCompletionPromise+"="):
			value, ok := strings.CutPrefix(tok.value, flagCompletionPromise+"=")
			if !ok {
				if i+1 >= len(tokens) || strings.HasPrefix(tokens[i+1].value, "--") {
					return nil, fmt.Errorf("%s requires a value", flagCompletionPromise)
				}
				i++
				value = tokens[i].value
			}
			if value == "" {
				return nil, fmt.Errorf("%s requires a value", flagCompletionPromise)
			}
			req.CompletionPromise = value

		default:
			// Non-flag tokens join in order, original quoting preserved.
			promptTokens = append(promptTokens, tok.raw)
		}
	}

	req.TaskPrompt = strings.Join(promptTokens, " ")
	if req.TaskPrompt == "" {
		return nil, fmt.Errorf("task prompt is empty after flag removal")
	}

	return req, nil
}

// Initiate parses the command and writes the initial loop state. When the
// --max-iterations flag is omitted the workspace default applies. The
// returned confirmation warns explicitly when the loop is unbounded.
func Initiate(store *state.Store, input string, defaultMaxIterations int) (string, error) {
	req, err := Parse(input)
	if err != nil {
		return "", err
	}

	if store.Load() != nil {
		return "", fmt.Errorf("a loop is already active in this workspace; cancel it first")
	}

	max := defaultMaxIterations
	if req.MaxIterationsSet {
		max = req.MaxIterations
	}

	st := &state.LoopState{
		Iteration:     1,
		MaxIterations: max,
		TaskPrompt:    req.TaskPrompt,
	}
	if req.CompletionPromise != "" {
		st.CompletionPromise = &req.CompletionPromise
	}

	if err := store.Save(st); err != nil {
		return "", fmt.Errorf("failed to write loop state: %w", err)
	}

	return confirmation(st), nil
}

func confirmation(st *state.LoopState) string {
	var b strings.Builder

	if st.Bounded() {
		fmt.Fprintf(&b, "Loop started: iteration 1 of %d.", st.MaxIterations)
	} else {
		b.WriteString("Loop started: iteration 1.")
	}

	if promise, ok := st.Promise(); ok {
		fmt.Fprintf(&b, " Completion promise: %q.", promise)
	} else {
		b.WriteString(" No completion promise configured.")
	}

	if !st.Bounded() {
		b.WriteString("\nWarning: no iteration limit is set.")
		if _, ok := st.Promise(); !ok {
			b.WriteString("\nWarning: without a limit or completion promise, this loop runs until cancelled.")
		}
	}

	return b.String()
}

// Cancel removes the active loop state. It is idempotent: when no loop is
// active it reports that as success, not an error.
func Cancel(store *state.Store) (string, error) {
	st := store.Load()
	if st == nil {
		return "No active loop; nothing to cancel.", nil
	}

	if err := store.Clear(); err != nil {
		return "", fmt.Errorf("failed to cancel loop: %w", err)
	}

	capText := "unbounded"
	if st.Bounded() {
		capText = strconv.Itoa(st.MaxIterations)
	}
	return fmt.Sprintf("Cancelled loop at iteration %d (max iterations: %s).", st.Iteration, capText), nil
}
