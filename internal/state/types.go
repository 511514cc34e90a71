package state

// LoopState is the durable control record for a workspace's active loop.
// There is at most one per workspace, keyed by the workspace root rather
// than by session.
type LoopState struct {
	// Iteration is the current iteration number, starting at 1.
	Iteration int

	// MaxIterations caps the loop. Zero means unbounded.
	MaxIterations int

	// CompletionPromise is the sentinel string that ends the loop when it
	// appears delimited in agent output. Nil or empty means no
	// auto-completion by marker.
	CompletionPromise *string

	// TaskPrompt is the original task text, immutable after creation.
	// It is re-dispatched verbatim every iteration.
	TaskPrompt string
}

// Promise returns the configured completion promise and whether one is set.
// An empty string counts as unset.
func (s *LoopState) Promise() (string, bool) {
	if s.CompletionPromise == nil || *s.CompletionPromise == "" {
		return "", false
	}
	return *s.CompletionPromise, true
}

// Bounded reports whether the loop has an iteration cap.
func (s *LoopState) Bounded() bool {
	return s.MaxIterations > 0
}
