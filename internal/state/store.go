package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store handles durable loop-state storage for a workspace.
type Store struct {
	basePath string
}

// NewStore creates a new Store rooted at the workspace directory.
// The control document lives at .ember/loop.md.
func NewStore(basePath string) *Store {
	return &Store{basePath: basePath}
}

// Path returns the path to the control document.
func (s *Store) Path() string {
	return filepath.Join(s.basePath, ".ember", "loop.md")
}

// loopHeader is the structured header block of the control document.
// Pointers distinguish missing fields from zero values.
type loopHeader struct {
	Iteration         *int    `yaml:"iteration"`
	MaxIterations     *int    `yaml:"max_iterations"`
	CompletionPromise *string `yaml:"completion_promise"`
}

// Load reads the control document and returns the active loop state, or nil
// when no loop is active. The document is advisory: any parse failure
// (missing blank-line delimiter, unparsable header, empty body) yields nil
// rather than an error, so a corrupted document degrades to "no loop".
func (s *Store) Load() *LoopState {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil
	}

	doc := strings.ReplaceAll(string(data), "\r\n", "\n")

	// Header and body are separated by the first blank line.
	sep := strings.Index(doc, "\n\n")
	if sep < 0 {
		return nil
	}
	head, body := doc[:sep], doc[sep+2:]

	var hdr loopHeader
	if err := yaml.Unmarshal([]byte(head), &hdr); err != nil {
		return nil
	}

	st := &LoopState{Iteration: 1, TaskPrompt: strings.TrimSpace(body)}
	if st.TaskPrompt == "" {
		return nil
	}

	if hdr.Iteration != nil {
		if *hdr.Iteration < 1 {
			return nil
		}
		st.Iteration = *hdr.Iteration
	}
	if hdr.MaxIterations != nil {
		if *hdr.MaxIterations < 0 {
			return nil
		}
		st.MaxIterations = *hdr.MaxIterations
	}
	// A literal null or empty string means no promise is configured.
	if hdr.CompletionPromise != nil && *hdr.CompletionPromise != "" {
		promise := *hdr.CompletionPromise
		st.CompletionPromise = &promise
	}

	return st
}

// Save overwrites the control document atomically, creating parent
// directories as needed. There is no file-level locking: the controller's
// per-session guard serializes writers, so last-writer-wins is acceptable.
func (s *Store) Save(st *LoopState) error {
	path := s.Path()
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "iteration: %d\n", st.Iteration)
	fmt.Fprintf(&b, "max_iterations: %d\n", st.MaxIterations)
	if promise, ok := st.Promise(); ok {
		fmt.Fprintf(&b, "completion_promise: %q\n", promise)
	} else {
		b.WriteString("completion_promise: null\n")
	}
	b.WriteString("\n")
	b.WriteString(st.TaskPrompt)
	b.WriteString("\n")

	tmp, err := os.CreateTemp(dir, ".loop-*.md")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// Clear removes the control document. A missing document counts as success.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}
