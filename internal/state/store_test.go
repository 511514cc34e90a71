package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	store := NewStore(tmpDir)

	st := &LoopState{
		Iteration:         3,
		MaxIterations:     10,
		CompletionPromise: strPtr("SHIPPED"),
		TaskPrompt:        "Build a todo API",
	}

	require.NoError(t, store.Save(st))

	// The document lands at the fixed workspace path.
	_, err := os.Stat(filepath.Join(tmpDir, ".ember", "loop.md"))
	require.NoError(t, err)

	got := store.Load()
	require.NotNil(t, got)
	assert.Equal(t, 3, got.Iteration)
	assert.Equal(t, 10, got.MaxIterations)
	promise, ok := got.Promise()
	assert.True(t, ok)
	assert.Equal(t, "SHIPPED", promise)
	assert.Equal(t, "Build a todo API", got.TaskPrompt)
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		state   *LoopState
		promise string
		wantSet bool
	}{
		{
			name:  "no promise",
			state: &LoopState{Iteration: 1, MaxIterations: 0, TaskPrompt: "task"},
		},
		{
			name:  "empty promise normalizes to absent",
			state: &LoopState{Iteration: 1, MaxIterations: 5, CompletionPromise: strPtr(""), TaskPrompt: "task"},
		},
		{
			name:    "multi word promise",
			state:   &LoopState{Iteration: 1000, MaxIterations: 1000, CompletionPromise: strPtr("X Y Z"), TaskPrompt: "task"},
			promise: "X Y Z",
			wantSet: true,
		},
		{
			name:  "multiline prompt",
			state: &LoopState{Iteration: 7, MaxIterations: 0, TaskPrompt: "line one\nline two\nline three"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := NewStore(t.TempDir())
			require.NoError(t, store.Save(tt.state))

			got := store.Load()
			require.NotNil(t, got)
			assert.Equal(t, tt.state.Iteration, got.Iteration)
			assert.Equal(t, tt.state.MaxIterations, got.MaxIterations)
			assert.Equal(t, tt.state.TaskPrompt, got.TaskPrompt)

			promise, ok := got.Promise()
			assert.Equal(t, tt.wantSet, ok)
			assert.Equal(t, tt.promise, promise)
		})
	}
}

func TestStore_Load_Absent(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	assert.Nil(t, store.Load())
}

func TestStore_Load_MalformedDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"empty file", ""},
		{"no blank line delimiter", "iteration: 1\nmax_iterations: 0\ntask text"},
		{"unparsable header", "iteration: [not\n\ntask text"},
		{"non integer iteration", "iteration: soon\n\ntask text"},
		{"negative iteration", "iteration: -1\n\ntask text"},
		{"negative max", "iteration: 1\nmax_iterations: -5\n\ntask text"},
		{"empty body", "iteration: 1\nmax_iterations: 0\n\n   \n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tmpDir := t.TempDir()
			store := NewStore(tmpDir)
			require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, ".ember"), 0o755))
			require.NoError(t, os.WriteFile(store.Path(), []byte(tt.doc), 0o644))

			// Malformed documents are advisory: they read as "no loop",
			// never as an error.
			assert.Nil(t, store.Load())
		})
	}
}

func TestStore_Load_HeaderDefaults(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	store := NewStore(tmpDir)
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, ".ember"), 0o755))

	doc := "completion_promise: null\n\nkeep going\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(doc), 0o644))

	got := store.Load()
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Iteration)
	assert.Equal(t, 0, got.MaxIterations)
	_, ok := got.Promise()
	assert.False(t, ok)
	assert.Equal(t, "keep going", got.TaskPrompt)
}

func TestStore_Load_PromiseVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		promise string
		wantSet bool
	}{
		{"quoted", `completion_promise: "DONE"`, "DONE", true},
		{"unquoted", "completion_promise: DONE", "DONE", true},
		{"literal null", "completion_promise: null", "", false},
		{"empty string", `completion_promise: ""`, "", false},
		{"missing", "iteration: 2", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tmpDir := t.TempDir()
			store := NewStore(tmpDir)
			require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, ".ember"), 0o755))

			doc := tt.header + "\n\nthe task\n"
			require.NoError(t, os.WriteFile(store.Path(), []byte(doc), 0o644))

			got := store.Load()
			require.NotNil(t, got)
			promise, ok := got.Promise()
			assert.Equal(t, tt.wantSet, ok)
			assert.Equal(t, tt.promise, promise)
		})
	}
}

func TestStore_Save_Overwrites(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	require.NoError(t, store.Save(&LoopState{Iteration: 1, TaskPrompt: "task"}))
	require.NoError(t, store.Save(&LoopState{Iteration: 2, TaskPrompt: "task"}))

	got := store.Load()
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Iteration)
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(&LoopState{Iteration: 1, TaskPrompt: "task"}))

	require.NoError(t, store.Clear())
	assert.Nil(t, store.Load())

	// Clearing again is a no-op, not an error.
	require.NoError(t, store.Clear())
}
