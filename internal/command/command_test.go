package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/ember/internal/state"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Request
	}{
		{
			name: "plain prompt",
			in:   "Fix the flaky test",
			want: Request{TaskPrompt: "Fix the flaky test"},
		},
		{
			name: "both flags",
			in:   "Build a todo API --max-iterations 5 --completion-promise SHIPPED",
			want: Request{
				TaskPrompt:        "Build a todo API",
				MaxIterations:     5,
				MaxIterationsSet:  true,
				CompletionPromise: "SHIPPED",
			},
		},
		{
			name: "flags before prompt",
			in:   "--max-iterations 3 Refactor the parser",
			want: Request{TaskPrompt: "Refactor the parser", MaxIterations: 3, MaxIterationsSet: true},
		},
		{
			name: "zero max iterations means unbounded",
			in:   "keep improving --max-iterations 0",
			want: Request{TaskPrompt: "keep improving", MaxIterations: 0, MaxIterationsSet: true},
		},
		{
			name: "quoted promise phrase",
			in:   `Ship it --completion-promise "ALL TESTS PASS"`,
			want: Request{TaskPrompt: "Ship it", CompletionPromise: "ALL TESTS PASS"},
		},
		{
			name: "equals form",
			in:   "task text --max-iterations=7 --completion-promise=DONE",
			want: Request{TaskPrompt: "task text", MaxIterations: 7, MaxIterationsSet: true, CompletionPromise: "DONE"},
		},
		{
			name: "prompt quoting preserved",
			in:   `Rename "the thing" everywhere`,
			want: Request{TaskPrompt: `Rename "the thing" everywhere`},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParse_HardErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"max iterations missing value", "task --max-iterations", "--max-iterations requires a value"},
		{"max iterations not a number", "task --max-iterations soon", "non-negative integer"},
		{"max iterations negative", "task --max-iterations -1", "non-negative integer"},
		{"promise missing value", "task --completion-promise", "--completion-promise requires a value"},
		{"promise followed by flag", "task --completion-promise --max-iterations 3", "--completion-promise requires a value"},
		{"empty prompt", "--max-iterations 5", "task prompt is empty"},
		{"blank input", "   ", "task prompt is empty"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitiate(t *testing.T) {
	t.Parallel()

	store := state.NewStore(t.TempDir())

	msg, err := Initiate(store, "Build a todo API --max-iterations 5 --completion-promise SHIPPED", 0)
	require.NoError(t, err)
	assert.Contains(t, msg, "iteration 1 of 5")
	assert.Contains(t, msg, `"SHIPPED"`)
	assert.NotContains(t, msg, "Warning")

	st := store.Load()
	require.NotNil(t, st)
	assert.Equal(t, 1, st.Iteration)
	assert.Equal(t, 5, st.MaxIterations)
	promise, ok := st.Promise()
	assert.True(t, ok)
	assert.Equal(t, "SHIPPED", promise)
	assert.Equal(t, "Build a todo API", st.TaskPrompt)
}

func TestInitiate_UnboundedWarnings(t *testing.T) {
	t.Parallel()

	store := state.NewStore(t.TempDir())

	msg, err := Initiate(store, "keep going", 0)
	require.NoError(t, err)
	assert.Contains(t, msg, "Warning: no iteration limit is set.")
	assert.Contains(t, msg, "runs until cancelled")
}

func TestInitiate_UnboundedWithPromiseSingleWarning(t *testing.T) {
	t.Parallel()

	store := state.NewStore(t.TempDir())

	msg, err := Initiate(store, "keep going --completion-promise DONE", 0)
	require.NoError(t, err)
	assert.Contains(t, msg, "Warning: no iteration limit is set.")
	assert.NotContains(t, msg, "runs until cancelled")
}

func TestInitiate_DefaultMaxIterations(t *testing.T) {
	t.Parallel()

	store := state.NewStore(t.TempDir())

	// Flag omitted: the workspace default applies.
	_, err := Initiate(store, "do the thing", 20)
	require.NoError(t, err)

	st := store.Load()
	require.NotNil(t, st)
	assert.Equal(t, 20, st.MaxIterations)
}

func TestInitiate_ExplicitZeroOverridesDefault(t *testing.T) {
	t.Parallel()

	store := state.NewStore(t.TempDir())

	_, err := Initiate(store, "do the thing --max-iterations 0", 20)
	require.NoError(t, err)

	st := store.Load()
	require.NotNil(t, st)
	assert.Equal(t, 0, st.MaxIterations)
}

func TestInitiate_RejectsWhenLoopActive(t *testing.T) {
	t.Parallel()

	store := state.NewStore(t.TempDir())

	_, err := Initiate(store, "first task", 0)
	require.NoError(t, err)

	_, err = Initiate(store, "second task", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already active")

	// The original loop is untouched.
	st := store.Load()
	require.NotNil(t, st)
	assert.Equal(t, "first task", st.TaskPrompt)
}

func TestInitiate_InputErrorWritesNoState(t *testing.T) {
	t.Parallel()

	store := state.NewStore(t.TempDir())

	_, err := Initiate(store, "--max-iterations 5", 0)
	require.Error(t, err)
	assert.Nil(t, store.Load())
}

func TestCancel(t *testing.T) {
	t.Parallel()

	store := state.NewStore(t.TempDir())

	_, err := Initiate(store, "task --max-iterations 5", 0)
	require.NoError(t, err)

	msg, err := Cancel(store)
	require.NoError(t, err)
	assert.Contains(t, msg, "Cancelled loop at iteration 1")
	assert.Contains(t, msg, "max iterations: 5")
	assert.Nil(t, store.Load())

	// Cancelling twice is idempotent.
	msg, err = Cancel(store)
	require.NoError(t, err)
	assert.Contains(t, msg, "nothing to cancel")
}

func TestCancel_Unbounded(t *testing.T) {
	t.Parallel()

	store := state.NewStore(t.TempDir())

	_, err := Initiate(store, "task", 0)
	require.NoError(t, err)

	msg, err := Cancel(store)
	require.NoError(t, err)
	assert.Contains(t, msg, "max iterations: unbounded")
}
