package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{state: Idle, want: "idle"},
		{state: Running, want: "running"},
		{state: CancelRequested, want: "cancel-requested"},
		{state: CompletionPending, want: "completion-pending"},
		{state: Completed, want: "completed"},
		{state: State(42), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestState_Active(t *testing.T) {
	assert.False(t, Idle.active())
	assert.True(t, Running.active())
	assert.True(t, CancelRequested.active())
	assert.True(t, CompletionPending.active())
	assert.False(t, Completed.active())
}
