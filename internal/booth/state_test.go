package booth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustReduce(t *testing.T, s State, actions ...Action) State {
	t.Helper()
	for _, a := range actions {
		var err error
		s, err = Reduce(s, a)
		require.NoError(t, err)
	}
	return s
}

func TestScanIsIdempotent(t *testing.T) {
	s := mustReduce(t, NewState(1, 0), Scan{AnswerID: 5}, Scan{AnswerID: 3}, Scan{AnswerID: 5}, Scan{AnswerID: 5})
	assert.Equal(t, []int{3, 5}, s.AnswerIDs())
	assert.True(t, s.IsSelected(3))
	assert.False(t, s.IsSelected(4))
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := mustReduce(t, NewState(1, 0), Scan{AnswerID: 1}, Scan{AnswerID: 3})
	after := mustReduce(t, before, Scan{AnswerID: 2})
	assert.Equal(t, []int{1, 3}, before.AnswerIDs())
	assert.Equal(t, []int{1, 2, 3}, after.AnswerIDs())

	ids := after.AnswerIDs()
	ids[0] = 99
	assert.Equal(t, []int{1, 2, 3}, after.AnswerIDs())
}

func TestToggleRequiresManual(t *testing.T) {
	s := NewState(1, 0)
	next, err := Reduce(s, Toggle{AnswerID: 1})
	assert.ErrorIs(t, err, ErrNotManual)
	assert.Empty(t, next.AnswerIDs())

	s = mustReduce(t, s, ManualOverride{}, Toggle{AnswerID: 1}, Toggle{AnswerID: 2}, Toggle{AnswerID: 1})
	assert.Equal(t, []int{2}, s.AnswerIDs())
}

func TestManualOverrideIsStickyAndDisablesScanner(t *testing.T) {
	s := mustReduce(t, NewState(1, 0), ToggleAdmin{})
	assert.True(t, s.IsAdminVisible())

	s = mustReduce(t, s, ManualOverride{}, ManualOverride{})
	assert.True(t, s.IsManual())
	assert.False(t, s.IsAdminVisible())

	_, err := Reduce(s, Scan{AnswerID: 1})
	assert.ErrorIs(t, err, ErrScannerOff)
}

func TestSelectionLimit(t *testing.T) {
	s := mustReduce(t, NewState(1, 2), Scan{AnswerID: 1}, Scan{AnswerID: 2})
	next, err := Reduce(s, Scan{AnswerID: 3})
	assert.ErrorIs(t, err, ErrSelectionFull)
	assert.Equal(t, []int{1, 2}, next.AnswerIDs())

	// rescanning a selected answer is still fine at the limit
	mustReduce(t, s, Scan{AnswerID: 2})
}

func TestCreateLifecycle(t *testing.T) {
	s := NewState(1, 0)
	assert.False(t, s.CanCreate())
	_, err := Reduce(s, BeginCreate{})
	assert.ErrorIs(t, err, ErrNoAnswers)

	s = mustReduce(t, s, Scan{AnswerID: 4}, ToggleAdmin{})
	assert.True(t, s.CanCreate())

	s = mustReduce(t, s, BeginCreate{})
	assert.True(t, s.IsLoading())
	assert.False(t, s.IsAdminVisible())
	assert.False(t, s.CanCreate())

	_, err = Reduce(s, BeginCreate{})
	assert.ErrorIs(t, err, ErrSessionBusy)
	_, err = Reduce(s, Scan{AnswerID: 5})
	assert.ErrorIs(t, err, ErrSessionBusy)

	s = mustReduce(t, s, Finalize{VoteData: "token"})
	assert.False(t, s.IsLoading())
	assert.True(t, s.IsFrozen())
	assert.Equal(t, "token", s.VoteData())
}

func TestFrozenSessionRejectsChanges(t *testing.T) {
	s := mustReduce(t, NewState(1, 0), ManualOverride{}, Toggle{AnswerID: 4}, BeginCreate{}, Finalize{VoteData: "token"})

	for _, a := range []Action{
		Scan{AnswerID: 5},
		Toggle{AnswerID: 4},
		Toggle{AnswerID: 6},
		BeginCreate{},
		Finalize{VoteData: "other"},
	} {
		next, err := Reduce(s, a)
		assert.Error(t, err)
		assert.Equal(t, []int{4}, next.AnswerIDs())
		assert.Equal(t, "token", next.VoteData())
	}
}

func TestAbortCreate(t *testing.T) {
	s := mustReduce(t, NewState(1, 0), Scan{AnswerID: 4}, BeginCreate{}, AbortCreate{})
	assert.False(t, s.IsLoading())
	assert.True(t, s.CanCreate())

	_, err := Reduce(s, Finalize{VoteData: "token"})
	assert.ErrorIs(t, err, ErrNotCreating)
}
