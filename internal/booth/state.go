package booth

import "slices"

// State is one immutable snapshot of a vote session. Reduce never modifies
// its input; every accepted action yields a new State.
type State struct {
	answerIDs     []int
	questionID    int
	maxSelections int
	voteData      string
	manual        bool
	adminVisible  bool
	loading       bool
}

func NewState(questionID, maxSelections int) State {
	return State{questionID: questionID, maxSelections: maxSelections}
}

// AnswerIDs returns the selected answers in ascending order.
func (s State) AnswerIDs() []int { return slices.Clone(s.answerIDs) }
func (s State) QuestionID() int { return s.questionID }
func (s State) VoteData() string { return s.voteData }
func (s State) IsManual() bool { return s.manual }
func (s State) IsAdminVisible() bool { return s.adminVisible }
func (s State) IsLoading() bool { return s.loading }
func (s State) IsFrozen() bool { return s.voteData != "" }

func (s State) IsSelected(answerID int) bool {
	_, found := slices.BinarySearch(s.answerIDs, answerID)
	return found
}

// CanCreate reports whether a vote session may be created from s.
func (s State) CanCreate() bool {
	return len(s.answerIDs) > 0 && s.voteData == "" && !s.loading
}

type Action interface {
	apply(State) (State, error)
}

// Scan adds an answer picked by the barcode scanner. Scanning a selected
// answer again changes nothing.
type Scan struct{ AnswerID int }

// Toggle flips an answer in manual mode.
type Toggle struct{ AnswerID int }

// ManualOverride disables the scanner for the rest of the session and hides
// the admin overlay.
type ManualOverride struct{}

// ToggleAdmin flips the admin overlay. It grants nothing.
type ToggleAdmin struct{}

// BeginCreate marks the session as being signed.
type BeginCreate struct{}

// Finalize stores the encoded vote and freezes the session.
type Finalize struct{ VoteData string }

// AbortCreate clears the loading flag after signing failed.
type AbortCreate struct{}

func Reduce(s State, a Action) (State, error) {
	next, err := a.apply(s)
	if err != nil {
		return s, err
	}
	return next, nil
}

func (s State) checkMutable() error {
	if s.voteData != "" {
		return ErrSessionFrozen
	}
	if s.loading {
		return ErrSessionBusy
	}
	return nil
}

func (s State) withAnswer(id int) (State, error) {
	i, found := slices.BinarySearch(s.answerIDs, id)
	if found {
		return s, nil
	}
	if s.maxSelections > 0 && len(s.answerIDs) >= s.maxSelections {
		return s, ErrSelectionFull
	}
	s.answerIDs = slices.Insert(slices.Clone(s.answerIDs), i, id)
	return s, nil
}

func (a Scan) apply(s State) (State, error) {
	if s.manual {
		return s, ErrScannerOff
	}
	if err := s.checkMutable(); err != nil {
		return s, err
	}
	return s.withAnswer(a.AnswerID)
}

func (a Toggle) apply(s State) (State, error) {
	if !s.manual {
		return s, ErrNotManual
	}
	if err := s.checkMutable(); err != nil {
		return s, err
	}
	i, found := slices.BinarySearch(s.answerIDs, a.AnswerID)
	if !found {
		return s.withAnswer(a.AnswerID)
	}
	s.answerIDs = slices.Delete(slices.Clone(s.answerIDs), i, i+1)
	return s, nil
}

func (ManualOverride) apply(s State) (State, error) {
	s.manual = true
	s.adminVisible = false
	return s, nil
}

func (ToggleAdmin) apply(s State) (State, error) {
	s.adminVisible = !s.adminVisible
	return s, nil
}

func (BeginCreate) apply(s State) (State, error) {
	if err := s.checkMutable(); err != nil {
		return s, err
	}
	if len(s.answerIDs) == 0 {
		return s, ErrNoAnswers
	}
	s.loading = true
	s.adminVisible = false
	return s, nil
}

func (a Finalize) apply(s State) (State, error) {
	if s.voteData != "" {
		return s, ErrSessionFrozen
	}
	if !s.loading || a.VoteData == "" {
		return s, ErrNotCreating
	}
	s.loading = false
	s.voteData = a.VoteData
	return s, nil
}

func (AbortCreate) apply(s State) (State, error) {
	s.loading = false
	return s, nil
}
