package booth

import (
	"sync"

	"github.com/jaam8/voting_booth/internal/vote"
	"go.uber.org/zap"
)

type Signer interface {
	SignBooth(festivalAnswerIDs []int, nonce uint64) ([]byte, error)
	Address() string
}

type Config struct {
	FestivalChainID string
	Nonce           uint64
	MaxSelections   int
}

// Status is what the admin overlay shows.
type Status struct {
	BoothAddress     string
	FestivalChainID  string
	Nonce            uint64
	SelectedArtworks int
	Manual           bool
	Created          bool
}

// Creator drives one vote session at a time. Scanner and keyboard input may
// arrive from different goroutines; every change goes through Reduce on the
// latest snapshot while holding mu.
type Creator struct {
	mu        sync.Mutex
	state     State
	nonce     uint64
	artworks  []Artwork
	byBarcode map[string]Artwork
	answers   map[int]bool
	cfg       Config
	signer    Signer
	notifier  Notifier
	l         *zap.Logger
}

func NewCreator(data Data, cfg Config, signer Signer, notifier Notifier, l *zap.Logger) *Creator {
	c := &Creator{
		nonce:     cfg.Nonce,
		byBarcode: make(map[string]Artwork),
		answers:   make(map[int]bool),
		cfg:       cfg,
		signer:    signer,
		notifier:  notifier,
		l:         l,
	}
	if c.cfg.FestivalChainID == "" {
		c.cfg.FestivalChainID = data.FestivalChainID
	}

	artworks, questionID, err := DeriveArtworks(data.Questions)
	if err != nil {
		l.Warn("invalid booth data", zap.Error(err))
		notifier.Notify(Notification{Kind: NotificationError, Text: "Invalid vote data", Err: err})
		artworks, questionID = nil, 0
	}
	c.artworks = artworks
	for _, artwork := range artworks {
		if artwork.Barcode != "" {
			c.byBarcode[artwork.Barcode] = artwork
		}
		c.answers[artwork.AnswerID] = true
	}
	c.state = NewState(questionID, cfg.MaxSelections)
	return c
}

func (c *Creator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Creator) Artworks() []Artwork {
	out := make([]Artwork, len(c.artworks))
	copy(out, c.artworks)
	return out
}

func (c *Creator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		BoothAddress:     c.signer.Address(),
		FestivalChainID:  c.cfg.FestivalChainID,
		Nonce:            c.nonce,
		SelectedArtworks: len(c.state.answerIDs),
		Manual:           c.state.manual,
		Created:          c.state.IsFrozen(),
	}
}

func (c *Creator) dispatch(a Action) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := Reduce(c.state, a)
	c.state = next
	return next, err
}

// OnBarcodeScanned selects the artwork with the given barcode. Unknown codes
// are reported on the notifier and leave the session untouched.
func (c *Creator) OnBarcodeScanned(barcode string) error {
	artwork, ok := c.byBarcode[barcode]
	if !ok {
		c.notifier.Notify(Notification{Kind: NotificationError, Text: "Invalid barcode", Err: ErrInvalidBarcode})
		return ErrInvalidBarcode
	}
	_, err := c.dispatch(Scan{AnswerID: artwork.AnswerID})
	if err != nil {
		c.l.Debug("scan ignored", zap.String("barcode", barcode), zap.Error(err))
		return err
	}
	c.l.Debug("artwork scanned", zap.Int("answer_id", artwork.AnswerID))
	return nil
}

func (c *Creator) OnManualOverride() {
	_, _ = c.dispatch(ManualOverride{})
}

func (c *Creator) OnManualToggle(answerID int) error {
	if !c.answers[answerID] {
		return ErrUnknownAnswer
	}
	_, err := c.dispatch(Toggle{AnswerID: answerID})
	return err
}

// ToggleAdmin flips the operator overlay. It is not an access check.
func (c *Creator) ToggleAdmin() bool {
	s, _ := c.dispatch(ToggleAdmin{})
	return s.adminVisible
}

// OnCreateVoteSession signs and encodes the current selection. The session is
// frozen while signing and for good once the vote data is set, so a second
// call can never produce a second token for the same session.
func (c *Creator) OnCreateVoteSession() (string, error) {
	c.mu.Lock()
	next, err := Reduce(c.state, BeginCreate{})
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	c.state = next
	answerIDs := next.AnswerIDs()
	questionID := next.questionID
	nonce := c.nonce
	c.mu.Unlock()

	voteData, err := c.encode(answerIDs, questionID, nonce)
	if err != nil {
		_, _ = c.dispatch(AbortCreate{})
		c.notifier.Notify(Notification{Kind: NotificationError, Text: "Could not create vote session", Err: err})
		return "", err
	}
	if _, err := c.dispatch(Finalize{VoteData: voteData}); err != nil {
		return "", err
	}
	c.l.Info("vote session created",
		zap.Int("answers", len(answerIDs)),
		zap.Int("question_id", questionID),
		zap.Uint64("nonce", nonce))
	return voteData, nil
}

func (c *Creator) encode(answerIDs []int, questionID int, nonce uint64) (string, error) {
	signature, err := c.signer.SignBooth(answerIDs, nonce)
	if err != nil {
		return "", err
	}
	return vote.EncodeVoteData(vote.Data{
		FestivalAnswerIDs:  answerIDs,
		FestivalQuestionID: questionID,
		Nonce:              nonce,
		Signature:          signature,
	})
}

// NextSession starts a fresh session with the next nonce. Only a created
// session advances the nonce, so an abandoned selection reuses it.
func (c *Creator) NextSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.loading {
		return ErrSessionBusy
	}
	if c.state.IsFrozen() {
		c.nonce++
	}
	c.state = NewState(c.state.questionID, c.cfg.MaxSelections)
	return nil
}

