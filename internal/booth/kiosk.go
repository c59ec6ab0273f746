package booth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	cmdManual = ":manual"
	cmdToggle = ":toggle"
	cmdCreate = ":create"
	cmdAdmin  = ":admin"
	cmdNext   = ":next"
	cmdStatus = ":status"
)

// Kiosk feeds operator input into a Creator. Hardware scanners type each
// barcode followed by Enter, so every plain line is a scan and lines starting
// with ':' are operator commands.
type Kiosk struct {
	c       *Creator
	out     io.Writer
	voteURL string
	l       *zap.Logger
}

func NewKiosk(c *Creator, out io.Writer, voteURL string, l *zap.Logger) *Kiosk {
	return &Kiosk{
		c:       c,
		out:     out,
		voteURL: strings.TrimRight(voteURL, "/"),
		l:       l,
	}
}

// Run handles lines from in until it is exhausted or ctx is done.
func (k *Kiosk) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	k.printArtworks()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			k.Handle(line)
		}
	}
}

func (k *Kiosk) Handle(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if !strings.HasPrefix(line, ":") {
		if err := k.c.OnBarcodeScanned(line); err != nil && !errors.Is(err, ErrInvalidBarcode) {
			k.printf("scan ignored: %v\n", err)
			return
		}
		k.printSelection()
		return
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case cmdManual:
		k.c.OnManualOverride()
		k.printf("manual mode: scanner disabled\n")
	case cmdToggle:
		if len(fields) != 2 {
			k.printf("usage: %s <answerId>\n", cmdToggle)
			return
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			k.printf("invalid answer id %q\n", fields[1])
			return
		}
		if err := k.c.OnManualToggle(id); err != nil {
			k.printf("toggle ignored: %v\n", err)
			return
		}
		k.printSelection()
	case cmdAdmin:
		if k.c.ToggleAdmin() {
			k.printStatus()
		}
	case cmdStatus:
		k.printStatus()
	case cmdCreate:
		voteData, err := k.c.OnCreateVoteSession()
		if err != nil {
			k.printf("cannot create vote session: %v\n", err)
			return
		}
		k.printVote(voteData)
	case cmdNext:
		if err := k.c.NextSession(); err != nil {
			k.printf("cannot start next session: %v\n", err)
			return
		}
		k.printf("new session\n")
		k.printArtworks()
	default:
		k.printf("unknown command %s\n", fields[0])
	}
}

func (k *Kiosk) VoteLink(voteData string) string {
	if k.voteURL == "" {
		return voteData
	}
	return k.voteURL + "/vote/" + voteData
}

func (k *Kiosk) printVote(voteData string) {
	link := k.VoteLink(voteData)
	k.printf("vote session created\n%s\n", link)
	qr, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		k.l.Warn("failed to render qr code", zap.Error(err))
		return
	}
	k.printf("%s", qr.ToSmallString(false))
}

func (k *Kiosk) printArtworks() {
	for _, a := range k.c.Artworks() {
		k.printf("  [%d] %s by %s (%s)\n", a.AnswerID, a.Title, a.Artist.Name, a.Sticker)
	}
}

func (k *Kiosk) printSelection() {
	s := k.c.State()
	k.printf("selected: %v\n", s.AnswerIDs())
}

func (k *Kiosk) printStatus() {
	st := k.c.Status()
	k.printf("booth %s\nfestival %s\nnonce %d\nselected artworks: %d\nmanual: %t\ncreated: %t\n",
		st.BoothAddress, st.FestivalChainID, st.Nonce, st.SelectedArtworks, st.Manual, st.Created)
}

func (k *Kiosk) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(k.out, format, args...)
}
