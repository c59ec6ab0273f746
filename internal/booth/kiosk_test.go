package booth

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKioskRun(t *testing.T) {
	c, n := newTestCreator(t, testData(), nil)
	var out bytes.Buffer
	k := NewKiosk(c, &out, "https://vote.example.org/", zap.NewNop())

	input := strings.Join([]string{
		"B100",
		"bogus",
		"",
		":admin",
		":create",
		":toggle 11",
		":next",
		":manual",
		":toggle 11",
		":toggle x",
		":whatever",
	}, "\n")
	require.NoError(t, k.Run(context.Background(), strings.NewReader(input)))

	text := out.String()
	assert.Contains(t, text, "[10] Work by Artist (s)")
	assert.Contains(t, text, "selected: [10]")
	assert.Contains(t, text, "festival chain-1")
	assert.Contains(t, text, "vote session created\nhttps://vote.example.org/vote/")
	assert.Contains(t, text, "toggle ignored: "+ErrNotManual.Error())
	assert.Contains(t, text, "new session")
	assert.Contains(t, text, "manual mode: scanner disabled")
	assert.Contains(t, text, "selected: [11]")
	assert.Contains(t, text, `invalid answer id "x"`)
	assert.Contains(t, text, "unknown command :whatever")
	assert.Equal(t, 1, n.count(ErrInvalidBarcode))

	assert.Equal(t, uint64(8), c.Status().Nonce)
}

func TestKioskRunStopsOnContext(t *testing.T) {
	c, _ := newTestCreator(t, testData(), nil)
	k := NewKiosk(c, &bytes.Buffer{}, "", zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	pr, pw := io.Pipe()
	defer pw.Close()

	err := k.Run(ctx, pr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	pw.Close()
}

func TestKioskVoteLink(t *testing.T) {
	c, _ := newTestCreator(t, testData(), nil)
	assert.Equal(t, "abc", NewKiosk(c, &bytes.Buffer{}, "", zap.NewNop()).VoteLink("abc"))
	assert.Equal(t, "https://v/vote/abc", NewKiosk(c, &bytes.Buffer{}, "https://v/", zap.NewNop()).VoteLink("abc"))
}

func TestNotifiersFanOut(t *testing.T) {
	var out bytes.Buffer
	rec := &recordingNotifier{}
	ns := Notifiers{rec, NewWriterNotifier(&out), NewZapNotifier(zap.NewNop())}

	ns.Notify(Notification{Kind: NotificationError, Text: "Invalid barcode", Err: ErrInvalidBarcode})
	assert.Equal(t, "[error] Invalid barcode\n", out.String())
	assert.Equal(t, 1, rec.count(ErrInvalidBarcode))
}
