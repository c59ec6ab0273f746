package booth

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

type NotificationKind string

const (
	NotificationError NotificationKind = "error"
	NotificationInfo  NotificationKind = "info"
)

type Notification struct {
	Kind NotificationKind
	Text string
	Err  error
}

// Notifier is the non-blocking side channel the booth reports problems on.
type Notifier interface {
	Notify(n Notification)
}

type ZapNotifier struct {
	l *zap.Logger
}

func NewZapNotifier(l *zap.Logger) *ZapNotifier {
	return &ZapNotifier{l: l}
}

func (n *ZapNotifier) Notify(note Notification) {
	if note.Kind == NotificationError {
		n.l.Warn(note.Text, zap.Error(note.Err))
		return
	}
	n.l.Info(note.Text)
}

// WriterNotifier prints notifications for the kiosk operator.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "[%s] %s\n", note.Kind, note.Text)
}

// Notifiers fans a notification out to every notifier in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(note Notification) {
	for _, n := range ns {
		n.Notify(note)
	}
}
