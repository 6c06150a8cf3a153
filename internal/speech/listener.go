// Package speech turns recorded answers into transcripts and tracks each
// capture through an explicit status machine.
package speech

import (
	"context"
	"errors"
	"strings"
	"time"

	"nenegana-backend/internal/logger"
)

const DefaultTimeout = 3 * time.Second

type Audio struct {
	Content  []byte
	MIMEType string
}

type Transcript struct {
	Text       string
	Confidence float64
}

// Recognizer converts one short utterance to text.
type Recognizer interface {
	Recognize(ctx context.Context, audio Audio) (*Transcript, error)
}

// Outcome is the terminal state of one capture.
type Outcome struct {
	Status     Status    `json:"status"`
	Transcript string    `json:"transcript,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	Message    string    `json:"message,omitempty"`
}

func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

type Listener struct {
	recognizer Recognizer
	timeout    time.Duration
	log        *logger.Logger
}

// NewListener builds a listener. A nil recognizer is allowed and makes every
// capture report unsupported.
func NewListener(recognizer Recognizer, timeout time.Duration, log *logger.Logger) *Listener {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Listener{
		recognizer: recognizer,
		timeout:    timeout,
		log:        log.With("component", "speech.Listener"),
	}
}

func (l *Listener) Supported() bool {
	return l.recognizer != nil
}

// Listen runs one capture: idle, listening, processing, then success, error,
// timeout or unsupported.
func (l *Listener) Listen(ctx context.Context, audio Audio) Outcome {
	m := l.newMachine()

	if l.recognizer == nil {
		return l.fail(m, KindUnsupported)
	}
	l.fire(m, EventStart)

	if len(audio.Content) == 0 {
		return l.fail(m, KindNoSpeech)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	l.fire(m, EventAudio)
	tr, err := l.recognizer.Recognize(ctx, audio)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			l.fire(m, EventStop)
			return Outcome{Status: m.Status()}
		}
		kind := Classify(err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		l.log.Warn("recognition failed", "kind", kind, "error", err)
		return l.fail(m, kind)
	}

	if tr == nil || strings.TrimSpace(tr.Text) == "" {
		return l.fail(m, KindNoSpeech)
	}

	l.fire(m, EventTranscript)
	return Outcome{
		Status:     m.Status(),
		Transcript: strings.TrimSpace(tr.Text),
		Confidence: tr.Confidence,
	}
}

// Reported records an error the client's own speech API raised and returns
// the matching outcome.
func (l *Listener) Reported(kind ErrorKind) Outcome {
	m := l.newMachine()
	l.fire(m, EventStart)
	return l.fail(m, kind)
}

func (l *Listener) newMachine() *Machine {
	m := NewMachine()
	m.OnChange(func(from, to Status) {
		l.log.Debug("speech status", "from", from, "to", to)
	})
	return m
}

func (l *Listener) fail(m *Machine, kind ErrorKind) Outcome {
	l.fire(m, kind.Event())
	return Outcome{
		Status:    m.Status(),
		ErrorKind: kind,
		Message:   kind.Message(),
	}
}

func (l *Listener) fire(m *Machine, ev Event) {
	if _, err := m.Fire(ev); err != nil {
		l.log.Warn("speech status", "error", err)
	}
}
