package speech

import (
	"errors"
	"fmt"
	"sync"
)

type Status string

const (
	StatusIdle        Status = "idle"
	StatusListening   Status = "listening"
	StatusProcessing  Status = "processing"
	StatusSuccess     Status = "success"
	StatusError       Status = "error"
	StatusTimeout     Status = "timeout"
	StatusUnsupported Status = "unsupported"
)

type Event string

const (
	EventStart       Event = "start"       // capture requested
	EventAudio       Event = "audio"       // audio received, recognition running
	EventTranscript  Event = "transcript"  // non-empty transcript produced
	EventFail        Event = "fail"        // recognizer or capture error
	EventTimeout     Event = "timeout"     // nothing heard before the deadline
	EventStop        Event = "stop"        // caller cancelled
	EventReset       Event = "reset"       // acknowledge a finished attempt
	EventUnsupported Event = "unsupported" // no recognizer, or language rejected
)

var ErrInvalidTransition = errors.New("invalid speech status transition")

// transitions is the complete table. Pairs not listed are rejected.
var transitions = map[Status]map[Event]Status{
	StatusIdle: {
		EventStart:       StatusListening,
		EventUnsupported: StatusUnsupported,
	},
	StatusListening: {
		EventStart:       StatusListening,
		EventAudio:       StatusProcessing,
		EventFail:        StatusError,
		EventTimeout:     StatusTimeout,
		EventStop:        StatusIdle,
		EventUnsupported: StatusUnsupported,
	},
	StatusProcessing: {
		EventTranscript:  StatusSuccess,
		EventFail:        StatusError,
		EventTimeout:     StatusTimeout,
		EventStop:        StatusIdle,
		EventUnsupported: StatusUnsupported,
	},
	StatusSuccess: {
		EventStart: StatusListening,
		EventReset: StatusIdle,
	},
	StatusError: {
		EventStart: StatusListening,
		EventReset: StatusIdle,
	},
	StatusTimeout: {
		EventStart: StatusListening,
		EventReset: StatusIdle,
	},
	StatusUnsupported: {},
}

// Next looks up the table without mutating anything.
func Next(from Status, ev Event) (Status, bool) {
	to, ok := transitions[from][ev]
	return to, ok
}

// Machine tracks the status of one speech input and notifies observers on
// every change.
type Machine struct {
	mu        sync.Mutex
	status    Status
	observers []func(from, to Status)
}

func NewMachine() *Machine {
	return &Machine{status: StatusIdle}
}

func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// OnChange registers fn to run after each transition, in registration order.
func (m *Machine) OnChange(fn func(from, to Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *Machine) Fire(ev Event) (Status, error) {
	m.mu.Lock()
	from := m.status
	to, ok := Next(from, ev)
	if !ok {
		m.mu.Unlock()
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
	}
	m.status = to
	observers := make([]func(from, to Status), len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	if from != to {
		for _, fn := range observers {
			fn(from, to)
		}
	}
	return to, nil
}
