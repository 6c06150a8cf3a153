package quiz

import (
	"errors"
	"fmt"

	"nenegana-backend/internal/kana"
)

var ErrInvalidSnapshot = errors.New("invalid quiz snapshot")

// Snapshot is the serializable state of a Session.
type Snapshot struct {
	Questions    []kana.Kana `json:"questions"`
	CurrentIndex int         `json:"current_index"`
	Results      []Result    `json:"results"`
}

func (s *Session) Snapshot() Snapshot {
	questions := make([]kana.Kana, len(s.questions))
	copy(questions, s.questions)

	return Snapshot{
		Questions:    questions,
		CurrentIndex: s.currentIndex,
		Results:      s.Results(),
	}
}

// Restore rebuilds a Session from a snapshot, rejecting any state a Session
// could not have reached on its own.
func Restore(snap Snapshot) (*Session, error) {
	if snap.CurrentIndex < 0 || snap.CurrentIndex > len(snap.Questions) {
		return nil, fmt.Errorf("%w: cursor %d outside 0..%d", ErrInvalidSnapshot, snap.CurrentIndex, len(snap.Questions))
	}
	if len(snap.Results) > snap.CurrentIndex+1 {
		return nil, fmt.Errorf("%w: %d results for cursor %d", ErrInvalidSnapshot, len(snap.Results), snap.CurrentIndex)
	}

	last := -1
	for i, r := range snap.Results {
		if r.Position <= last || r.Position > snap.CurrentIndex || r.Position >= len(snap.Questions) {
			return nil, fmt.Errorf("%w: result %d has position %d", ErrInvalidSnapshot, i, r.Position)
		}
		if r.Kana != snap.Questions[r.Position] {
			return nil, fmt.Errorf("%w: result %d does not match question %d", ErrInvalidSnapshot, i, r.Position)
		}
		last = r.Position
	}

	questions := make([]kana.Kana, len(snap.Questions))
	copy(questions, snap.Questions)
	results := make([]Result, len(snap.Results))
	copy(results, snap.Results)

	return &Session{
		questions:    questions,
		currentIndex: snap.CurrentIndex,
		results:      results,
	}, nil
}
