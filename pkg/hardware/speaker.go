package hardware

import (
	"sync"

	"github.com/dougsko/rxcore/pkg/radio"
)

// Speaker is the audio amplifier shared by all chips. Whichever chip
// gated its audio on last owns it.
type Speaker struct {
	amp *Line

	mu       sync.Mutex
	owner    radio.BackendKind
	owned    bool
	switches int
}

func NewSpeaker(amp *Line) *Speaker {
	return &Speaker{amp: amp}
}

// Route gates kind's audio. A chip turning its audio off only silences
// the speaker if it still owns it.
func (s *Speaker) Route(kind radio.BackendKind, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !on && (!s.owned || s.owner != kind) {
		return nil
	}
	if on && (!s.owned || s.owner != kind) {
		s.switches++
	}
	s.owner = kind
	s.owned = on
	return s.amp.Set(on)
}

// Owner is the chip currently heard, if any.
func (s *Speaker) Owner() (radio.BackendKind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner, s.owned
}

// Switches counts how often the speaker changed hands.
func (s *Speaker) Switches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switches
}
