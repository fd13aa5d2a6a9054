package input

import "github.com/dougsko/rxcore/pkg/timing"

// Long-press timing in milliseconds.
const (
	LongPressTime       uint32 = 500
	LongPressRepeatTime uint32 = 100
)

// Keyboard turns a polled "key currently down" reading into press,
// long-press, repeat and release events.
type Keyboard struct {
	clock timing.Clock

	prevKey    Key
	prevState  State
	pressedAt  uint32
	lastRepeat uint32
}

func NewKeyboard(clock timing.Clock) *Keyboard {
	return &Keyboard{clock: clock, prevKey: KeyInvalid}
}

// Poll consumes one reading, KeyInvalid when nothing is held, and returns
// the events it produced in order.
func (kb *Keyboard) Poll(down Key) []Event {
	now := kb.clock.Now()
	var events []Event

	if down != KeyInvalid {
		switch kb.prevState {
		case Released:
			events = append(events, Event{down, Pressed})
			kb.prevState = Pressed
			kb.prevKey = down
			kb.pressedAt = now
		case Pressed:
			if timing.Elapsed(kb.clock, kb.pressedAt) >= LongPressTime {
				kb.prevState = LongPressed
			}
		case LongPressed, LongPressedCont:
			if timing.Elapsed(kb.clock, kb.lastRepeat) >= LongPressRepeatTime {
				kb.lastRepeat = now
				events = append(events, Event{down, kb.prevState})
				kb.prevState = LongPressedCont
			}
		}
		return events
	}

	if kb.prevState == Released {
		return nil
	}
	if kb.prevState == Pressed {
		events = append(events, Event{kb.prevKey, Released})
	}
	// Held arrows still report a release so stepping can persist.
	if kb.prevState == LongPressedCont && (kb.prevKey == KeyUp || kb.prevKey == KeyDown) {
		events = append(events, Event{kb.prevKey, Released})
	}
	kb.prevState = Released
	kb.prevKey = KeyInvalid
	return events
}

// Lock is the keypad lock. Locked keys are swallowed except the PTT and
// side keys, unless PTT lock is also on. Long-press F always toggles.
type Lock struct {
	Locked  bool
	PTTLock bool
}

// Filter reports whether ev is consumed by the lock, toggling the lock on
// long-press F.
func (l *Lock) Filter(ev Event) bool {
	if ev.State == LongPressed && ev.Key == KeyF {
		l.Locked = !l.Locked
		return true
	}
	if !l.Locked {
		return false
	}
	if l.PTTLock {
		return true
	}
	return ev.Key != KeyPTT && ev.Key != KeySide1 && ev.Key != KeySide2
}
