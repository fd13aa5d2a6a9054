package input

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is a keypad or side-button code.
type Key uint8

const (
	Key0     Key = 0
	Key1     Key = 1
	Key2     Key = 2
	Key3     Key = 3
	Key4     Key = 4
	Key5     Key = 5
	Key6     Key = 6
	Key7     Key = 7
	Key8     Key = 8
	Key9     Key = 9
	KeyMenu  Key = 10
	KeyUp    Key = 11
	KeyDown  Key = 12
	KeyExit  Key = 13
	KeyStar  Key = 14
	KeyF     Key = 15
	KeyPTT   Key = 21
	KeySide2 Key = 22
	KeySide1 Key = 23

	KeyInvalid Key = 255
)

var keyNames = map[Key]string{
	KeyMenu:  "MENU",
	KeyUp:    "UP",
	KeyDown:  "DOWN",
	KeyExit:  "EXIT",
	KeyStar:  "STAR",
	KeyF:     "F",
	KeyPTT:   "PTT",
	KeySide2: "SIDE2",
	KeySide1: "SIDE1",
}

func (k Key) String() string {
	if k <= Key9 {
		return strconv.Itoa(int(k))
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "INVALID"
}

// IsDigit reports whether k is one of the numeric keys.
func (k Key) IsDigit() bool { return k <= Key9 }

// ParseKey accepts a digit or a key name, case-insensitively.
func ParseKey(s string) (Key, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		return Key(s[0] - '0'), nil
	}
	for k, name := range keyNames {
		if name == s {
			return k, nil
		}
	}
	return KeyInvalid, fmt.Errorf("unknown key %q", s)
}

// State is the phase of a key event.
type State uint8

const (
	Released State = iota
	Pressed
	LongPressed
	LongPressedCont
)

func (s State) String() string {
	switch s {
	case Released:
		return "RELEASED"
	case Pressed:
		return "PRESSED"
	case LongPressed:
		return "LONG"
	case LongPressedCont:
		return "REPEAT"
	}
	return "UNKNOWN"
}

// ParseState accepts the names printed by String plus a few aliases.
func ParseState(s string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RELEASED", "RELEASE", "UP":
		return Released, nil
	case "PRESSED", "PRESS", "DOWN":
		return Pressed, nil
	case "LONG", "LONG_PRESSED":
		return LongPressed, nil
	case "REPEAT", "LONG_PRESSED_CONT":
		return LongPressedCont, nil
	}
	return Released, fmt.Errorf("unknown key state %q", s)
}

// Event is one key message delivered to the foreground app.
type Event struct {
	Key   Key
	State State
}

func (e Event) String() string {
	return e.Key.String() + " " + e.State.String()
}
