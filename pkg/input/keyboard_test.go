package input

import (
	"reflect"
	"testing"

	"github.com/dougsko/rxcore/pkg/timing"
)

func TestParseKey(t *testing.T) {
	testCases := map[string]Key{
		"0":     Key0,
		"7":     Key7,
		"ptt":   KeyPTT,
		"Side1": KeySide1,
		" UP ":  KeyUp,
		"exit":  KeyExit,
	}
	for input, expected := range testCases {
		got, err := ParseKey(input)
		if err != nil {
			t.Errorf("ParseKey(%q) failed: %v", input, err)
			continue
		}
		if got != expected {
			t.Errorf("ParseKey(%q) = %s, expected %s", input, got, expected)
		}
	}

	if _, err := ParseKey("12"); err == nil {
		t.Error("Expected error for two-digit key")
	}
	if KeyInvalid.String() != "INVALID" {
		t.Errorf("Expected INVALID, got %s", KeyInvalid)
	}
}

func TestParseState(t *testing.T) {
	for _, s := range []State{Released, Pressed, LongPressed, LongPressedCont} {
		got, err := ParseState(s.String())
		if err != nil || got != s {
			t.Errorf("ParseState(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseState("tapped"); err == nil {
		t.Error("Expected error for unknown state")
	}
}

func TestKeyboard(t *testing.T) {
	t.Run("Short Press", func(t *testing.T) {
		clock := timing.NewManualClock(1000)
		kb := NewKeyboard(clock)

		if got := kb.Poll(Key5); !reflect.DeepEqual(got, []Event{{Key5, Pressed}}) {
			t.Fatalf("Expected press event, got %v", got)
		}
		clock.Advance(100)
		if got := kb.Poll(Key5); len(got) != 0 {
			t.Errorf("Expected no event while held briefly, got %v", got)
		}
		if got := kb.Poll(KeyInvalid); !reflect.DeepEqual(got, []Event{{Key5, Released}}) {
			t.Errorf("Expected release event, got %v", got)
		}
		if got := kb.Poll(KeyInvalid); len(got) != 0 {
			t.Errorf("Expected nothing when idle, got %v", got)
		}
	})

	t.Run("Long Press Repeats", func(t *testing.T) {
		clock := timing.NewManualClock(1000)
		kb := NewKeyboard(clock)

		kb.Poll(KeyUp)
		clock.Advance(LongPressTime)
		if got := kb.Poll(KeyUp); len(got) != 0 {
			t.Fatalf("Expected silent transition to long press, got %v", got)
		}
		if got := kb.Poll(KeyUp); !reflect.DeepEqual(got, []Event{{KeyUp, LongPressed}}) {
			t.Fatalf("Expected long press event, got %v", got)
		}
		clock.Advance(LongPressRepeatTime - 1)
		if got := kb.Poll(KeyUp); len(got) != 0 {
			t.Errorf("Expected no repeat before interval, got %v", got)
		}
		clock.Advance(1)
		if got := kb.Poll(KeyUp); !reflect.DeepEqual(got, []Event{{KeyUp, LongPressedCont}}) {
			t.Errorf("Expected repeat event, got %v", got)
		}
		if got := kb.Poll(KeyInvalid); !reflect.DeepEqual(got, []Event{{KeyUp, Released}}) {
			t.Errorf("Expected release after held arrow, got %v", got)
		}
	})

	t.Run("Long Press Without Release", func(t *testing.T) {
		clock := timing.NewManualClock(0)
		kb := NewKeyboard(clock)

		kb.Poll(Key0)
		clock.Advance(LongPressTime)
		kb.Poll(Key0)
		kb.Poll(Key0)
		if got := kb.Poll(KeyInvalid); len(got) != 0 {
			t.Errorf("Expected no release after long press of a digit, got %v", got)
		}
	})
}

func TestLock(t *testing.T) {
	var lock Lock

	if lock.Filter(Event{Key1, Released}) {
		t.Error("Expected unlocked keypad to pass keys")
	}
	if !lock.Filter(Event{KeyF, LongPressed}) || !lock.Locked {
		t.Fatal("Expected long press F to lock")
	}

	if !lock.Filter(Event{Key1, Released}) {
		t.Error("Expected digit swallowed while locked")
	}
	for _, k := range []Key{KeyPTT, KeySide1, KeySide2} {
		if lock.Filter(Event{k, Pressed}) {
			t.Errorf("Expected %s to pass while locked", k)
		}
	}

	lock.PTTLock = true
	if !lock.Filter(Event{KeyPTT, Pressed}) {
		t.Error("Expected PTT swallowed with PTT lock")
	}

	lock.Filter(Event{KeyF, LongPressed})
	if lock.Locked {
		t.Error("Expected long press F to unlock")
	}
}
