package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dougsko/rxcore/pkg/radio"
)

func TestParseCommand(t *testing.T) {
	t.Run("Simple Commands", func(t *testing.T) {
		for _, cmdText := range []string{"STATUS", "VFOS", "CPS", "PING", "QUIT", "MODE", "TX", "LOOT"} {
			t.Run(cmdText, func(t *testing.T) {
				cmd, err := ParseCommand(cmdText)
				if err != nil {
					t.Fatalf("Expected no error, got: %v", err)
				}
				if cmd.Type != cmdText {
					t.Errorf("Expected type %s, got %s", cmdText, cmd.Type)
				}
				if len(cmd.Args) != 0 {
					t.Errorf("Expected no args, got %v", cmd.Args)
				}
			})
		}
	})

	t.Run("SET Command", func(t *testing.T) {
		cmd, err := ParseCommand("SET:Frequency:14550000")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if cmd.Type != CmdSet {
			t.Errorf("Expected type SET, got %s", cmd.Type)
		}
		if cmd.Arg("param") != "frequency" {
			t.Errorf("Expected param frequency, got %q", cmd.Arg("param"))
		}
		if cmd.Arg("value") != "14550000" {
			t.Errorf("Expected value 14550000, got %q", cmd.Arg("value"))
		}
	})

	t.Run("ADJ Command", func(t *testing.T) {
		cmd, err := ParseCommand("adj:squelch:-1")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if cmd.Type != CmdAdjust || cmd.Arg("param") != "squelch" || cmd.Arg("delta") != "-1" {
			t.Errorf("Unexpected command %+v", cmd)
		}
	})

	t.Run("SET Without Value", func(t *testing.T) {
		if _, err := ParseCommand("SET:frequency"); err == nil {
			t.Error("Expected error for SET without value")
		}
		if _, err := ParseCommand("SET"); err == nil {
			t.Error("Expected error for bare SET")
		}
	})

	t.Run("SCAN Range", func(t *testing.T) {
		cmd, err := ParseCommand("SCAN:range:14400000:14600000")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if cmd.Arg("action") != "range" || cmd.Arg("start") != "14400000" || cmd.Arg("end") != "14600000" {
			t.Errorf("Unexpected args %v", cmd.Args)
		}
		if _, err := ParseCommand("SCAN:range:14400000"); err == nil {
			t.Error("Expected error for range without end")
		}
	})

	t.Run("KEY Default State", func(t *testing.T) {
		cmd, err := ParseCommand("KEY:exit")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if cmd.Arg("key") != "exit" || cmd.Arg("state") != "released" {
			t.Errorf("Unexpected args %v", cmd.Args)
		}
	})

	t.Run("Toggle Commands", func(t *testing.T) {
		cmd, err := ParseCommand("MONITOR:ON")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if cmd.Arg("state") != "on" {
			t.Errorf("Expected state on, got %q", cmd.Arg("state"))
		}
	})

	t.Run("Whitespace Handling", func(t *testing.T) {
		cmd, err := ParseCommand("  VFO:next  \n")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if cmd.Type != CmdVFO || cmd.Arg("index") != "next" {
			t.Errorf("Unexpected command %+v", cmd)
		}
	})

	t.Run("Empty Command", func(t *testing.T) {
		if _, err := ParseCommand("   "); err == nil {
			t.Error("Expected error for empty command")
		}
	})
}

func TestParseToggle(t *testing.T) {
	testCases := []struct {
		input  string
		on     bool
		toggle bool
	}{
		{"on", true, false},
		{"OFF", false, false},
		{"", false, true},
		{"toggle", false, true},
		{"1", true, false},
	}
	for _, tc := range testCases {
		on, toggle, err := ParseToggle(tc.input)
		if err != nil {
			t.Errorf("ParseToggle(%q) failed: %v", tc.input, err)
			continue
		}
		if on != tc.on || toggle != tc.toggle {
			t.Errorf("ParseToggle(%q) = %v,%v expected %v,%v", tc.input, on, toggle, tc.on, tc.toggle)
		}
	}
	if _, _, err := ParseToggle("maybe"); err == nil {
		t.Error("Expected error for maybe")
	}
}

func TestResponse(t *testing.T) {
	t.Run("Success Response JSON", func(t *testing.T) {
		resp := NewSuccessResponse(map[string]interface{}{"cps": 812})

		var decoded Response
		if err := json.Unmarshal([]byte(resp.String()), &decoded); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if !decoded.Success {
			t.Error("Expected success true")
		}
		if decoded.Data["cps"] != float64(812) {
			t.Errorf("Expected cps 812, got %v", decoded.Data["cps"])
		}
	})

	t.Run("Error Response JSON", func(t *testing.T) {
		resp := NewErrorResponse("vfo index out of range")
		text := resp.String()
		if !strings.Contains(text, `"success":false`) || !strings.Contains(text, "out of range") {
			t.Errorf("Unexpected error response %s", text)
		}
		if strings.Contains(text, `"data"`) {
			t.Errorf("Expected data omitted, got %s", text)
		}
	})
}

func TestStatus(t *testing.T) {
	status := Status{
		Callsign:  "K3DEP",
		App:       "vfo",
		ActiveVFO: 1,
		VFOCount:  3,
		VFO: radio.VFOStatus{
			Index:     1,
			Active:    true,
			Frequency: 14550000,
			FreqText:  "145.50000",
		},
		Battery: BatteryStatus{Percent: 80, Voltage: 790},
	}

	data, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("Failed to marshal status: %v", err)
	}
	if strings.Contains(string(data), `"scan"`) {
		t.Errorf("Expected scan omitted while idle, got %s", data)
	}

	var decoded Status
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal status: %v", err)
	}
	if decoded.VFO.Frequency != 14550000 || decoded.Battery.Voltage != 790 {
		t.Errorf("Status did not survive encoding: %+v", decoded)
	}
}
