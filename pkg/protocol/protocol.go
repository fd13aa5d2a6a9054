package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dougsko/rxcore/pkg/radio"
)

// Command represents a command sent to the core engine
type Command struct {
	Type string                 `json:"type"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// Response represents a response from the core engine
type Response struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Status is the radio-wide summary returned by STATUS
type Status struct {
	Callsign     string          `json:"callsign"`
	App          string          `json:"app"`
	ActiveVFO    int             `json:"active_vfo"`
	VFOCount     int             `json:"vfo_count"`
	VFO          radio.VFOStatus `json:"vfo"`
	Multiwatch   bool            `json:"multiwatch"`
	AudioRouting bool            `json:"audio_routing"`
	Monitor      bool            `json:"monitor"`
	ShowAllRSSI  bool            `json:"show_all_rssi"`
	KeyLocked    bool            `json:"key_locked"`
	Battery      BatteryStatus   `json:"battery"`
	Uptime       string          `json:"uptime"`
	StartTime    time.Time       `json:"start_time"`
	Version      string          `json:"version"`
	Scan         *ScanStatus     `json:"scan,omitempty"`
}

// BatteryStatus mirrors the battery monitor
type BatteryStatus struct {
	Percent  uint8  `json:"percent"`
	Voltage  uint16 `json:"voltage"` // 10 mV units
	Charging bool   `json:"charging"`
}

// ScanStatus describes a running sweep or channel scan
type ScanStatus struct {
	Mode       string `json:"mode"` // "sweep", "channels" or "analyser"
	Band       string `json:"band"`
	Start      uint32 `json:"start"`
	End        uint32 `json:"end"`
	Frequency  uint32 `json:"frequency"`
	Channel    uint16 `json:"channel,omitempty"`
	Open       bool   `json:"open"`
	Cps        uint32 `json:"cps"`
	Threshold  uint16 `json:"threshold"`
	NoiseFloor uint16 `json:"noise_floor"`
	Thinking   bool   `json:"thinking"`
}

// ParseCommand parses a text command into a Command struct. Arguments
// follow the command name, separated by colons: SET:frequency:14550000.
func ParseCommand(text string) (*Command, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty command")
	}
	parts := strings.SplitN(text, ":", 2)

	cmd := &Command{
		Type: strings.ToUpper(parts[0]),
		Args: make(map[string]interface{}),
	}

	if len(parts) < 2 {
		if needsArgs(cmd.Type) {
			return nil, fmt.Errorf("%s requires arguments", cmd.Type)
		}
		return cmd, nil
	}
	args := strings.Split(parts[1], ":")

	switch cmd.Type {
	case CmdVFO:
		// VFO:2 or VFO:next
		cmd.Args["index"] = args[0]

	case CmdSet, CmdAdjust:
		// SET:frequency:14550000, ADJ:squelch:-1
		if len(args) < 2 {
			return nil, fmt.Errorf("%s needs a parameter and a value", cmd.Type)
		}
		cmd.Args["param"] = strings.ToLower(args[0])
		if cmd.Type == CmdSet {
			cmd.Args["value"] = args[1]
		} else {
			cmd.Args["delta"] = args[1]
		}

	case CmdMode:
		// MODE:channel, MODE:vfo
		cmd.Args["mode"] = strings.ToLower(args[0])

	case CmdChannel:
		// CHANNEL:12
		cmd.Args["channel"] = args[0]

	case CmdTX, CmdMultiwatch, CmdRouting, CmdMonitor:
		// TX:on, MONITOR:off, ROUTING:toggle
		cmd.Args["state"] = strings.ToLower(args[0])

	case CmdScan:
		// SCAN:start, SCAN:range:14400000:14600000, SCAN:lists:3
		cmd.Args["action"] = strings.ToLower(args[0])
		switch strings.ToLower(args[0]) {
		case "range":
			if len(args) < 3 {
				return nil, fmt.Errorf("SCAN:range needs start and end")
			}
			cmd.Args["start"] = args[1]
			cmd.Args["end"] = args[2]
		case "lists", "step":
			if len(args) < 2 {
				return nil, fmt.Errorf("SCAN:%s needs a value", args[0])
			}
			cmd.Args["value"] = args[1]
		}

	case CmdKey:
		// KEY:PTT:pressed
		cmd.Args["key"] = args[0]
		if len(args) > 1 {
			cmd.Args["state"] = args[1]
		} else {
			cmd.Args["state"] = "released"
		}

	case CmdBand:
		// BAND:AM or BAND:next
		cmd.Args["band"] = args[0]

	case CmdLoot:
		// LOOT:10
		cmd.Args["limit"] = args[0]
	}

	return cmd, nil
}

func needsArgs(t string) bool {
	switch t {
	case CmdSet, CmdAdjust, CmdChannel, CmdKey, CmdBand, CmdScan:
		return true
	}
	return false
}

// Arg returns a string argument or "".
func (c *Command) Arg(key string) string {
	if v, ok := c.Args[key].(string); ok {
		return v
	}
	return ""
}

// ParseToggle maps on/off words to a state. Toggle and an empty string
// return ok with toggle set.
func ParseToggle(s string) (on, toggle bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "toggle":
		return false, true, nil
	case "on", "true", "1", "enable", "start":
		return true, false, nil
	case "off", "false", "0", "disable", "stop":
		return false, false, nil
	}
	return false, false, fmt.Errorf("expected on, off or toggle, got %q", s)
}

// FormatResponse converts a Response to JSON string
func (r *Response) String() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// NewSuccessResponse creates a successful response
func NewSuccessResponse(data map[string]interface{}) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err string) *Response {
	return &Response{
		Success: false,
		Error:   err,
	}
}

// Protocol commands
const (
	CmdStatus     = "STATUS"
	CmdVFOs       = "VFOS"
	CmdVFO        = "VFO"
	CmdSet        = "SET"
	CmdAdjust     = "ADJ"
	CmdMode       = "MODE"
	CmdChannel    = "CHANNEL"
	CmdTX         = "TX"
	CmdScan       = "SCAN"
	CmdCps        = "CPS"
	CmdKey        = "KEY"
	CmdMultiwatch = "MULTIWATCH"
	CmdRouting    = "ROUTING"
	CmdMonitor    = "MONITOR"
	CmdBand       = "BAND"
	CmdLoot       = "LOOT"
	CmdPing       = "PING"
	CmdQuit       = "QUIT"
)
