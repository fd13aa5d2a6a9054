package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dougsko/rxcore/pkg/input"
	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/protocol"
	"github.com/dougsko/rxcore/pkg/radio"
)

// execute runs one command on the loop goroutine
func (e *CoreEngine) execute(cmd *protocol.Command) *protocol.Response {
	e.radio.SetSettings(e.settings)

	switch cmd.Type {
	case protocol.CmdStatus:
		return protocol.NewSuccessResponse(map[string]interface{}{"status": e.status()})

	case protocol.CmdVFOs:
		return e.handleVFOs()

	case protocol.CmdVFO:
		return e.handleSwitch(cmd)

	case protocol.CmdSet, protocol.CmdAdjust:
		return e.handleParam(cmd)

	case protocol.CmdMode:
		return e.handleMode()

	case protocol.CmdChannel:
		return e.handleChannel(cmd)

	case protocol.CmdTX:
		return e.handleTX(cmd)

	case protocol.CmdScan:
		return e.handleScan(cmd)

	case protocol.CmdCps:
		return protocol.NewSuccessResponse(map[string]interface{}{"cps": e.lastCps})

	case protocol.CmdKey:
		return e.handleKeyCommand(cmd)

	case protocol.CmdMultiwatch, protocol.CmdRouting, protocol.CmdMonitor:
		return e.handleToggle(cmd)

	case protocol.CmdBand:
		return e.handleBand(cmd)

	case protocol.CmdLoot:
		return e.handleLoot(cmd)

	case protocol.CmdPing:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"pong": time.Now().Unix(),
		})

	case protocol.CmdQuit:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"message": "goodbye",
		})

	default:
		return protocol.NewErrorResponse(fmt.Sprintf("unknown command: %s", cmd.Type))
	}
}

func (e *CoreEngine) status() protocol.Status {
	active := e.radio.ActiveIndex()
	vfo, _ := e.radio.Status(active)
	st := protocol.Status{
		Callsign:     e.config.Station.Callsign,
		App:          string(e.app),
		ActiveVFO:    active,
		VFOCount:     e.radio.Count(),
		VFO:          vfo,
		Multiwatch:   e.radio.MultiwatchEnabled(),
		AudioRouting: e.radio.AudioRoutingEnabled(),
		Monitor:      e.settings.Monitor,
		ShowAllRSSI:  e.settings.ShowAllRSSI,
		KeyLocked:    e.lock.Locked,
		Uptime:       time.Since(e.startTime).Truncate(time.Second).String(),
		StartTime:    e.startTime,
		Version:      Version,
		Scan:         e.scanStatus(),
	}
	if e.battery != nil {
		st.Battery = protocol.BatteryStatus{
			Percent:  e.battery.Percent(),
			Voltage:  e.battery.Voltage(),
			Charging: e.battery.Charging(),
		}
	}
	return st
}

func (e *CoreEngine) handleVFOs() *protocol.Response {
	vfos := make([]radio.VFOStatus, 0, e.radio.Count())
	for i := 0; i < e.radio.Count(); i++ {
		if st, ok := e.radio.Status(i); ok {
			vfos = append(vfos, st)
		}
	}
	return protocol.NewSuccessResponse(map[string]interface{}{
		"vfos":   vfos,
		"active": e.radio.ActiveIndex(),
	})
}

func (e *CoreEngine) handleSwitch(cmd *protocol.Command) *protocol.Response {
	if e.app != AppVFO {
		return protocol.NewErrorResponse("stop the scan before switching VFO")
	}
	arg := cmd.Arg("index")
	var ok bool
	if arg == "" || strings.EqualFold(arg, "next") {
		ok = e.radio.NextVFO()
	} else {
		index, err := strconv.Atoi(arg)
		if err != nil {
			return protocol.NewErrorResponse(fmt.Sprintf("invalid VFO index %q", arg))
		}
		ok = e.radio.SwitchVFO(index)
	}
	if !ok {
		return protocol.NewErrorResponse(radio.ErrIndexOutOfRange.Error())
	}
	st, _ := e.radio.Status(e.radio.ActiveIndex())
	return protocol.NewSuccessResponse(map[string]interface{}{"vfo": st})
}

// parseValue accepts decimal, negative offsets and packed codes such as 0x10C.
func parseValue(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return 0, err
		}
		return uint32(int32(v)), nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	return uint32(v), err
}

func (e *CoreEngine) handleParam(cmd *protocol.Command) *protocol.Response {
	p, ok := radio.ParseParam(cmd.Arg("param"))
	if !ok {
		return protocol.NewErrorResponse(fmt.Sprintf("unknown parameter %q", cmd.Arg("param")))
	}
	active := e.radio.ActiveIndex()

	if cmd.Type == protocol.CmdSet {
		v, err := parseValue(cmd.Arg("value"))
		if err != nil {
			return protocol.NewErrorResponse(fmt.Sprintf("invalid value %q", cmd.Arg("value")))
		}
		if !e.radio.SetParam(active, p, v, true) {
			return protocol.NewErrorResponse(fmt.Sprintf("%s rejected %s", p, cmd.Arg("value")))
		}
	} else {
		delta, err := strconv.ParseInt(cmd.Arg("delta"), 10, 64)
		if err != nil {
			return protocol.NewErrorResponse(fmt.Sprintf("invalid delta %q", cmd.Arg("delta")))
		}
		if !e.radio.AdjustParam(active, p, delta, true) {
			return protocol.NewErrorResponse(fmt.Sprintf("%s cannot be adjusted", p))
		}
	}

	return protocol.NewSuccessResponse(map[string]interface{}{
		"param":   p.Key(),
		"value":   e.radio.Get(active, p),
		"display": e.radio.ValueString(active, p),
	})
}

func (e *CoreEngine) handleMode() *protocol.Response {
	active := e.radio.ActiveIndex()
	if !e.radio.ToggleMode(active) {
		return protocol.NewErrorResponse("mode change failed")
	}
	st, _ := e.radio.Status(active)
	return protocol.NewSuccessResponse(map[string]interface{}{"vfo": st})
}

func (e *CoreEngine) handleChannel(cmd *protocol.Command) *protocol.Response {
	ch, err := strconv.ParseUint(cmd.Arg("channel"), 10, 16)
	if err != nil {
		return protocol.NewErrorResponse(fmt.Sprintf("invalid channel %q", cmd.Arg("channel")))
	}
	active := e.radio.ActiveIndex()
	if err := e.radio.Handle(active).LoadChannel(uint16(ch)); err != nil {
		return protocol.NewErrorResponse(err.Error())
	}
	e.radio.MarkForPersist(active)
	st, _ := e.radio.Status(active)
	return protocol.NewSuccessResponse(map[string]interface{}{"vfo": st})
}

func (e *CoreEngine) handleTX(cmd *protocol.Command) *protocol.Response {
	on, toggle, err := protocol.ParseToggle(cmd.Arg("state"))
	if err != nil {
		return protocol.NewErrorResponse(err.Error())
	}
	if toggle {
		on = !e.radio.TxActive()
	}
	if on && e.app != AppVFO {
		return protocol.NewErrorResponse("cannot transmit while scanning")
	}
	e.radio.ToggleTx(on)

	vfo, _ := e.radio.VFO(e.radio.ActiveIndex())
	tx := vfo.Context.Tx()
	resp := protocol.NewSuccessResponse(map[string]interface{}{
		"tx_active": tx.Active,
		"tx_state":  tx.LastError.String(),
	})
	if on && !tx.Active {
		resp.Success = false
		resp.Error = "transmit denied: " + tx.LastError.String()
	}
	return resp
}

func (e *CoreEngine) handleKeyCommand(cmd *protocol.Command) *protocol.Response {
	key, err := input.ParseKey(cmd.Arg("key"))
	if err != nil {
		return protocol.NewErrorResponse(err.Error())
	}
	state, err := input.ParseState(cmd.Arg("state"))
	if err != nil {
		return protocol.NewErrorResponse(err.Error())
	}
	handled := e.HandleKey(input.Event{Key: key, State: state})
	return protocol.NewSuccessResponse(map[string]interface{}{
		"handled": handled,
		"locked":  e.lock.Locked,
	})
}

func (e *CoreEngine) handleToggle(cmd *protocol.Command) *protocol.Response {
	on, toggle, err := protocol.ParseToggle(cmd.Arg("state"))
	if err != nil {
		return protocol.NewErrorResponse(err.Error())
	}

	var enabled bool
	switch cmd.Type {
	case protocol.CmdMultiwatch:
		if e.app != AppVFO {
			return protocol.NewErrorResponse("stop the scan before changing multiwatch")
		}
		if toggle {
			on = !e.radio.MultiwatchEnabled()
		}
		e.radio.ToggleMultiwatch(on)
		enabled = e.radio.MultiwatchEnabled()
	case protocol.CmdRouting:
		if toggle {
			on = !e.radio.AudioRoutingEnabled()
		}
		e.radio.EnableAudioRouting(on)
		enabled = e.radio.AudioRoutingEnabled()
	case protocol.CmdMonitor:
		if toggle {
			on = !e.settings.Monitor
		}
		e.settings.Monitor = on
		enabled = on
	}

	logging.Info("engine", "mode toggled", map[string]interface{}{
		"mode":    strings.ToLower(cmd.Type),
		"enabled": enabled,
	})
	return protocol.NewSuccessResponse(map[string]interface{}{"enabled": enabled})
}

func (e *CoreEngine) handleBand(cmd *protocol.Command) *protocol.Response {
	active := e.radio.ActiveIndex()
	vfo, ok := e.radio.VFO(active)
	if !ok {
		return protocol.NewErrorResponse(radio.ErrIndexOutOfRange.Error())
	}
	bands := radio.Bands(vfo.Context.Backend())
	name := cmd.Arg("band")

	var target *radio.FreqBand
	if strings.EqualFold(name, "next") {
		for i, b := range bands {
			if b == vfo.Context.Band() {
				target = bands[(i+1)%len(bands)]
				break
			}
		}
	} else {
		for _, b := range bands {
			if strings.EqualFold(b.Name, name) {
				target = b
				break
			}
		}
	}
	if target == nil {
		return protocol.NewErrorResponse(fmt.Sprintf("band %q not offered by %s", name, vfo.Context.Backend()))
	}
	if !e.radio.SelectBand(active, target) {
		return protocol.NewErrorResponse("band change failed")
	}
	e.radio.MarkForPersist(active)
	st, _ := e.radio.Status(active)
	return protocol.NewSuccessResponse(map[string]interface{}{"vfo": st})
}

func (e *CoreEngine) handleLoot(cmd *protocol.Command) *protocol.Response {
	items := e.recent.Items()
	if arg := cmd.Arg("limit"); arg != "" {
		if n, err := strconv.Atoi(arg); err == nil && n >= 0 && n < len(items) {
			items = items[:n]
		}
	}
	return protocol.NewSuccessResponse(map[string]interface{}{
		"loot":  items,
		"count": len(items),
	})
}
