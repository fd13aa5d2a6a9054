package radio

import (
	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/timing"
)

// CheckSquelch reports whether ctx's squelch is open. Monitor mode forces
// it open; chips with their own squelch are asked directly; the rest
// compare SNR to the squelch level when signal readback is enabled.
func (e *Engine) CheckSquelch(ctx *VFOContext) bool {
	if e.settings.Monitor {
		return true
	}
	b := e.backends[ctx.backend]
	if b == nil {
		return false
	}
	if sd, ok := b.(SquelchDetector); ok {
		return sd.SquelchOpen()
	}
	if e.settings.ShowAllRSSI {
		return uint32(b.SNR()) > uint32(ctx.squelch.Value)
	}
	return true
}

// UpdateSquelch re-evaluates the active slot and reroutes audio when its
// squelch changes state.
func (e *Engine) UpdateSquelch() bool {
	return e.updateSquelchAt(e.state.active)
}

func (e *Engine) updateSquelchAt(i int) bool {
	vfo := e.slot(i)
	if vfo == nil {
		return false
	}
	open := e.CheckSquelch(&vfo.Context)
	if open != vfo.Open {
		vfo.Open = open
		if open {
			vfo.LastActivity = e.clock.Now()
		}
		e.SwitchAudioToVFO(i)
	}
	return open
}

// ToggleMultiwatch enables or disables multiwatch. Disabling returns to
// slot 0.
func (e *Engine) ToggleMultiwatch(enable bool) {
	e.state.multiwatch = enable
	logging.Info("radio", "multiwatch toggled", map[string]interface{}{"enabled": enable})
	if !enable {
		e.SwitchVFO(0)
	}
}

// UpdateMultiwatch moves the active slot between a broadcast background
// and narrowband slots with activity. Lowest slot index wins both ways.
func (e *Engine) UpdateMultiwatch() {
	if !e.state.multiwatch {
		return
	}
	if timing.Elapsed(e.clock, e.state.lastPoll) < e.settings.MultiwatchPollMs {
		return
	}
	e.state.lastPoll = e.clock.Now()

	e.UpdateAudioRouting()

	current := e.state.active
	active := &e.state.vfos[current]

	if active.Context.backend.Broadcast() {
		for i := 0; i < e.state.count; i++ {
			if i == current {
				continue
			}
			vfo := &e.state.vfos[i]
			if vfo.Context.backend.Broadcast() {
				continue
			}
			if e.CheckSquelch(&vfo.Context) {
				vfo.LastActivity = e.clock.Now()
				logging.Debug("radio", "multiwatch activity", map[string]interface{}{"slot": i})
				e.SwitchVFO(i)
				return
			}
		}
		return
	}

	if e.CheckSquelch(&active.Context) {
		return
	}
	for i := 0; i < e.state.count; i++ {
		if e.state.vfos[i].Context.backend.Broadcast() {
			e.SwitchVFO(i)
			return
		}
	}
}
