package radio

import "github.com/dougsko/rxcore/pkg/logging"

// SwitchAudioToVFO connects the speaker to slot index's backend, gated by
// the slot's squelch. It is the only place the audio path changes, and it
// does nothing when the backend and gate already match the last route.
func (e *Engine) SwitchAudioToVFO(index int) {
	vfo := e.slot(index)
	if vfo == nil {
		return
	}

	want := audioRoute{kind: vfo.Context.backend, open: vfo.Open}
	if e.state.routed && e.state.route == want {
		return
	}

	chipChanged := !e.state.routed || e.state.route.kind != want.kind
	if e.state.routed && chipChanged {
		if prev := e.backends[e.state.route.kind]; prev != nil {
			e.audioCall(prev, "audio off", prev.AudioOut(false))
			e.audioCall(prev, "rx off", prev.RxOff())
		}
	}

	if b := e.backends[want.kind]; b != nil {
		if chipChanged {
			e.audioCall(b, "rx on", b.RxOn())
		}
		e.audioCall(b, "audio gate", b.AudioOut(want.open))
	}

	e.state.route = want
	e.state.routed = true
}

func (e *Engine) audioCall(b Backend, op string, err error) {
	if err != nil {
		logging.Error("audio", op+" failed", map[string]interface{}{
			"backend": b.Kind().String(),
			"error":   err.Error(),
		})
	}
}

// EnableAudioRouting turns automatic audio routing on or off. Turning it
// off hands the speaker back to the active slot.
func (e *Engine) EnableAudioRouting(enable bool) {
	e.state.audioRouting = enable
	if !enable {
		e.SwitchAudioToVFO(e.state.active)
		e.state.lastActiveVFO = e.state.active
	}
}

// UpdateAudioRouting sends audio to the first other narrowband slot with
// an open squelch without changing the active slot, and back to the
// active slot once none is open.
func (e *Engine) UpdateAudioRouting() {
	if !e.state.audioRouting {
		return
	}
	active := e.state.active
	if e.state.vfos[active].Context.backend.Broadcast() {
		return
	}

	for i := 0; i < e.state.count; i++ {
		if i == active {
			continue
		}
		vfo := &e.state.vfos[i]
		if vfo.Context.backend.Broadcast() {
			continue
		}
		if e.CheckSquelch(&vfo.Context) {
			if e.state.lastActiveVFO != i {
				vfo.Open = true
				vfo.LastActivity = e.clock.Now()
				e.SwitchAudioToVFO(i)
				e.state.lastActiveVFO = i
			}
			return
		}
	}

	if last := e.state.lastActiveVFO; last != active {
		if last >= 0 && last < e.state.count {
			e.state.vfos[last].Open = false
		}
		e.SwitchAudioToVFO(active)
		e.state.lastActiveVFO = active
	}
}
