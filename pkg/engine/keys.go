package engine

import (
	"sort"

	"github.com/dougsko/rxcore/pkg/input"
	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/radio"
)

// HandleKey routes one key event to the foreground app. It reports
// whether the event did anything.
func (e *CoreEngine) HandleKey(ev input.Event) bool {
	if e.lock.Filter(ev) {
		if ev.Key == input.KeyF && ev.State == input.LongPressed {
			logging.Info("engine", "keypad lock toggled", map[string]interface{}{"locked": e.lock.Locked})
			return true
		}
		return false
	}

	if ev.Key == input.KeyPTT {
		return e.handlePTT(ev)
	}
	if e.app != AppVFO {
		return e.handleScanKey(ev)
	}

	active := e.radio.ActiveIndex()
	switch ev.State {
	case input.Released, input.LongPressedCont:
		switch ev.Key {
		case input.KeyUp, input.KeyDown:
			return e.tuneStep(active, ev.Key == input.KeyUp)
		}
	}

	switch ev.State {
	case input.LongPressed:
		switch ev.Key {
		case input.Key0:
			return e.radio.IncDecParam(active, radio.ParamModulation, true, true)
		case input.Key3:
			return e.radio.ToggleMode(active)
		case input.Key4:
			e.settings.ShowAllRSSI = !e.settings.ShowAllRSSI
			return true
		case input.Key6:
			return e.radio.IncDecParam(active, radio.ParamPower, true, true)
		case input.Key7:
			return e.radio.IncDecParam(active, radio.ParamStep, true, true)
		}

	case input.Released:
		switch ev.Key {
		case input.KeySide1:
			e.settings.Monitor = !e.settings.Monitor
			return true
		case input.KeyExit:
			return e.radio.NextVFO()
		case input.KeyStar:
			return e.startSweep(AppScan) == nil
		}
	}
	return false
}

// handlePTT keys the transmitter while PTT is held. Pressing PTT during a
// scan only stops the scan.
func (e *CoreEngine) handlePTT(ev input.Event) bool {
	switch ev.State {
	case input.Pressed:
		if e.app != AppVFO {
			e.stopScan()
			return true
		}
		e.radio.ToggleTx(true)
		return true
	case input.Released:
		if e.radio.TxActive() {
			e.radio.ToggleTx(false)
			return true
		}
	}
	return false
}

func (e *CoreEngine) handleScanKey(ev input.Event) bool {
	if ev.State != input.Released && ev.State != input.LongPressedCont {
		return false
	}
	switch ev.Key {
	case input.KeyUp, input.KeyDown:
		return e.scanStep(ev.Key == input.KeyUp) == nil
	case input.KeyExit:
		e.stopScan()
		return true
	}
	return false
}

// tuneStep moves the VFO one step, or to the neighbouring channel of the
// scanlist when the VFO follows a channel.
func (e *CoreEngine) tuneStep(i int, up bool) bool {
	vfo, ok := e.radio.VFO(i)
	if !ok {
		return false
	}
	if vfo.Mode != radio.ModeChannel {
		return e.radio.IncDecParam(i, radio.ParamFrequency, up, true)
	}

	channels, err := e.store.ChannelIndexes(e.scanlists)
	if err != nil || len(channels) == 0 {
		return false
	}
	next := neighbour(channels, vfo.Channel, up)
	if err := e.radio.Handle(i).LoadChannel(next); err != nil {
		logging.Warn("engine", "channel step failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	e.radio.MarkForPersist(i)
	return true
}

// neighbour returns the channel after (or before) cur in the sorted list,
// wrapping at either end. cur need not be a member.
func neighbour(channels []uint16, cur uint16, up bool) uint16 {
	pos := sort.Search(len(channels), func(i int) bool { return channels[i] >= cur })
	if up {
		if pos < len(channels) && channels[pos] == cur {
			pos++
		}
		return channels[pos%len(channels)]
	}
	if pos == 0 {
		return channels[len(channels)-1]
	}
	return channels[pos-1]
}
