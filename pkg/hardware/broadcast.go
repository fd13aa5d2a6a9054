package hardware

import (
	"github.com/dougsko/rxcore/pkg/radio"
)

// FMBroadcast simulates the broadcast FM chip: tune and listen, with
// signal readings only.
type FMBroadcast struct {
	chip
}

func NewFMBroadcast(env *Environment, speaker *Speaker) *FMBroadcast {
	return &FMBroadcast{chip: newChip(radio.BackendFMBroadcast, env, speaker, 150000)}
}

// Backend returns the chip as the bare receiver contract, hiding the
// setters it shares with the other chips.
func (f *FMBroadcast) Backend() radio.Backend {
	return fmBroadcastBackend{f}
}

type fmBroadcastBackend struct{ f *FMBroadcast }

func (b fmBroadcastBackend) Kind() radio.BackendKind              { return b.f.Kind() }
func (b fmBroadcastBackend) Tune(freq uint32, precise bool) error { return b.f.Tune(freq, precise) }
func (b fmBroadcastBackend) RSSI() uint16                         { return b.f.RSSI() }
func (b fmBroadcastBackend) SNR() uint8                           { return b.f.SNR() }
func (b fmBroadcastBackend) RxOn() error                          { return b.f.RxOn() }
func (b fmBroadcastBackend) RxOff() error                         { return b.f.RxOff() }
func (b fmBroadcastBackend) AudioOut(on bool) error               { return b.f.AudioOut(on) }

// DSPReceiver simulates the DSP broadcast receiver: AM, SSB and FM with
// selectable filters and AGC, but no squelch of its own.
type DSPReceiver struct {
	chip
	powerOffOnIdle bool
	powerCycles    int
}

// NewDSPReceiver builds the DSP receiver. With powerOffOnIdle the chip is
// fully powered down by RxOff instead of only muted.
func NewDSPReceiver(env *Environment, speaker *Speaker, powerOffOnIdle bool) *DSPReceiver {
	return &DSPReceiver{
		chip:           newChip(radio.BackendDSPReceiver, env, speaker, 6000),
		powerOffOnIdle: powerOffOnIdle,
	}
}

func (d *DSPReceiver) RxOff() error {
	if d.powerOffOnIdle {
		d.mu.Lock()
		d.powerCycles++
		d.mu.Unlock()
	}
	return d.chip.RxOff()
}

// PowerCycles counts full power-downs.
func (d *DSPReceiver) PowerCycles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.powerCycles
}
