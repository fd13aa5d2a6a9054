package hardware

import (
	"fmt"
	"sync"

	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/radio"
)

// chip is the part every simulated front-end shares: a tuned receiver on
// the RF environment with its audio gated onto the shared speaker.
type chip struct {
	kind    radio.BackendKind
	env     *Environment
	speaker *Speaker

	mu          sync.Mutex
	freq        uint32
	precise     bool
	modulation  radio.Modulation
	bandwidthHz uint32
	gain        uint32
	rxOn        bool
	audio       bool
	tunes       int
}

func newChip(kind radio.BackendKind, env *Environment, speaker *Speaker, bandwidthHz uint32) chip {
	return chip{kind: kind, env: env, speaker: speaker, bandwidthHz: bandwidthHz}
}

func (c *chip) Kind() radio.BackendKind { return c.kind }

func (c *chip) Tune(freq uint32, precise bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freq = freq
	c.precise = precise
	c.tunes++
	return nil
}

func (c *chip) RxOn() error {
	c.mu.Lock()
	c.rxOn = true
	c.mu.Unlock()
	logging.Debug("hardware", "rx on", map[string]interface{}{"chip": c.kind.String()})
	return nil
}

func (c *chip) RxOff() error {
	c.mu.Lock()
	c.rxOn = false
	c.mu.Unlock()
	logging.Debug("hardware", "rx off", map[string]interface{}{"chip": c.kind.String()})
	return nil
}

func (c *chip) AudioOut(on bool) error {
	c.mu.Lock()
	c.audio = on
	c.mu.Unlock()
	if c.speaker == nil {
		return nil
	}
	if err := c.speaker.Route(c.kind, on); err != nil {
		return fmt.Errorf("%s audio: %w", c.kind, err)
	}
	return nil
}

// Frequency is the frequency the chip is tuned to.
func (c *chip) Frequency() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.freq
}

// Listening reports whether the receive chain is powered.
func (c *chip) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rxOn
}

// AudioGate reports whether the chip's audio output is on.
func (c *chip) AudioGate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.audio
}

// signal is the received channel power, or false while powered down.
func (c *chip) signal() (float64, bool) {
	c.mu.Lock()
	freq, bw, on := c.freq, c.bandwidthHz, c.rxOn
	c.mu.Unlock()
	if !on || c.env == nil {
		return 0, false
	}
	return c.env.ChannelPower(freq, bw), true
}

func (c *chip) RSSI() uint16 {
	dbm, ok := c.signal()
	if !ok {
		return 0
	}
	return radio.DBmToRSSI(dbm)
}

func (c *chip) SNR() uint8 {
	dbm, ok := c.signal()
	if !ok {
		return 0
	}
	snr := dbm - c.env.NoiseFloor()
	if snr < 0 {
		return 0
	}
	if snr > 255 {
		return 255
	}
	return uint8(snr)
}

func (c *chip) SetModulation(m radio.Modulation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modulation = m
	return nil
}

func (c *chip) SetBandwidth(bw radio.Bandwidth, m radio.Modulation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bandwidthHz = bw.Hz
	c.modulation = m
	return nil
}

func (c *chip) SetGain(index uint32, m radio.Modulation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gain = index
	return nil
}
