package hardware

import (
	"fmt"

	"github.com/dougsko/rxcore/pkg/radio"
)

// squelchStepDB is the SNR each squelch level adds to the opening point.
const squelchStepDB = 3

// Transceiver simulates the general-purpose transceiver chip: it runs its
// own squelch, decodes sub-audible codes and drives the transmit chain
// through the board's RX-enable and PA-enable lines.
type Transceiver struct {
	chip

	rxEnable *Line
	paEnable *Line

	squelchLevel uint32
	openTime     uint8
	closeTime    uint8
	rxCode       radio.Code
	dtmf         bool
	afc          uint32
	deviation    uint32
	micGain      uint32
	xtal         uint32

	transmitting bool
	paPower      uint8
	txFreq       uint32
	txCode       radio.Code
	rogers       int
	tails        int
}

func NewTransceiver(env *Environment, speaker *Speaker, rxEnable, paEnable *Line) *Transceiver {
	return &Transceiver{
		chip:     newChip(radio.BackendTransceiver, env, speaker, 12500),
		rxEnable: rxEnable,
		paEnable: paEnable,
	}
}

func (t *Transceiver) SetSquelch(level uint32, openTime, closeTime uint8) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.squelchLevel = level
	t.openTime = openTime
	t.closeTime = closeTime
	return nil
}

// SquelchOpen compares the channel SNR to the programmed level and, with
// a receive code armed, requires the strongest carrier to carry it.
func (t *Transceiver) SquelchOpen() bool {
	t.mu.Lock()
	level, code, tx := t.squelchLevel, t.rxCode, t.transmitting
	t.mu.Unlock()
	if tx {
		return false
	}
	if level == 0 {
		return t.Listening()
	}
	if uint32(t.SNR()) < level*squelchStepDB {
		return false
	}
	if code.Type == radio.CodeNone {
		return true
	}
	return t.DetectedCode() == code
}

// DetectedCode is the code on the strongest carrier in the channel.
func (t *Transceiver) DetectedCode() radio.Code {
	t.mu.Lock()
	freq, bw := t.freq, t.bandwidthHz
	t.mu.Unlock()
	if c, ok := t.env.Strongest(freq, bw); ok {
		return c.Code
	}
	return radio.Code{}
}

func (t *Transceiver) Noise() uint16 {
	snr := uint16(t.SNR())
	if snr >= 100 {
		return 0
	}
	return 100 - snr
}

func (t *Transceiver) Glitch() uint16 {
	snr := t.SNR()
	if snr > 10 {
		return 0
	}
	return uint16(10-snr) * 5
}

func (t *Transceiver) SetAFC(v uint32) error {
	t.mu.Lock()
	t.afc = v
	t.mu.Unlock()
	return nil
}

func (t *Transceiver) SetDeviation(v uint32) error {
	t.mu.Lock()
	t.deviation = v
	t.mu.Unlock()
	return nil
}

func (t *Transceiver) SetMicGain(v uint32) error {
	t.mu.Lock()
	t.micGain = v
	t.mu.Unlock()
	return nil
}

func (t *Transceiver) SetCrystalTrim(v uint32) error {
	t.mu.Lock()
	t.xtal = v
	t.mu.Unlock()
	return nil
}

func (t *Transceiver) ArmToneDetection(rx radio.Code, dtmf bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rxCode = rx
	t.dtmf = dtmf
	return nil
}

func (t *Transceiver) SetRxEnable(on bool) error {
	return t.rxEnable.Set(on)
}

func (t *Transceiver) SetPAEnable(on bool) error {
	return t.paEnable.Set(on)
}

func (t *Transceiver) PrepareTransmit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rxEnable.On() {
		return fmt.Errorf("transmit prepared with receiver enabled")
	}
	t.transmitting = true
	t.txFreq = t.freq
	return nil
}

func (t *Transceiver) SetupPowerAmplifier(power uint8, freq uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paPower = power
	if freq != 0 {
		t.txFreq = freq
	}
	return nil
}

func (t *Transceiver) EnableSubAudible(c radio.Code) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.txCode = c
	return nil
}

func (t *Transceiver) ExitSubAudible() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.txCode = radio.Code{}
	return nil
}

func (t *Transceiver) ExitDTMF() error { return nil }

func (t *Transceiver) PlayRoger() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rogers++
	return nil
}

func (t *Transceiver) SendTail() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tails++
	return nil
}

func (t *Transceiver) RestoreRx() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transmitting = false
	return nil
}

// Transmitting reports whether the chip is keyed up.
func (t *Transceiver) Transmitting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transmitting
}

// PAPower is the last programmed PA power level.
func (t *Transceiver) PAPower() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paPower
}
