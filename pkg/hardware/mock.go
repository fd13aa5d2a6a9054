package hardware

import (
	"strings"
	"sync"

	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/radio"
)

// MockGPIO implements GPIOInterface for testing
type MockGPIO struct {
	pins   map[int]bool
	writes map[int]int
	mu     sync.RWMutex
}

// NewMockGPIO creates a new mock GPIO interface
func NewMockGPIO() *MockGPIO {
	return &MockGPIO{
		pins:   make(map[int]bool),
		writes: make(map[int]int),
	}
}

// Initialize initializes the mock GPIO
func (g *MockGPIO) Initialize() error {
	logging.Debug("gpio", "mock initialized")
	return nil
}

// Close closes the mock GPIO
func (g *MockGPIO) Close() error {
	logging.Debug("gpio", "mock closed")
	return nil
}

// SetPin sets a GPIO pin value
func (g *MockGPIO) SetPin(pin int, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pins[pin] = value
	g.writes[pin]++
	return nil
}

// GetPin gets a GPIO pin value
func (g *MockGPIO) GetPin(pin int) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.pins[pin], nil
}

// Writes counts SetPin calls on pin
func (g *MockGPIO) Writes(pin int) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.writes[pin]
}

// MockBackend implements radio.Backend and every optional capability,
// recording each hardware call in order.
type MockBackend struct {
	kind radio.BackendKind

	mu       sync.Mutex
	calls    []string
	failures map[string]error

	freq        uint32
	precise     bool
	rssi        uint16
	snr         uint8
	noise       uint16
	glitch      uint16
	squelchOpen bool
	code        radio.Code

	modulation radio.Modulation
	bandwidth  radio.Bandwidth
	gain       uint32
	squelch    uint32
	rxCode     radio.Code
	txCode     radio.Code
	paPower    uint8
}

func NewMockBackend(kind radio.BackendKind) *MockBackend {
	return &MockBackend{kind: kind, failures: make(map[string]error)}
}

// record logs op and returns the failure injected for it, if any.
func (m *MockBackend) record(op string) error {
	m.calls = append(m.calls, op)
	return m.failures[op]
}

// FailOn makes every call of op return err. A nil err clears it.
func (m *MockBackend) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Calls returns the recorded operations in order.
func (m *MockBackend) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Count returns how many times op was called.
func (m *MockBackend) Count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}

// CallsWithPrefix filters the call log, e.g. "tx." for the transmit chain.
func (m *MockBackend) CallsWithPrefix(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the call log.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// SetSignal scripts the readings returned by the chip.
func (m *MockBackend) SetSignal(rssi uint16, snr uint8, squelchOpen bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rssi = rssi
	m.snr = snr
	m.squelchOpen = squelchOpen
}

func (m *MockBackend) SetNoise(noise, glitch uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noise = noise
	m.glitch = glitch
}

func (m *MockBackend) SetDetectedCode(c radio.Code) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.code = c
}

func (m *MockBackend) Frequency() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.freq
}

func (m *MockBackend) Precise() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.precise
}

func (m *MockBackend) Modulation() radio.Modulation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modulation
}

func (m *MockBackend) BandwidthSet() radio.Bandwidth {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bandwidth
}

func (m *MockBackend) Gain() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gain
}

func (m *MockBackend) SquelchLevel() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.squelch
}

func (m *MockBackend) ArmedCode() radio.Code {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rxCode
}

func (m *MockBackend) TxCode() radio.Code {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txCode
}

func (m *MockBackend) PAPower() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paPower
}

func (m *MockBackend) Kind() radio.BackendKind { return m.kind }

func (m *MockBackend) Tune(freq uint32, precise bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("tune"); err != nil {
		return err
	}
	m.freq = freq
	m.precise = precise
	return nil
}

func (m *MockBackend) RSSI() uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rssi
}

func (m *MockBackend) SNR() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snr
}

func (m *MockBackend) RxOn() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("rx_on")
}

func (m *MockBackend) RxOff() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("rx_off")
}

func (m *MockBackend) AudioOut(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on {
		return m.record("audio_on")
	}
	return m.record("audio_off")
}

func (m *MockBackend) SetModulation(mod radio.Modulation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("modulation"); err != nil {
		return err
	}
	m.modulation = mod
	return nil
}

func (m *MockBackend) SetBandwidth(bw radio.Bandwidth, mod radio.Modulation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("bandwidth"); err != nil {
		return err
	}
	m.bandwidth = bw
	return nil
}

func (m *MockBackend) SetGain(index uint32, mod radio.Modulation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("gain"); err != nil {
		return err
	}
	m.gain = index
	return nil
}

func (m *MockBackend) SetSquelch(level uint32, openTime, closeTime uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("squelch"); err != nil {
		return err
	}
	m.squelch = level
	return nil
}

func (m *MockBackend) SquelchOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.squelchOpen
}

func (m *MockBackend) Noise() uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.noise
}

func (m *MockBackend) Glitch() uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.glitch
}

func (m *MockBackend) DetectedCode() radio.Code {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.code
}

func (m *MockBackend) SetAFC(v uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("afc")
}

func (m *MockBackend) SetDeviation(v uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("deviation")
}

func (m *MockBackend) SetMicGain(v uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("mic_gain")
}

func (m *MockBackend) SetCrystalTrim(v uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("xtal")
}

func (m *MockBackend) ArmToneDetection(rx radio.Code, dtmf bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("arm_tones"); err != nil {
		return err
	}
	m.rxCode = rx
	return nil
}

func (m *MockBackend) SetRxEnable(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on {
		return m.record("tx.rx_enable_on")
	}
	return m.record("tx.rx_enable_off")
}

func (m *MockBackend) SetPAEnable(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on {
		return m.record("tx.pa_enable_on")
	}
	return m.record("tx.pa_enable_off")
}

func (m *MockBackend) PrepareTransmit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("tx.prepare")
}

func (m *MockBackend) SetupPowerAmplifier(power uint8, freq uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("tx.pa_power"); err != nil {
		return err
	}
	m.paPower = power
	return nil
}

func (m *MockBackend) EnableSubAudible(c radio.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("tx.sub_audible"); err != nil {
		return err
	}
	m.txCode = c
	return nil
}

func (m *MockBackend) ExitSubAudible() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCode = radio.Code{}
	return m.record("tx.exit_sub_audible")
}

func (m *MockBackend) ExitDTMF() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("tx.exit_dtmf")
}

func (m *MockBackend) PlayRoger() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("tx.roger")
}

func (m *MockBackend) SendTail() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("tx.tail")
}

func (m *MockBackend) RestoreRx() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("tx.restore_rx")
}

// MockReceiver exposes only the base radio.Backend contract of a
// MockBackend, for exercising backends without optional capabilities.
type MockReceiver struct {
	*MockBackend
}

func NewMockReceiver(kind radio.BackendKind) MockReceiver {
	return MockReceiver{NewMockBackend(kind)}
}

// Backend hides the capability methods behind the base interface.
func (r MockReceiver) Backend() radio.Backend {
	return receiverOnly{r.MockBackend}
}

type receiverOnly struct{ m *MockBackend }

func (r receiverOnly) Kind() radio.BackendKind              { return r.m.Kind() }
func (r receiverOnly) Tune(freq uint32, precise bool) error { return r.m.Tune(freq, precise) }
func (r receiverOnly) RSSI() uint16                         { return r.m.RSSI() }
func (r receiverOnly) SNR() uint8                           { return r.m.SNR() }
func (r receiverOnly) RxOn() error                          { return r.m.RxOn() }
func (r receiverOnly) RxOff() error                         { return r.m.RxOff() }
func (r receiverOnly) AudioOut(on bool) error               { return r.m.AudioOut(on) }
