package hardware

import (
	"math"
	"math/cmplx"
	"math/rand"
	"sync"

	"github.com/dougsko/rxcore/pkg/radio"
	"github.com/mjibson/go-dsp/fft"
)

// Observation window of the simulated receivers.
const (
	rfSampleRate = 204800 // Hz
	rfBlockSize  = 1024   // 200 Hz bins
)

// Carrier is a transmitter in the simulated RF field.
type Carrier struct {
	Frequency uint32 // 10 Hz units
	LevelDBm  float64
	Code      radio.Code
	Keyed     bool
}

// Environment is the RF field every simulated chip listens to. Channel
// power is measured by FFT of a synthesized baseband block, so adjacent
// carriers leak into a channel the way a real filter would let them.
type Environment struct {
	mu         sync.RWMutex
	noiseFloor float64 // dBm in the channel bandwidth
	carriers   []Carrier
	rng        *rand.Rand
}

// NewEnvironment creates a field with the given channel noise floor.
func NewEnvironment(noiseFloorDBm float64, seed int64) *Environment {
	return &Environment{
		noiseFloor: noiseFloorDBm,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// AddCarrier places a transmitter and returns its index.
func (e *Environment) AddCarrier(c Carrier) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.carriers = append(e.carriers, c)
	return len(e.carriers) - 1
}

// Key keys or unkeys carrier i.
func (e *Environment) Key(i int, keyed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i >= 0 && i < len(e.carriers) {
		e.carriers[i].Keyed = keyed
	}
}

// KeyFrequency keys or unkeys every carrier on freq and reports whether
// any was found.
func (e *Environment) KeyFrequency(freq uint32, keyed bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	found := false
	for i := range e.carriers {
		if e.carriers[i].Frequency == freq {
			e.carriers[i].Keyed = keyed
			found = true
		}
	}
	return found
}

func (e *Environment) Carriers() []Carrier {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Carrier(nil), e.carriers...)
}

func (e *Environment) NoiseFloor() float64 { return e.noiseFloor }

// ChannelPower returns the power in dBm received in a channel of
// bandwidthHz centred on center.
func (e *Environment) ChannelPower(center uint32, bandwidthHz uint32) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if bandwidthHz == 0 {
		bandwidthHz = 12500
	}
	if bandwidthHz > rfSampleRate {
		bandwidthHz = rfSampleRate
	}

	noise := dbmToWatts(e.noiseFloor) * rfSampleRate / float64(bandwidthHz)
	sigma := math.Sqrt(noise / 2)

	block := make([]complex128, rfBlockSize)
	for n := range block {
		block[n] = complex(e.rng.NormFloat64()*sigma, e.rng.NormFloat64()*sigma)
	}
	for _, c := range e.carriers {
		if !c.Keyed {
			continue
		}
		offset := (float64(c.Frequency) - float64(center)) * 10 // Hz
		if math.Abs(offset) >= rfSampleRate/2 {
			continue
		}
		amp := math.Sqrt(dbmToWatts(c.LevelDBm))
		for n := range block {
			phase := 2 * math.Pi * offset * float64(n) / rfSampleRate
			block[n] += cmplx.Rect(amp, phase)
		}
	}

	spectrum := fft.FFT(block)
	half := float64(bandwidthHz) / 2
	binHz := float64(rfSampleRate) / rfBlockSize
	var power float64
	for k, v := range spectrum {
		f := float64(k) * binHz
		if k > rfBlockSize/2 {
			f -= rfSampleRate
		}
		if math.Abs(f) > half {
			continue
		}
		m := cmplx.Abs(v) / rfBlockSize
		power += m * m
	}
	return wattsToDBm(power)
}

// Strongest returns the keyed carrier with the most power within
// bandwidthHz of center.
func (e *Environment) Strongest(center uint32, bandwidthHz uint32) (Carrier, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	half := float64(bandwidthHz) / 2
	var best Carrier
	found := false
	for _, c := range e.carriers {
		if !c.Keyed {
			continue
		}
		if math.Abs((float64(c.Frequency)-float64(center))*10) > half {
			continue
		}
		if !found || c.LevelDBm > best.LevelDBm {
			best = c
			found = true
		}
	}
	return best, found
}

func dbmToWatts(dbm float64) float64 {
	return math.Pow(10, dbm/10) / 1000
}

func wattsToDBm(w float64) float64 {
	if w <= 0 {
		return -200
	}
	return 10*math.Log10(w) + 30
}
