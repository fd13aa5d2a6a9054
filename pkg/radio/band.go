package radio

// Frequencies are integers in units of 10 Hz throughout the core.
const (
	KHz uint32 = 100
	MHz uint32 = 100000
)

// BackendKind identifies which RF front-end a VFO is bound to.
type BackendKind uint8

const (
	BackendTransceiver BackendKind = iota // general-purpose transceiver chip
	BackendFMBroadcast                    // broadcast FM chip
	BackendDSPReceiver                    // DSP broadcast receiver chip
	backendCount
)

var backendNames = [...]string{
	BackendTransceiver: "BK4819",
	BackendFMBroadcast: "BK1080",
	BackendDSPReceiver: "SI4732",
}

func (k BackendKind) String() string {
	if k < backendCount {
		return backendNames[k]
	}
	return "?"
}

// Broadcast reports whether the backend is a broadcast-type receiver.
// Multiwatch treats those VFOs as the background to return to.
func (k BackendKind) Broadcast() bool {
	return k == BackendFMBroadcast || k == BackendDSPReceiver
}

// ParseBackend resolves a backend name, case sensitive, as shown on screen.
func ParseBackend(name string) (BackendKind, bool) {
	for k, n := range backendNames {
		if n == name {
			return BackendKind(k), true
		}
	}
	return 0, false
}

type Modulation uint8

const (
	ModFM Modulation = iota
	ModAM
	ModLSB
	ModUSB
	ModBYP
	ModRAW
	ModWFM
)

var modulationNames = [...]string{"FM", "AM", "LSB", "USB", "BYP", "RAW", "WFM"}

func (m Modulation) String() string {
	if int(m) < len(modulationNames) {
		return modulationNames[m]
	}
	return "?"
}

// SSB reports whether m is a single-sideband mode.
func (m Modulation) SSB() bool { return m == ModLSB || m == ModUSB }

// Bandwidth is one selectable receive filter.
type Bandwidth struct {
	Name string
	Hz   uint32
}

// FreqBand is an immutable operating range of one backend mode. Values
// accepted by the parameter store for a VFO are always members of its band.
type FreqBand struct {
	Name        string
	Min, Max    uint32
	Modulations []Modulation
	Bandwidths  []Bandwidth
}

// Contains reports whether f lies inside the band, edges included.
func (b *FreqBand) Contains(f uint32) bool {
	return f >= b.Min && f <= b.Max
}

// ModulationIndex returns the position of m in the band's list, or -1.
func (b *FreqBand) ModulationIndex(m Modulation) int {
	for i, mod := range b.Modulations {
		if mod == m {
			return i
		}
	}
	return -1
}

var transceiverBands = []*FreqBand{
	{
		Name:        "Wide",
		Min:         1500000,
		Max:         134000000,
		Modulations: []Modulation{ModFM, ModAM, ModLSB, ModUSB},
		Bandwidths: []Bandwidth{
			{"U6K", 6000}, {"U7K", 7000}, {"N9k", 9000}, {"N10k", 10000},
			{"W12k", 12000}, {"W14k", 14000}, {"W17k", 17000}, {"W20k", 20000},
			{"W23k", 23000}, {"W26k", 26000},
		},
	},
}

var dspBands = []*FreqBand{
	{
		Name:        "AM",
		Min:         15000,
		Max:         3000000,
		Modulations: []Modulation{ModAM, ModLSB, ModUSB},
		Bandwidths: []Bandwidth{
			{"1k", 1000}, {"1.8k", 1800}, {"2k", 2000}, {"2.5k", 2500},
			{"3k", 3000}, {"4k", 4000}, {"6k", 6000},
		},
	},
	{
		Name:        "SSB",
		Min:         15000,
		Max:         3000000,
		Modulations: []Modulation{ModLSB, ModUSB},
		Bandwidths: []Bandwidth{
			{"0.5k", 500}, {"1.0k", 1000}, {"1.2k", 1200},
			{"2.2k", 2200}, {"3k", 3000}, {"4k", 4000},
		},
	},
	{
		Name:        "FM",
		Min:         6400000,
		Max:         10800000,
		Modulations: []Modulation{ModFM},
	},
}

var fmBroadcastBands = []*FreqBand{
	{
		Name:        "WFM",
		Min:         6400000,
		Max:         10800000,
		Modulations: []Modulation{ModWFM},
	},
}

// Bands lists the operating ranges of a backend.
func Bands(kind BackendKind) []*FreqBand {
	switch kind {
	case BackendTransceiver:
		return transceiverBands
	case BackendDSPReceiver:
		return dspBands
	case BackendFMBroadcast:
		return fmBroadcastBands
	}
	return nil
}

// BandByName returns the band of kind called name, or nil.
func BandByName(kind BackendKind, name string) *FreqBand {
	for _, b := range Bands(kind) {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// BandFor picks the band of kind containing freq that offers mod, falling
// back to any band containing freq, and finally to the first band.
func BandFor(kind BackendKind, freq uint32, mod Modulation) *FreqBand {
	bands := Bands(kind)
	if len(bands) == 0 {
		return nil
	}
	var byFreq *FreqBand
	for _, b := range bands {
		if !b.Contains(freq) {
			continue
		}
		if b.ModulationIndex(mod) >= 0 {
			return b
		}
		if byFreq == nil {
			byFreq = b
		}
	}
	if byFreq != nil {
		return byFreq
	}
	return bands[0]
}

// StepFrequencyTable holds the tuning step sizes selectable by index.
var StepFrequencyTable = [...]uint32{
	2, 5, 50, 100,
	250, 500, 625, 833, 900, 1000, 1250, 2500, 5000, 10000, 50000,
}

// StepSize returns the step for idx, clamping unknown indexes to 25 kHz.
func StepSize(idx uint8) uint32 {
	if int(idx) < len(StepFrequencyTable) {
		return StepFrequencyTable[idx]
	}
	return 2500
}

// Transceiver gain steps, index 0 lets the chip's AGC decide.
const AutoGainIndex = 0

var transceiverGainDb = [...]int8{
	0, // auto
	-43, -40, -38, -35, -33, -30, -28, -26, -24, -22,
	-19, -16, -14, -11, -9, -6, -4, -2, 0,
}

const dspGainCount = 28 // 0 is AGC, 1..27 manual attenuation

func gainCount(kind BackendKind) uint32 {
	switch kind {
	case BackendTransceiver:
		return uint32(len(transceiverGainDb))
	case BackendDSPReceiver:
		return dspGainCount
	}
	return 1 // fixed gain, auto only
}
