package radio

// Backend is the behavioural contract every RF front-end satisfies. The
// optional capabilities below are discovered by type assertion; a backend
// that lacks one simply does not support the parameters it covers.
type Backend interface {
	Kind() BackendKind
	// Tune retunes the receiver. precise requests a full synthesizer
	// recalibration instead of a fast hop.
	Tune(freq uint32, precise bool) error
	RSSI() uint16
	SNR() uint8
	// RxOn powers the receive chain up, RxOff idles or mutes it.
	RxOn() error
	RxOff() error
	// AudioOut gates the audio path to the shared speaker.
	AudioOut(on bool) error
}

type ModulationSetter interface {
	SetModulation(m Modulation) error
}

type BandwidthSetter interface {
	SetBandwidth(bw Bandwidth, m Modulation) error
}

type GainSetter interface {
	SetGain(index uint32, m Modulation) error
}

// SquelchProgrammer accepts a squelch level plus open/close timing.
type SquelchProgrammer interface {
	SetSquelch(level uint32, openTime, closeTime uint8) error
}

// SquelchDetector is implemented by chips that evaluate squelch themselves
// from RSSI, noise and glitch.
type SquelchDetector interface {
	SquelchOpen() bool
}

// NoiseReader exposes the noise and glitch indicators.
type NoiseReader interface {
	Noise() uint16
	Glitch() uint16
}

// Trimmer programs the transceiver's fine adjustments.
type Trimmer interface {
	SetAFC(v uint32) error
	SetDeviation(v uint32) error
	SetMicGain(v uint32) error
	SetCrystalTrim(v uint32) error
}

// ToneDetector re-arms sub-audible and DTMF detection. Most register
// writes on the transceiver disturb it, so it runs after every apply.
type ToneDetector interface {
	ArmToneDetection(rx Code, dtmf bool) error
}

// Transmitter sequences the transmit chain. The controller calls these in
// a fixed order with settling delays between them.
type Transmitter interface {
	SetRxEnable(on bool) error
	SetPAEnable(on bool) error
	PrepareTransmit() error
	SetupPowerAmplifier(power uint8, freq uint32) error
	EnableSubAudible(c Code) error
	ExitSubAudible() error
	ExitDTMF() error
	PlayRoger() error
	SendTail() error
	RestoreRx() error
}

// Battery reports the state the transmit gate checks.
type Battery interface {
	Percent() uint8
	Voltage() uint16 // 10 mV units
	Charging() bool
}

// Backends maps each kind to its driver. A VFO whose kind is missing is
// treated as having no hardware: applies are skipped with a warning.
type Backends map[BackendKind]Backend
