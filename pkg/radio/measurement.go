package radio

// Measurement is a transient signal sample taken at one frequency.
type Measurement struct {
	Frequency    uint32
	RSSI         uint16
	SNR          uint8
	Noise        uint16
	Glitch       uint16
	Open         bool
	Code         Code
	OpenDuration uint32 // ms the squelch has been open
	Timestamp    uint32
}

// CodeReader is implemented by backends that decode the sub-audible code
// of the signal currently received.
type CodeReader interface {
	DetectedCode() Code
}
