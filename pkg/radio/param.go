package radio

import "strings"

// Param is one typed setting of a VFO.
type Param uint8

const (
	ParamFrequency Param = iota
	ParamStep
	ParamPower
	ParamTxOffset
	ParamModulation
	ParamSquelchType
	ParamSquelchValue
	ParamVolume
	ParamGain
	ParamBandwidth
	ParamTxState
	ParamBackend
	ParamRxCode
	ParamTxCode
	ParamRSSI
	ParamNoise
	ParamGlitch
	ParamSNR
	ParamAFC
	ParamDeviation
	ParamMicGain
	ParamCrystalTrim
	ParamPreciseTune
	ParamCount
)

var paramNames = [ParamCount]string{
	ParamFrequency:    "f",
	ParamStep:         "Step",
	ParamPower:        "Power",
	ParamTxOffset:     "TX offset",
	ParamModulation:   "Mod",
	ParamSquelchType:  "SQ type",
	ParamSquelchValue: "SQ",
	ParamVolume:       "Volume",
	ParamGain:         "Gain",
	ParamBandwidth:    "BW",
	ParamTxState:      "TX state",
	ParamBackend:      "Radio",
	ParamRxCode:       "RX code",
	ParamTxCode:       "TX code",
	ParamRSSI:         "RSSI",
	ParamNoise:        "Noise",
	ParamGlitch:       "Glitch",
	ParamSNR:          "SNR",
	ParamAFC:          "AFC",
	ParamDeviation:    "DEV",
	ParamMicGain:      "MIC",
	ParamCrystalTrim:  "XTAL",
	ParamPreciseTune:  "Precise f",
}

// Protocol keys, stable across display renames.
var paramKeys = [ParamCount]string{
	ParamFrequency:    "frequency",
	ParamStep:         "step",
	ParamPower:        "power",
	ParamTxOffset:     "tx_offset",
	ParamModulation:   "modulation",
	ParamSquelchType:  "squelch_type",
	ParamSquelchValue: "squelch",
	ParamVolume:       "volume",
	ParamGain:         "gain",
	ParamBandwidth:    "bandwidth",
	ParamTxState:      "tx_state",
	ParamBackend:      "backend",
	ParamRxCode:       "rx_code",
	ParamTxCode:       "tx_code",
	ParamRSSI:         "rssi",
	ParamNoise:        "noise",
	ParamGlitch:       "glitch",
	ParamSNR:          "snr",
	ParamAFC:          "afc",
	ParamDeviation:    "deviation",
	ParamMicGain:      "mic",
	ParamCrystalTrim:  "xtal",
	ParamPreciseTune:  "precise",
}

func (p Param) String() string {
	if p < ParamCount {
		return paramNames[p]
	}
	return "?"
}

// Key is the lower-case identifier used on the wire.
func (p Param) Key() string {
	if p < ParamCount {
		return paramKeys[p]
	}
	return ""
}

// ReadOnly reports whether p is derived from the backend on every read.
func (p Param) ReadOnly() bool {
	switch p {
	case ParamRSSI, ParamSNR, ParamNoise, ParamGlitch, ParamTxState:
		return true
	}
	return false
}

// ParseParam resolves a wire key such as "frequency" or "squelch".
func ParseParam(key string) (Param, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for p, k := range paramKeys {
		if k == key {
			return Param(p), true
		}
	}
	return 0, false
}

// Enumerated parameter ranges, exclusive upper bounds.
const (
	SquelchValueCount = 11
	SquelchTypeCount  = 4
	PowerCount        = 3
	VolumeCount       = 64
	AFCCount          = 11
	DeviationCount    = 1451
	MicGainCount      = 16
	CrystalTrimCount  = 4
)

var squelchTypeNames = [SquelchTypeCount]string{"RNG", "RG", "RN", "R"}

var powerNames = [PowerCount]string{"ULow", "Low", "High"}
