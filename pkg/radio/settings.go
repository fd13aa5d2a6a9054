package radio

// Settings is the read-only snapshot of global tunables the core consumes.
// The main loop hands a fresh copy to the engine at the start of every tick.
type Settings struct {
	SquelchOpenTime  uint8
	SquelchCloseTime uint8

	Monitor     bool
	ShowAllRSSI bool
	DTMFDecode  bool
	DSPPowerOff bool

	Upconverter       bool
	Roger             bool
	STE               bool
	BatteryVoltageMax uint16

	MicGain   uint32
	Deviation uint32

	// PersistDelayMs debounces storage writes after a parameter change.
	PersistDelayMs uint32
	// MultiwatchPollMs is the minimum interval between multiwatch passes.
	MultiwatchPollMs uint32
}

// DefaultSettings mirrors the firmware defaults.
func DefaultSettings() Settings {
	return Settings{
		SquelchCloseTime:  1,
		BatteryVoltageMax: 880,
		MicGain:           15,
		Deviation:         1300,
		PersistDelayMs:    1000,
		MultiwatchPollMs:  100,
	}
}
