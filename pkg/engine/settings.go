package engine

import (
	"fmt"

	"github.com/dougsko/rxcore/pkg/config"
	"github.com/dougsko/rxcore/pkg/radio"
	"github.com/dougsko/rxcore/pkg/scan"
)

// SettingsFromConfig builds the snapshot the radio core reads each tick.
func SettingsFromConfig(cfg *config.Config) radio.Settings {
	s := radio.DefaultSettings()
	s.SquelchOpenTime = uint8(cfg.Squelch.OpenTime)
	s.SquelchCloseTime = uint8(cfg.Squelch.CloseTime)
	s.Monitor = cfg.Radio.Monitor
	s.ShowAllRSSI = cfg.Radio.ShowAllRSSI
	s.DTMFDecode = cfg.Radio.DTMFDecode
	s.DSPPowerOff = cfg.Radio.DSPPowerOff
	s.Upconverter = cfg.Radio.Upconverter
	s.Roger = cfg.TX.Roger
	s.STE = cfg.TX.STE
	if cfg.TX.BatteryVoltageMax > 0 {
		s.BatteryVoltageMax = uint16(cfg.TX.BatteryVoltageMax)
	}
	if cfg.Radio.PersistDelayMs > 0 {
		s.PersistDelayMs = uint32(cfg.Radio.PersistDelayMs)
	}
	if cfg.Radio.PollIntervalMs > 0 {
		s.MultiwatchPollMs = uint32(cfg.Radio.PollIntervalMs)
	}
	return s
}

// ScanConfigFromConfig converts the scan section, parsing its timeouts.
func ScanConfigFromConfig(cfg *config.Config) (scan.Config, error) {
	sc := scan.DefaultConfig()

	listen, err := config.ParseTimeout(cfg.Scan.ListenTimeout)
	if err != nil {
		return sc, fmt.Errorf("listen timeout: %w", err)
	}
	stay, err := config.ParseTimeout(cfg.Scan.StayTimeout)
	if err != nil {
		return sc, fmt.Errorf("stay timeout: %w", err)
	}
	sc.ListenTimeout = listen
	sc.StayTimeout = stay
	sc.SkipGarbage = cfg.Scan.SkipGarbage

	if cfg.Scan.DwellUs > 0 {
		sc.DwellUs = uint32(cfg.Scan.DwellUs)
	}
	if cfg.Scan.GarbageModulus > 0 {
		sc.GarbageModulus = cfg.Scan.GarbageModulus
	}
	if cfg.Scan.ThinkingDelayMs > 0 {
		sc.ThinkingDelayMs = uint32(cfg.Scan.ThinkingDelayMs)
	}
	if cfg.Scan.DropPercent > 0 {
		sc.DropPercent = uint16(cfg.Scan.DropPercent)
	}
	if cfg.Scan.DecayInterval > 0 {
		sc.DecayInterval = uint32(cfg.Scan.DecayInterval)
	}
	if cfg.Scan.ChannelCheckMs > 0 {
		sc.ChannelCheckMs = uint32(cfg.Scan.ChannelCheckMs)
	}
	return sc, nil
}
