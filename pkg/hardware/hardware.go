package hardware

import (
	"fmt"
	"sync"

	"github.com/dougsko/rxcore/pkg/config"
	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/radio"
)

// HardwareConfig represents hardware configuration
type HardwareConfig struct {
	EnableGPIO  bool
	GPIOBase    string
	RxEnablePin int
	PAEnablePin int
	SpeakerPin  int
	DSPPowerOff bool

	NoiseFloorDBm float64
	Seed          int64
	Carriers      []Carrier

	BatterySource   string
	BatterySysfs    string
	BatteryPercent  uint8
	BatteryVoltage  uint16
	BatteryCharging bool
}

// ConfigFromFile maps the daemon configuration onto the hardware layer.
func ConfigFromFile(cfg *config.Config) HardwareConfig {
	hc := HardwareConfig{
		EnableGPIO:      cfg.Hardware.EnableGPIO,
		GPIOBase:        cfg.Hardware.GPIOBase,
		RxEnablePin:     cfg.Hardware.RxEnablePin,
		PAEnablePin:     cfg.Hardware.PAEnablePin,
		SpeakerPin:      cfg.Hardware.SpeakerPin,
		DSPPowerOff:     cfg.Radio.DSPPowerOff,
		NoiseFloorDBm:   cfg.Sim.NoiseFloorDBm,
		Seed:            cfg.Sim.Seed,
		BatterySource:   cfg.Battery.Source,
		BatterySysfs:    cfg.Battery.SysfsPath,
		BatteryPercent:  uint8(cfg.Battery.Percent),
		BatteryVoltage:  uint16(cfg.Battery.Voltage),
		BatteryCharging: cfg.Battery.Charging,
	}
	for _, c := range cfg.Sim.Carriers {
		carrier := Carrier{Frequency: c.Frequency, LevelDBm: c.LevelDBm, Keyed: c.Keyed}
		if c.CTCSS >= 0 && c.CTCSS < len(radio.CTCSSTones) {
			carrier.Code = radio.Code{Type: radio.CodeCTCSS, Value: uint8(c.CTCSS)}
		}
		hc.Carriers = append(hc.Carriers, carrier)
	}
	return hc
}

// HardwareManager owns the board: GPIO lines, the shared speaker, the
// three RF chips and the battery.
type HardwareManager struct {
	config HardwareConfig
	mutex  sync.RWMutex

	gpio     GPIOInterface
	rxEnable *Line
	paEnable *Line
	speaker  *Speaker
	env      *Environment

	transceiver *Transceiver
	fm          *FMBroadcast
	dsp         *DSPReceiver
	battery     radio.Battery

	initialized bool
}

// NewHardwareManager creates a new hardware manager
func NewHardwareManager(config HardwareConfig) *HardwareManager {
	return &HardwareManager{
		config: config,
	}
}

// Initialize brings up GPIO and builds the chips
func (h *HardwareManager) Initialize() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.initialized {
		return nil
	}

	if h.config.EnableGPIO {
		h.gpio = NewLinuxGPIO(h.config.GPIOBase)
	} else {
		h.gpio = NewMockGPIO()
	}
	if err := h.gpio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize GPIO: %w", err)
	}

	h.rxEnable = NewLine("rx-enable", h.config.RxEnablePin, h.gpio)
	h.paEnable = NewLine("pa-enable", h.config.PAEnablePin, h.gpio)
	h.speaker = NewSpeaker(NewLine("speaker", h.config.SpeakerPin, h.gpio))
	if err := h.rxEnable.Set(true); err != nil {
		return fmt.Errorf("failed to enable receiver: %w", err)
	}
	if err := h.paEnable.Set(false); err != nil {
		return fmt.Errorf("failed to disable PA: %w", err)
	}

	h.env = NewEnvironment(h.config.NoiseFloorDBm, h.config.Seed)
	for _, c := range h.config.Carriers {
		h.env.AddCarrier(c)
	}

	h.transceiver = NewTransceiver(h.env, h.speaker, h.rxEnable, h.paEnable)
	h.fm = NewFMBroadcast(h.env, h.speaker)
	h.dsp = NewDSPReceiver(h.env, h.speaker, h.config.DSPPowerOff)

	switch h.config.BatterySource {
	case "sysfs":
		h.battery = NewSysfsBattery(h.config.BatterySysfs)
	default:
		h.battery = NewStaticBattery(h.config.BatteryPercent, h.config.BatteryVoltage, h.config.BatteryCharging)
	}

	h.initialized = true
	logging.Info("hardware", "initialized", map[string]interface{}{
		"gpio":     h.config.EnableGPIO,
		"carriers": len(h.config.Carriers),
		"battery":  h.config.BatterySource,
	})
	return nil
}

// Close shuts down all hardware interfaces
func (h *HardwareManager) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.initialized {
		return nil
	}

	// Never leave the PA keyed
	if err := h.paEnable.Set(false); err != nil {
		logging.Error("hardware", "failed to release PA", map[string]interface{}{"error": err.Error()})
	}
	if err := h.gpio.Close(); err != nil {
		logging.Error("hardware", "error closing GPIO", map[string]interface{}{"error": err.Error()})
	}

	h.initialized = false
	logging.Info("hardware", "shut down")
	return nil
}

// Backends returns the chip drivers keyed by kind
func (h *HardwareManager) Backends() radio.Backends {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if !h.initialized {
		return radio.Backends{}
	}
	return radio.Backends{
		radio.BackendTransceiver: h.transceiver,
		radio.BackendFMBroadcast: h.fm.Backend(),
		radio.BackendDSPReceiver: h.dsp,
	}
}

// IsInitialized returns whether hardware is initialized
func (h *HardwareManager) IsInitialized() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.initialized
}

// GetConfig returns the hardware configuration
func (h *HardwareManager) GetConfig() HardwareConfig {
	return h.config
}

func (h *HardwareManager) Battery() radio.Battery { return h.battery }

func (h *HardwareManager) Environment() *Environment { return h.env }

func (h *HardwareManager) Speaker() *Speaker { return h.speaker }

func (h *HardwareManager) Transceiver() *Transceiver { return h.transceiver }

// PAEnabled reports the PA-enable line level
func (h *HardwareManager) PAEnabled() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.paEnable != nil && h.paEnable.On()
}
