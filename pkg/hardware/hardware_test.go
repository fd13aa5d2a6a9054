package hardware

import (
	"testing"

	"github.com/dougsko/rxcore/pkg/config"
	"github.com/dougsko/rxcore/pkg/radio"
)

func testConfig() HardwareConfig {
	return HardwareConfig{
		EnableGPIO:     false,
		RxEnablePin:    4,
		PAEnablePin:    5,
		SpeakerPin:     6,
		NoiseFloorDBm:  -127,
		Seed:           7,
		BatterySource:  "static",
		BatteryPercent: 80,
		BatteryVoltage: 790,
		Carriers: []Carrier{
			{Frequency: 14550000, LevelDBm: -70, Keyed: true},
		},
	}
}

func TestNewHardwareManager(t *testing.T) {
	manager := NewHardwareManager(testConfig())
	if manager == nil {
		t.Fatal("Expected non-nil hardware manager")
	}
	if manager.IsInitialized() {
		t.Error("Expected manager to not be initialized initially")
	}
	if len(manager.Backends()) != 0 {
		t.Error("Expected no backends before initialization")
	}
}

func TestHardwareManagerInitialization(t *testing.T) {
	manager := NewHardwareManager(testConfig())
	if err := manager.Initialize(); err != nil {
		t.Fatalf("Failed to initialize hardware manager: %v", err)
	}
	defer manager.Close()

	if !manager.IsInitialized() {
		t.Fatal("Expected manager to be initialized")
	}
	// Initializing twice is harmless
	if err := manager.Initialize(); err != nil {
		t.Errorf("Second initialize failed: %v", err)
	}

	backends := manager.Backends()
	if len(backends) != 3 {
		t.Fatalf("Expected 3 backends, got %d", len(backends))
	}
	for kind, b := range backends {
		if b.Kind() != kind {
			t.Errorf("Backend registered as %s reports %s", kind, b.Kind())
		}
	}

	t.Run("Transceiver Capabilities", func(t *testing.T) {
		b := backends[radio.BackendTransceiver]
		if _, ok := b.(radio.Transmitter); !ok {
			t.Error("Expected transceiver to transmit")
		}
		if _, ok := b.(radio.SquelchDetector); !ok {
			t.Error("Expected transceiver to detect squelch")
		}
		if _, ok := b.(radio.Trimmer); !ok {
			t.Error("Expected transceiver to accept trims")
		}
	})

	t.Run("Broadcast Chip Is Receive Only", func(t *testing.T) {
		b := backends[radio.BackendFMBroadcast]
		if _, ok := b.(radio.Transmitter); ok {
			t.Error("FM broadcast chip must not transmit")
		}
		if _, ok := b.(radio.GainSetter); ok {
			t.Error("FM broadcast chip has no gain control")
		}
	})

	t.Run("DSP Receiver", func(t *testing.T) {
		b := backends[radio.BackendDSPReceiver]
		if _, ok := b.(radio.GainSetter); !ok {
			t.Error("Expected DSP receiver gain control")
		}
		if _, ok := b.(radio.Transmitter); ok {
			t.Error("DSP receiver must not transmit")
		}
	})

	if manager.PAEnabled() {
		t.Error("Expected PA off after initialization")
	}
	if manager.Battery().Percent() != 80 {
		t.Errorf("Expected battery 80%%, got %d", manager.Battery().Percent())
	}
	if len(manager.Environment().Carriers()) != 1 {
		t.Errorf("Expected one carrier, got %d", len(manager.Environment().Carriers()))
	}
}

func TestHardwareManagerClose(t *testing.T) {
	manager := NewHardwareManager(testConfig())
	if err := manager.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	tx := manager.Transceiver()
	if err := tx.SetPAEnable(true); err != nil {
		t.Fatalf("Failed to key PA: %v", err)
	}
	if !manager.PAEnabled() {
		t.Fatal("Expected PA on")
	}

	if err := manager.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if manager.IsInitialized() {
		t.Error("Expected manager closed")
	}
	if manager.PAEnabled() {
		t.Error("Close must release the PA")
	}
	if err := manager.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestConfigFromFile(t *testing.T) {
	cfg := config.Default()
	cfg.Battery.Source = "sysfs"
	cfg.Sim.Carriers = []config.SimCarrier{
		{Frequency: 14550000, LevelDBm: -80, CTCSS: -1, Keyed: true},
		{Frequency: 43350000, LevelDBm: -90, CTCSS: 12},
		{Frequency: 43360000, LevelDBm: -90, CTCSS: 999},
	}

	hc := ConfigFromFile(cfg)
	if hc.RxEnablePin != 4 || hc.PAEnablePin != 5 || hc.SpeakerPin != 6 {
		t.Errorf("Unexpected pins %d/%d/%d", hc.RxEnablePin, hc.PAEnablePin, hc.SpeakerPin)
	}
	if hc.BatterySource != "sysfs" || hc.BatterySysfs != cfg.Battery.SysfsPath {
		t.Errorf("Unexpected battery source %q at %q", hc.BatterySource, hc.BatterySysfs)
	}
	if len(hc.Carriers) != 3 {
		t.Fatalf("Expected 3 carriers, got %d", len(hc.Carriers))
	}
	if hc.Carriers[0].Code.Type != radio.CodeNone {
		t.Errorf("Expected no code on first carrier, got %+v", hc.Carriers[0].Code)
	}
	if hc.Carriers[1].Code != (radio.Code{Type: radio.CodeCTCSS, Value: 12}) {
		t.Errorf("Expected CTCSS 12 on second carrier, got %+v", hc.Carriers[1].Code)
	}
	if hc.Carriers[2].Code.Type != radio.CodeNone {
		t.Errorf("Out-of-range tone index should carry no code, got %+v", hc.Carriers[2].Code)
	}
}
