package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary directory for test files
	tempDir, err := os.MkdirTemp("", "rxcore-config-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	t.Run("Valid Config", func(t *testing.T) {
		configContent := `
station:
  callsign: "K3DEP"

radio:
  max_vfos: 4
  multiwatch: true
  upconverter: false

scan:
  dwell_us: 800
  listen_timeout: "5s"
  stay_timeout: "none"
  skip_garbage: true

tx:
  roger: true
  battery_voltage_max: 860

sim:
  carriers:
    - frequency: 14550000
      level_dbm: -70
      ctcss: -1
      keyed: true

web:
  port: 9090

storage:
  database_path: "/tmp/rxcore.db"

logging:
  level: "debug"
  file: "/var/log/rxcore.log"
  console: true
`
		configPath := filepath.Join(tempDir, "valid.yaml")
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if config.Station.Callsign != "K3DEP" {
			t.Errorf("Expected callsign K3DEP, got %s", config.Station.Callsign)
		}
		if config.Radio.MaxVFOs != 4 {
			t.Errorf("Expected 4 VFOs, got %d", config.Radio.MaxVFOs)
		}
		if !config.Radio.Multiwatch {
			t.Error("Expected multiwatch enabled")
		}
		if config.Scan.DwellUs != 800 {
			t.Errorf("Expected dwell 800us, got %d", config.Scan.DwellUs)
		}
		if !config.Scan.SkipGarbage {
			t.Error("Expected skip_garbage enabled")
		}
		if config.TX.BatteryVoltageMax != 860 {
			t.Errorf("Expected battery voltage max 860, got %d", config.TX.BatteryVoltageMax)
		}
		if len(config.Sim.Carriers) != 1 || config.Sim.Carriers[0].Frequency != 14550000 {
			t.Errorf("Expected one sim carrier at 14550000, got %+v", config.Sim.Carriers)
		}
		if config.Web.Port != 9090 {
			t.Errorf("Expected web port 9090, got %d", config.Web.Port)
		}
		if config.Logging.Level != "debug" {
			t.Errorf("Expected log level debug, got %s", config.Logging.Level)
		}
		if !config.Logging.Console {
			t.Error("Expected console logging enabled")
		}
	})

	t.Run("Config With Defaults", func(t *testing.T) {
		configContent := `
station:
  callsign: "N0ABC"
`
		configPath := filepath.Join(tempDir, "minimal.yaml")
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if config.Radio.MaxVFOs != 16 {
			t.Errorf("Expected default 16 VFOs, got %d", config.Radio.MaxVFOs)
		}
		if config.Radio.PollIntervalMs != 100 {
			t.Errorf("Expected default multiwatch poll 100ms, got %d", config.Radio.PollIntervalMs)
		}
		if config.Radio.PersistDelayMs != 1000 {
			t.Errorf("Expected default persist delay 1000ms, got %d", config.Radio.PersistDelayMs)
		}
		if config.Scan.DwellUs != 1200 {
			t.Errorf("Expected default dwell 1200us, got %d", config.Scan.DwellUs)
		}
		if config.Scan.ListenTimeout != "none" {
			t.Errorf("Expected default listen timeout none, got %s", config.Scan.ListenTimeout)
		}
		if config.Scan.StayTimeout != "2s" {
			t.Errorf("Expected default stay timeout 2s, got %s", config.Scan.StayTimeout)
		}
		if config.Scan.GarbageModulus != 1300000 {
			t.Errorf("Expected default garbage modulus 1300000, got %d", config.Scan.GarbageModulus)
		}
		if config.Scan.DropPercent != 25 {
			t.Errorf("Expected default drop percent 25, got %d", config.Scan.DropPercent)
		}
		if config.Scan.DecayInterval != 64 {
			t.Errorf("Expected default decay interval 64, got %d", config.Scan.DecayInterval)
		}
		if config.TX.BatteryVoltageMax != 880 {
			t.Errorf("Expected default battery voltage max 880, got %d", config.TX.BatteryVoltageMax)
		}
		if config.Battery.Calibration != 2000 {
			t.Errorf("Expected default calibration 2000, got %d", config.Battery.Calibration)
		}
		if config.Web.BindAddress != "0.0.0.0" {
			t.Errorf("Expected default bind address 0.0.0.0, got %s", config.Web.BindAddress)
		}
		if config.Logging.Level != "info" {
			t.Errorf("Expected default log level info, got %s", config.Logging.Level)
		}
		if config.Logging.MaxSize != 100 {
			t.Errorf("Expected default log max size 100, got %d", config.Logging.MaxSize)
		}
		if config.Logging.MaxBackups != 5 {
			t.Errorf("Expected default log max backups 5, got %d", config.Logging.MaxBackups)
		}
		if config.Logging.MaxAge != 30 {
			t.Errorf("Expected default log max age 30, got %d", config.Logging.MaxAge)
		}
	})

	t.Run("File Not Found", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/path/config.yaml")
		if err == nil {
			t.Fatal("Expected error for nonexistent file, got nil")
		}
		if !strings.Contains(err.Error(), "failed to read config file") {
			t.Errorf("Expected 'failed to read config file' error, got: %v", err)
		}
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		configContent := `
radio:
  max_vfos: [invalid yaml structure
`
		configPath := filepath.Join(tempDir, "invalid.yaml")
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		_, err := LoadConfig(configPath)
		if err == nil {
			t.Fatal("Expected error for invalid YAML, got nil")
		}
		if !strings.Contains(err.Error(), "failed to parse config file") {
			t.Errorf("Expected 'failed to parse config file' error, got: %v", err)
		}
	})

	t.Run("Empty File", func(t *testing.T) {
		configPath := filepath.Join(tempDir, "empty.yaml")
		if err := os.WriteFile(configPath, []byte(""), 0644); err != nil {
			t.Fatalf("Failed to write empty config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Expected no error for empty file, got: %v", err)
		}
		if config.Scan.DwellUs != 1200 {
			t.Errorf("Expected default dwell for empty file, got %d", config.Scan.DwellUs)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("Defaults Are Valid", func(t *testing.T) {
		if err := Default().Validate(); err != nil {
			t.Errorf("Expected defaults to validate, got: %v", err)
		}
	})

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"Too Many VFOs", func(c *Config) { c.Radio.MaxVFOs = 17 }, "max_vfos"},
		{"Squelch Open Time", func(c *Config) { c.Squelch.OpenTime = 8 }, "open_time"},
		{"Bad Listen Timeout", func(c *Config) { c.Scan.ListenTimeout = "soon" }, "listen_timeout"},
		{"Bad Stay Timeout", func(c *Config) { c.Scan.StayTimeout = "-1s" }, "stay_timeout"},
		{"Drop Percent", func(c *Config) { c.Scan.DropPercent = 101 }, "drop_percent"},
		{"Battery Source", func(c *Config) { c.Battery.Source = "adc" }, "battery source"},
		{"MQTT Without Host", func(c *Config) { c.MQTT.Enabled = true }, "mqtt host"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := Default()
			tc.mutate(config)

			err := config.Validate()
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestParseTimeout(t *testing.T) {
	testCases := []struct {
		input    string
		expected uint32
	}{
		{"none", NeverTimeout},
		{"Never", NeverTimeout},
		{"0", 0},
		{"100ms", 100},
		{"2s", 2000},
		{"5m", 300000},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseTimeout(tc.input)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}

	if _, err := ParseTimeout("fortnight"); err == nil {
		t.Error("Expected error for unparseable timeout")
	}
}
