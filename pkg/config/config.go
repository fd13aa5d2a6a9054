package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Config represents the rxcore configuration
type Config struct {
	Station struct {
		Callsign string `yaml:"callsign"`
		Name     string `yaml:"name"`
	} `yaml:"station"`

	Radio struct {
		MaxVFOs        int  `yaml:"max_vfos"`
		Multiwatch     bool `yaml:"multiwatch"`
		AudioRouting   bool `yaml:"audio_routing"`
		Monitor        bool `yaml:"monitor"`
		ShowAllRSSI    bool `yaml:"show_all_rssi"`
		Upconverter    bool `yaml:"upconverter"`
		DSPPowerOff    bool `yaml:"dsp_power_off"`
		DTMFDecode     bool `yaml:"dtmf_decode"`
		PollIntervalMs int  `yaml:"poll_interval_ms"`
		PersistDelayMs int  `yaml:"persist_delay_ms"`
	} `yaml:"radio"`

	Squelch struct {
		// Indexes into the chip's open/close timing tables
		OpenTime  int `yaml:"open_time"`
		CloseTime int `yaml:"close_time"`
	} `yaml:"squelch"`

	Scan struct {
		DwellUs          int    `yaml:"dwell_us"`
		ListenTimeout    string `yaml:"listen_timeout"`
		StayTimeout      string `yaml:"stay_timeout"`
		SkipGarbage      bool   `yaml:"skip_garbage"`
		GarbageModulus   uint32 `yaml:"garbage_modulus"`
		ThinkingDelayMs  int    `yaml:"thinking_delay_ms"`
		DropPercent      int    `yaml:"drop_percent"`
		DecayInterval    int    `yaml:"decay_interval"`
		Multiband        bool   `yaml:"multiband"`
		ChannelCheckMs   int    `yaml:"channel_check_ms"`
		Scanlists        uint16 `yaml:"scanlists"`
		TelemetrySeconds int    `yaml:"telemetry_seconds"`
	} `yaml:"scan"`

	TX struct {
		Roger             bool `yaml:"roger"`
		STE               bool `yaml:"ste"`
		BatteryVoltageMax int  `yaml:"battery_voltage_max"`
	} `yaml:"tx"`

	Battery struct {
		Source      string `yaml:"source"` // static or sysfs
		SysfsPath   string `yaml:"sysfs_path"`
		Percent     int    `yaml:"percent"`
		Voltage     int    `yaml:"voltage"`
		Charging    bool   `yaml:"charging"`
		Calibration int    `yaml:"calibration"`
	} `yaml:"battery"`

	Hardware struct {
		EnableGPIO  bool   `yaml:"enable_gpio"`
		GPIOBase    string `yaml:"gpio_base"`
		RxEnablePin int    `yaml:"rx_enable_pin"`
		PAEnablePin int    `yaml:"pa_enable_pin"`
		SpeakerPin  int    `yaml:"speaker_pin"`
	} `yaml:"hardware"`

	Sim struct {
		NoiseFloorDBm float64      `yaml:"noise_floor_dbm"`
		Seed          int64        `yaml:"seed"`
		Carriers      []SimCarrier `yaml:"carriers"`
	} `yaml:"sim"`

	Web struct {
		Port        int    `yaml:"port"`
		BindAddress string `yaml:"bind_address"`
	} `yaml:"web"`

	API struct {
		UnixSocket string `yaml:"unix_socket"`
	} `yaml:"api"`

	Storage struct {
		DatabasePath string `yaml:"database_path"`
	} `yaml:"storage"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		Console    bool   `yaml:"console"`
		Structured bool   `yaml:"structured"`
		MaxSize    int    `yaml:"max_size"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`

	MQTT struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Topic    string `yaml:"topic"`
		ClientID string `yaml:"client_id"`
		QoS      byte   `yaml:"qos"`
	} `yaml:"mqtt"`

	InfluxDB struct {
		Host         string `yaml:"host"`
		Token        string `yaml:"token"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

// SimCarrier is a transmitter present in the simulated RF field.
type SimCarrier struct {
	Frequency uint32  `yaml:"frequency"` // 10 Hz units
	LevelDBm  float64 `yaml:"level_dbm"`
	CTCSS     int     `yaml:"ctcss"` // tone index, -1 for none
	Keyed     bool    `yaml:"keyed"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var config Config
	config.ApplyDefaults()
	return &config
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Radio.MaxVFOs == 0 {
		c.Radio.MaxVFOs = 16
	}
	if c.Radio.PollIntervalMs == 0 {
		c.Radio.PollIntervalMs = 100
	}
	if c.Radio.PersistDelayMs == 0 {
		c.Radio.PersistDelayMs = 1000
	}
	if c.Squelch.CloseTime == 0 {
		c.Squelch.CloseTime = 1
	}
	if c.Scan.DwellUs == 0 {
		c.Scan.DwellUs = 1200
	}
	if c.Scan.ListenTimeout == "" {
		c.Scan.ListenTimeout = "none"
	}
	if c.Scan.StayTimeout == "" {
		c.Scan.StayTimeout = "2s"
	}
	if c.Scan.GarbageModulus == 0 {
		c.Scan.GarbageModulus = 1300000
	}
	if c.Scan.ThinkingDelayMs == 0 {
		c.Scan.ThinkingDelayMs = 50
	}
	if c.Scan.DropPercent == 0 {
		c.Scan.DropPercent = 25
	}
	if c.Scan.DecayInterval == 0 {
		c.Scan.DecayInterval = 64
	}
	if c.Scan.ChannelCheckMs == 0 {
		c.Scan.ChannelCheckMs = 55
	}
	if c.Scan.Scanlists == 0 {
		c.Scan.Scanlists = 0xFFFF
	}
	if c.Scan.TelemetrySeconds == 0 {
		c.Scan.TelemetrySeconds = 1
	}
	if c.TX.BatteryVoltageMax == 0 {
		c.TX.BatteryVoltageMax = 880
	}
	if c.Battery.Source == "" {
		c.Battery.Source = "static"
	}
	if c.Battery.SysfsPath == "" {
		c.Battery.SysfsPath = "/sys/class/power_supply/BAT0"
	}
	if c.Battery.Percent == 0 && c.Battery.Voltage == 0 {
		c.Battery.Percent = 80
		c.Battery.Voltage = 790
	}
	if c.Battery.Calibration == 0 {
		c.Battery.Calibration = 2000
	}
	if c.Hardware.GPIOBase == "" {
		c.Hardware.GPIOBase = "/sys/class/gpio"
	}
	if c.Hardware.RxEnablePin == 0 {
		c.Hardware.RxEnablePin = 4
	}
	if c.Hardware.PAEnablePin == 0 {
		c.Hardware.PAEnablePin = 5
	}
	if c.Hardware.SpeakerPin == 0 {
		c.Hardware.SpeakerPin = 6
	}
	if c.Sim.NoiseFloorDBm == 0 {
		c.Sim.NoiseFloorDBm = -127
	}
	if c.Sim.Seed == 0 {
		c.Sim.Seed = 1
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
	if c.Web.BindAddress == "" {
		c.Web.BindAddress = "0.0.0.0"
	}
	if c.API.UnixSocket == "" {
		c.API.UnixSocket = "/tmp/rxcore.sock"
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "./rxcore.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSize == 0 {
		c.Logging.MaxSize = 100
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 5
	}
	if c.Logging.MaxAge == 0 {
		c.Logging.MaxAge = 30
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "rxcore/loot"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "rxcore"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Radio.MaxVFOs < 1 || c.Radio.MaxVFOs > 16 {
		return fmt.Errorf("radio max_vfos must be between 1 and 16")
	}
	if c.Squelch.OpenTime < 0 || c.Squelch.OpenTime > 7 {
		return fmt.Errorf("squelch open_time must be between 0 and 7")
	}
	if c.Squelch.CloseTime < 0 || c.Squelch.CloseTime > 3 {
		return fmt.Errorf("squelch close_time must be between 0 and 3")
	}
	if c.Scan.DwellUs < 0 || c.Scan.DwellUs > 100000 {
		return fmt.Errorf("scan dwell_us must be between 0 and 100000")
	}
	if _, err := ParseTimeout(c.Scan.ListenTimeout); err != nil {
		return fmt.Errorf("scan listen_timeout: %w", err)
	}
	if _, err := ParseTimeout(c.Scan.StayTimeout); err != nil {
		return fmt.Errorf("scan stay_timeout: %w", err)
	}
	if c.Scan.DropPercent < 1 || c.Scan.DropPercent > 100 {
		return fmt.Errorf("scan drop_percent must be between 1 and 100")
	}
	if c.Scan.DecayInterval < 1 {
		return fmt.Errorf("scan decay_interval must be positive")
	}
	if c.Battery.Source != "static" && c.Battery.Source != "sysfs" {
		return fmt.Errorf("battery source must be static or sysfs")
	}
	if c.Battery.Percent < 0 || c.Battery.Percent > 100 {
		return fmt.Errorf("battery percent must be between 0 and 100")
	}
	if c.MQTT.Enabled && c.MQTT.Host == "" {
		return fmt.Errorf("mqtt host is required when mqtt is enabled")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	return nil
}

// NeverTimeout is returned by ParseTimeout for "none".
const NeverTimeout = ^uint32(0)

// ParseTimeout converts a duration string or "none" to milliseconds.
func ParseTimeout(s string) (uint32, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "never", "off":
		return NeverTimeout, nil
	case "", "0":
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout %q is negative", s)
	}
	ms := d.Milliseconds()
	if ms >= int64(NeverTimeout) {
		return 0, fmt.Errorf("timeout %q too long", s)
	}
	return uint32(ms), nil
}
