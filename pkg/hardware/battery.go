package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dougsko/rxcore/pkg/logging"
)

// StaticBattery reports fixed readings, settable at runtime.
type StaticBattery struct {
	mu       sync.RWMutex
	percent  uint8
	voltage  uint16
	charging bool
}

func NewStaticBattery(percent uint8, voltage uint16, charging bool) *StaticBattery {
	return &StaticBattery{percent: percent, voltage: voltage, charging: charging}
}

func (b *StaticBattery) Percent() uint8 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.percent
}

func (b *StaticBattery) Voltage() uint16 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.voltage
}

func (b *StaticBattery) Charging() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.charging
}

// Set replaces all three readings.
func (b *StaticBattery) Set(percent uint8, voltage uint16, charging bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.percent = percent
	b.voltage = voltage
	b.charging = charging
}

// SysfsBattery reads a Linux power_supply directory. Read failures are
// logged and reported as an empty battery, which denies transmit.
type SysfsBattery struct {
	path string
}

func NewSysfsBattery(path string) *SysfsBattery {
	return &SysfsBattery{path: path}
}

func (b *SysfsBattery) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(b.path, name))
	if err != nil {
		return "", fmt.Errorf("failed to read battery %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (b *SysfsBattery) readInt(name string) (int64, bool) {
	s, err := b.read(name)
	if err == nil {
		var v int64
		if v, err = strconv.ParseInt(s, 10, 64); err == nil {
			return v, true
		}
	}
	logging.Warn("battery", "reading unavailable", map[string]interface{}{
		"file":  name,
		"error": err.Error(),
	})
	return 0, false
}

func (b *SysfsBattery) Percent() uint8 {
	v, ok := b.readInt("capacity")
	if !ok || v < 0 {
		return 0
	}
	if v > 100 {
		v = 100
	}
	return uint8(v)
}

// Voltage converts voltage_now from microvolts to 10 mV units.
func (b *SysfsBattery) Voltage() uint16 {
	v, ok := b.readInt("voltage_now")
	if !ok || v < 0 {
		return 0
	}
	return uint16(v / 10000)
}

func (b *SysfsBattery) Charging() bool {
	s, err := b.read("status")
	if err != nil {
		return false
	}
	return s == "Charging"
}
