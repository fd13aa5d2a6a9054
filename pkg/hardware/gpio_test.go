package hardware

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// fakeSysfs lays out a GPIO directory with the given pins already exported.
func fakeSysfs(t *testing.T, pins ...int) string {
	t.Helper()
	base := t.TempDir()
	for _, f := range []string{"export", "unexport"} {
		if err := os.WriteFile(filepath.Join(base, f), nil, 0644); err != nil {
			t.Fatalf("Failed to create %s: %v", f, err)
		}
	}
	for _, pin := range pins {
		dir := filepath.Join(base, "gpio"+strconv.Itoa(pin))
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create pin dir: %v", err)
		}
	}
	return base
}

func TestLinuxGPIO(t *testing.T) {
	base := fakeSysfs(t, 4, 5)
	gpio := NewLinuxGPIO(base)

	if err := gpio.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	t.Run("Set Pin", func(t *testing.T) {
		if err := gpio.SetPin(4, true); err != nil {
			t.Fatalf("Failed to set pin: %v", err)
		}
		direction, err := os.ReadFile(filepath.Join(base, "gpio4", "direction"))
		if err != nil {
			t.Fatalf("Failed to read direction: %v", err)
		}
		if string(direction) != "out" {
			t.Errorf("Expected direction out, got %q", direction)
		}
		value, err := os.ReadFile(filepath.Join(base, "gpio4", "value"))
		if err != nil {
			t.Fatalf("Failed to read value: %v", err)
		}
		if string(value) != "1" {
			t.Errorf("Expected value 1, got %q", value)
		}
	})

	t.Run("Get Pin", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(base, "gpio5", "value"), []byte("1\n"), 0644); err != nil {
			t.Fatalf("Failed to write value: %v", err)
		}
		high, err := gpio.GetPin(5)
		if err != nil {
			t.Fatalf("Failed to get pin: %v", err)
		}
		if !high {
			t.Error("Expected pin high")
		}
	})

	t.Run("Close Unexports", func(t *testing.T) {
		if err := gpio.Close(); err != nil {
			t.Fatalf("Failed to close: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(base, "unexport"))
		if err != nil {
			t.Fatalf("Failed to read unexport: %v", err)
		}
		if len(data) == 0 {
			t.Error("Expected pins written to unexport")
		}
	})
}

func TestLinuxGPIOMissingBase(t *testing.T) {
	gpio := NewLinuxGPIO(filepath.Join(t.TempDir(), "missing"))
	if err := gpio.Initialize(); err == nil {
		t.Error("Expected error for missing GPIO base")
	}
}

func TestLine(t *testing.T) {
	gpio := NewMockGPIO()
	line := NewLine("pa-enable", 5, gpio)

	if line.Name() != "pa-enable" {
		t.Errorf("Unexpected name %q", line.Name())
	}
	for _, on := range []bool{true, true, false, false, true} {
		if err := line.Set(on); err != nil {
			t.Fatalf("Set(%t) failed: %v", on, err)
		}
	}
	if !line.On() {
		t.Error("Expected line on")
	}
	if got := gpio.Writes(5); got != 3 {
		t.Errorf("Expected redundant writes skipped (3 writes), got %d", got)
	}
}
