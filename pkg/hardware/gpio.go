package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dougsko/rxcore/pkg/logging"
)

// DefaultGPIOBase is the kernel's sysfs GPIO class directory.
const DefaultGPIOBase = "/sys/class/gpio"

// GPIOInterface defines GPIO operations
type GPIOInterface interface {
	Initialize() error
	Close() error
	SetPin(pin int, value bool) error
	GetPin(pin int) (bool, error)
}

// LinuxGPIO implements GPIOInterface using Linux sysfs GPIO
type LinuxGPIO struct {
	base         string
	exportedPins map[int]bool
	mutex        sync.RWMutex
}

// NewLinuxGPIO creates a sysfs GPIO interface rooted at base
func NewLinuxGPIO(base string) *LinuxGPIO {
	if base == "" {
		base = DefaultGPIOBase
	}
	return &LinuxGPIO{
		base:         base,
		exportedPins: make(map[int]bool),
	}
}

// Initialize checks that the sysfs tree is there
func (g *LinuxGPIO) Initialize() error {
	if _, err := os.Stat(g.base); os.IsNotExist(err) {
		return fmt.Errorf("GPIO not available at %s", g.base)
	}

	logging.Info("gpio", "initialized", map[string]interface{}{"base": g.base})
	return nil
}

// Close unexports every pin this process exported
func (g *LinuxGPIO) Close() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	for pin := range g.exportedPins {
		if err := g.unexportPin(pin); err != nil {
			logging.Warn("gpio", "unexport failed", map[string]interface{}{"pin": pin, "error": err.Error()})
		}
	}
	g.exportedPins = make(map[int]bool)

	logging.Info("gpio", "closed")
	return nil
}

func (g *LinuxGPIO) pinPath(pin int, file string) string {
	return filepath.Join(g.base, "gpio"+strconv.Itoa(pin), file)
}

// ensure exports pin and sets its direction on first use
func (g *LinuxGPIO) ensure(pin int, direction string) error {
	if g.exportedPins[pin] {
		return nil
	}
	if err := g.exportPin(pin); err != nil {
		return fmt.Errorf("failed to export pin %d: %w", pin, err)
	}
	if err := g.setPinDirection(pin, direction); err != nil {
		return fmt.Errorf("failed to set pin %d direction: %w", pin, err)
	}
	g.exportedPins[pin] = true
	return nil
}

// SetPin sets a GPIO pin value
func (g *LinuxGPIO) SetPin(pin int, value bool) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if err := g.ensure(pin, "out"); err != nil {
		return err
	}

	valueStr := "0"
	if value {
		valueStr = "1"
	}
	if err := os.WriteFile(g.pinPath(pin, "value"), []byte(valueStr), 0644); err != nil {
		return fmt.Errorf("failed to set pin %d value: %w", pin, err)
	}
	return nil
}

// GetPin gets a GPIO pin value
func (g *LinuxGPIO) GetPin(pin int) (bool, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if err := g.ensure(pin, "in"); err != nil {
		return false, err
	}

	data, err := os.ReadFile(g.pinPath(pin, "value"))
	if err != nil {
		return false, fmt.Errorf("failed to read pin %d value: %w", pin, err)
	}
	return strings.TrimSpace(string(data)) == "1", nil
}

// exportPin exports a GPIO pin to userspace
func (g *LinuxGPIO) exportPin(pin int) error {
	pinDir := filepath.Join(g.base, "gpio"+strconv.Itoa(pin))
	if _, err := os.Stat(pinDir); err == nil {
		return nil // Already exported
	}

	if err := os.WriteFile(filepath.Join(g.base, "export"), []byte(strconv.Itoa(pin)), 0644); err != nil {
		return fmt.Errorf("failed to export GPIO pin %d: %w", pin, err)
	}

	// The kernel creates the pin directory asynchronously
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(pinDir); err == nil {
			logging.Debug("gpio", "exported pin", map[string]interface{}{"pin": pin})
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}

	return fmt.Errorf("pin %d directory did not appear after export", pin)
}

// unexportPin unexports a GPIO pin from userspace
func (g *LinuxGPIO) unexportPin(pin int) error {
	if err := os.WriteFile(filepath.Join(g.base, "unexport"), []byte(strconv.Itoa(pin)), 0644); err != nil {
		return fmt.Errorf("failed to unexport GPIO pin %d: %w", pin, err)
	}
	return nil
}

func (g *LinuxGPIO) setPinDirection(pin int, direction string) error {
	if err := os.WriteFile(g.pinPath(pin, "direction"), []byte(direction), 0644); err != nil {
		return fmt.Errorf("failed to set pin %d direction to %s: %w", pin, direction, err)
	}
	return nil
}

// Line is one named output of the radio board.
type Line struct {
	name string
	pin  int
	gpio GPIOInterface

	mu    sync.Mutex
	state bool
	set   bool
}

// NewLine binds name to pin on gpio. A nil gpio makes a line that only
// remembers its state.
func NewLine(name string, pin int, gpio GPIOInterface) *Line {
	return &Line{name: name, pin: pin, gpio: gpio}
}

// Set drives the line. Writing the level it already has is skipped.
func (l *Line) Set(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.set && l.state == on {
		return nil
	}
	if l.gpio != nil {
		if err := l.gpio.SetPin(l.pin, on); err != nil {
			return fmt.Errorf("%s line: %w", l.name, err)
		}
	}
	l.state = on
	l.set = true
	return nil
}

// On reports the last level driven.
func (l *Line) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Line) Name() string { return l.name }
