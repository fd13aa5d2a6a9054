package engine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/radio"
	"github.com/dougsko/rxcore/pkg/storage"
)

// ErrFactoryReset aborts a boot whose battery calibration is corrupt. The
// next boot restores factory defaults.
var ErrFactoryReset = errors.New("battery calibration out of range, factory defaults scheduled")

// Accepted battery calibration range.
const (
	CalibrationMin = 1900
	CalibrationMax = 2154

	DefaultCalibration = 2000
)

// Store is the persistence the engine needs beyond radio.Storage.
type Store interface {
	radio.Storage
	ChannelIndexes(mask uint16) ([]uint16, error)
	Bands(mask uint16) ([]radio.Record, error)
	NeedsFactoryReset() (bool, error)
	MarkFactoryReset() error
	ResetToDefaults(records []radio.Record, settings map[string]string) error
}

var _ Store = (*storage.RecordStore)(nil)

// FactoryRecords is one VFO per backend.
func FactoryRecords() []radio.Record {
	return []radio.Record{
		radio.DefaultVFORecord(0, radio.BackendTransceiver),
		radio.DefaultVFORecord(1, radio.BackendFMBroadcast),
		radio.DefaultVFORecord(2, radio.BackendDSPReceiver),
	}
}

// FactorySettings are the settings written with FactoryRecords.
func FactorySettings() map[string]string {
	return map[string]string{
		storage.SettingBatteryCalibration: strconv.Itoa(DefaultCalibration),
		radio.SettingActiveVFO:            "0",
	}
}

// prepareStorage restores factory defaults when a previous boot asked for
// them, then checks the battery calibration. A stored calibration wins
// over the configured one, which only seeds an empty store.
func prepareStorage(store Store, configured int) error {
	reset, err := store.NeedsFactoryReset()
	if err != nil {
		return fmt.Errorf("failed to read factory reset flag: %w", err)
	}
	if reset {
		if err := store.ResetToDefaults(FactoryRecords(), FactorySettings()); err != nil {
			return fmt.Errorf("failed to restore factory defaults: %w", err)
		}
	}

	value, err := store.Setting(storage.SettingBatteryCalibration)
	if err != nil {
		return fmt.Errorf("failed to read battery calibration: %w", err)
	}
	if value == "" {
		value = strconv.Itoa(configured)
		if err := store.SetSetting(storage.SettingBatteryCalibration, value); err != nil {
			return fmt.Errorf("failed to store battery calibration: %w", err)
		}
	}

	cal, err := strconv.Atoi(value)
	if err != nil || cal < CalibrationMin || cal > CalibrationMax {
		logging.Error("engine", "battery calibration corrupt, scheduling factory reset", map[string]interface{}{
			"calibration": value,
		})
		if err := store.MarkFactoryReset(); err != nil {
			return fmt.Errorf("failed to schedule factory reset: %w", err)
		}
		return ErrFactoryReset
	}
	return nil
}
