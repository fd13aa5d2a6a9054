package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/radio"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Load for an empty index.
var ErrNotFound = radio.ErrRecordNotFound

// Setting keys kept alongside the records.
const (
	SettingFactoryReset       = "needs_factory_defaults"
	SettingBatteryCalibration = "battery_calibration"
)

// RecordStore persists VFO, channel and band records plus a small
// settings table in SQLite. It implements radio.Storage.
type RecordStore struct {
	db     *sql.DB
	dbPath string
}

// NewRecordStore opens or creates the database at dbPath
func NewRecordStore(dbPath string) (*RecordStore, error) {
	store := &RecordStore{
		dbPath: dbPath,
	}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}

	return store, nil
}

// initialize sets up the database connection and creates tables
func (rs *RecordStore) initialize() error {
	if rs.dbPath == "" {
		rs.dbPath = "./rxcore.db"
	}

	if err := os.MkdirAll(filepath.Dir(rs.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	connectionString := rs.dbPath + "?_busy_timeout=10000&_journal_mode=WAL"

	db, err := sql.Open("sqlite3", connectionString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	rs.db = db

	if err := rs.createTables(); err != nil {
		db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if err := rs.createIndexes(); err != nil {
		db.Close()
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logging.Info("storage", "record store initialized", map[string]interface{}{"path": rs.dbPath})
	return nil
}

// createTables creates the database schema
func (rs *RecordStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		idx INTEGER PRIMARY KEY,
		type INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		channel_mode BOOLEAN NOT NULL DEFAULT FALSE,
		channel INTEGER NOT NULL DEFAULT 0,
		backend INTEGER NOT NULL DEFAULT 0,
		frequency INTEGER NOT NULL DEFAULT 0,
		end_frequency INTEGER NOT NULL DEFAULT 0,
		tx_offset INTEGER NOT NULL DEFAULT 0,
		step INTEGER NOT NULL DEFAULT 0,
		bandwidth INTEGER NOT NULL DEFAULT 0,
		modulation INTEGER NOT NULL DEFAULT 0,
		gain INTEGER NOT NULL DEFAULT 0,
		squelch_type INTEGER NOT NULL DEFAULT 0,
		squelch_value INTEGER NOT NULL DEFAULT 0,
		power INTEGER NOT NULL DEFAULT 0,
		rx_code INTEGER NOT NULL DEFAULT 0,
		tx_code INTEGER NOT NULL DEFAULT 0,
		scanlists INTEGER NOT NULL DEFAULT 0,
		band TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := rs.db.Exec(schema); err != nil {
		return err
	}
	return rs.addColumn("records", "band", "TEXT NOT NULL DEFAULT ''")
}

// addColumn adds a column that databases created by older builds lack.
func (rs *RecordStore) addColumn(table, column, decl string) error {
	rows, err := rs.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return fmt.Errorf("failed to read %s schema: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("failed to read %s schema: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if _, err := rs.db.Exec("ALTER TABLE " + table + " ADD COLUMN " + column + " " + decl); err != nil {
		return fmt.Errorf("failed to add %s.%s: %w", table, column, err)
	}
	return nil
}

// createIndexes creates database indexes for performance
func (rs *RecordStore) createIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_records_type ON records(type)",
		"CREATE INDEX IF NOT EXISTS idx_records_scanlists ON records(scanlists)",
	}

	for _, indexSQL := range indexes {
		if _, err := rs.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

const recordColumns = `idx, type, name, channel_mode, channel, backend, frequency,
	end_frequency, tx_offset, step, bandwidth, modulation, gain,
	squelch_type, squelch_value, power, rx_code, tx_code, scanlists, band`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (radio.Record, error) {
	var rec radio.Record
	var rxCode, txCode uint32
	err := row.Scan(
		&rec.Index, &rec.Type, &rec.Name, &rec.ChannelMode, &rec.Channel,
		&rec.Backend, &rec.Frequency, &rec.EndFrequency, &rec.TxOffset,
		&rec.Step, &rec.Bandwidth, &rec.Modulation, &rec.Gain,
		&rec.Squelch.Type, &rec.Squelch.Value, &rec.Power,
		&rxCode, &txCode, &rec.Scanlists, &rec.Band,
	)
	if err != nil {
		return radio.Record{}, err
	}
	rec.RxCode = radio.UnpackCode(rxCode)
	rec.TxCode = radio.UnpackCode(txCode)
	return rec, nil
}

// Records returns every record in index order
func (rs *RecordStore) Records() ([]radio.Record, error) {
	return rs.QueryRecords(RecordQuery{})
}

// Load returns the record at index
func (rs *RecordStore) Load(index int) (radio.Record, error) {
	row := rs.db.QueryRow("SELECT "+recordColumns+" FROM records WHERE idx = ?", index)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return radio.Record{}, ErrNotFound
	}
	if err != nil {
		return radio.Record{}, fmt.Errorf("failed to load record %d: %w", index, err)
	}
	return rec, nil
}

// Save inserts or replaces the record at rec.Index
func (rs *RecordStore) Save(rec radio.Record) error {
	query := `
		INSERT INTO records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(idx) DO UPDATE SET
			type = excluded.type,
			name = excluded.name,
			channel_mode = excluded.channel_mode,
			channel = excluded.channel,
			backend = excluded.backend,
			frequency = excluded.frequency,
			end_frequency = excluded.end_frequency,
			tx_offset = excluded.tx_offset,
			step = excluded.step,
			bandwidth = excluded.bandwidth,
			modulation = excluded.modulation,
			gain = excluded.gain,
			squelch_type = excluded.squelch_type,
			squelch_value = excluded.squelch_value,
			power = excluded.power,
			rx_code = excluded.rx_code,
			tx_code = excluded.tx_code,
			scanlists = excluded.scanlists,
			band = excluded.band,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := rs.db.Exec(query,
		rec.Index, rec.Type, rec.Name, rec.ChannelMode, rec.Channel,
		rec.Backend, rec.Frequency, rec.EndFrequency, rec.TxOffset,
		rec.Step, rec.Bandwidth, rec.Modulation, rec.Gain,
		rec.Squelch.Type, rec.Squelch.Value, rec.Power,
		rec.RxCode.Pack(), rec.TxCode.Pack(), rec.Scanlists, rec.Band,
	)
	if err != nil {
		return fmt.Errorf("failed to save record %d: %w", rec.Index, err)
	}
	return nil
}

// Delete removes the record at index
func (rs *RecordStore) Delete(index int) error {
	result, err := rs.db.Exec("DELETE FROM records WHERE idx = ?", index)
	if err != nil {
		return fmt.Errorf("failed to delete record %d: %w", index, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Setting returns the value stored under key, or "" if unset
func (rs *RecordStore) Setting(key string) (string, error) {
	var value string
	err := rs.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores value under key
func (rs *RecordStore) SetSetting(key, value string) error {
	_, err := rs.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// MarkFactoryReset raises the sentinel that makes the next boot restore
// factory defaults.
func (rs *RecordStore) MarkFactoryReset() error {
	return rs.SetSetting(SettingFactoryReset, "1")
}

// NeedsFactoryReset reports whether the sentinel is raised.
func (rs *RecordStore) NeedsFactoryReset() (bool, error) {
	v, err := rs.Setting(SettingFactoryReset)
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

// ResetToDefaults replaces every record and setting with the given
// defaults in one transaction, clearing the sentinel.
func (rs *RecordStore) ResetToDefaults(records []radio.Record, settings map[string]string) error {
	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM records"); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM settings"); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}

	insert := "INSERT INTO records (" + recordColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	for _, rec := range records {
		_, err := tx.Exec(insert,
			rec.Index, rec.Type, rec.Name, rec.ChannelMode, rec.Channel,
			rec.Backend, rec.Frequency, rec.EndFrequency, rec.TxOffset,
			rec.Step, rec.Bandwidth, rec.Modulation, rec.Gain,
			rec.Squelch.Type, rec.Squelch.Value, rec.Power,
			rec.RxCode.Pack(), rec.TxCode.Pack(), rec.Scanlists, rec.Band,
		)
		if err != nil {
			return fmt.Errorf("failed to write default record %d: %w", rec.Index, err)
		}
	}
	for key, value := range settings {
		if _, err := tx.Exec("INSERT INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("failed to write default setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logging.Warn("storage", "factory defaults restored", map[string]interface{}{
		"records":  len(records),
		"settings": len(settings),
	})
	return nil
}

// Close closes the database connection
func (rs *RecordStore) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}
