package telemetry

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"

	"github.com/dougsko/rxcore/pkg/config"
	"github.com/dougsko/rxcore/pkg/radio"
)

// Sample is the once-a-second telemetry reading.
type Sample struct {
	App        string
	ActiveVFO  int
	Frequency  uint32
	RSSI       uint16
	Open       bool
	Cps        uint32
	Threshold  uint16
	NoiseFloor uint16
	TxStatus   radio.TxStatus
	Time       time.Time
}

// Metrics writes samples to InfluxDB. A nil *Metrics discards them.
type Metrics struct {
	writeAPI api.WriteAPI
	station  string
	last     Sample
}

// NewMetrics returns nil when no InfluxDB host is configured.
func NewMetrics(cfg *config.Config) *Metrics {
	if cfg.InfluxDB.Host == "" {
		return nil
	}
	client := influxdb2.NewClient(cfg.InfluxDB.Host, cfg.InfluxDB.Token)
	return NewMetricsWithAPI(client.WriteAPI(cfg.InfluxDB.Organization, cfg.InfluxDB.Bucket), cfg.Station.Callsign)
}

func NewMetricsWithAPI(writeAPI api.WriteAPI, station string) *Metrics {
	return &Metrics{writeAPI: writeAPI, station: station}
}

// Record writes one sample. Scan fields are only written while scanning.
func (m *Metrics) Record(s Sample) {
	if m == nil {
		return
	}
	m.last = s
	tags := map[string]string{
		"station": m.station,
		"app":     s.App,
	}

	m.writeAPI.WritePoint(influxdb2.NewPoint("radio.vfo", tags,
		map[string]interface{}{
			"vfo":       s.ActiveVFO,
			"frequency": int64(s.Frequency) * 10,
			"rssi_dbm":  radio.RSSIToDBm(s.RSSI),
			"open":      s.Open,
			"tx_status": s.TxStatus.String(),
		}, s.Time))

	if s.App == "scan" {
		m.writeAPI.WritePoint(influxdb2.NewPoint("radio.scan", tags,
			map[string]interface{}{
				"cps":             int64(s.Cps),
				"threshold":       int64(s.Threshold),
				"noise_floor_dbm": radio.RSSIToDBm(s.NoiseFloor),
			}, s.Time))
	}
}

// Last is the most recent recorded sample.
func (m *Metrics) Last() Sample {
	if m == nil {
		return Sample{}
	}
	return m.last
}

// Close flushes pending writes.
func (m *Metrics) Close() {
	if m == nil {
		return
	}
	m.writeAPI.Flush()
}
