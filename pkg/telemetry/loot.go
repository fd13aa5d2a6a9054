package telemetry

import (
	"sync"
	"time"

	"github.com/dougsko/rxcore/pkg/radio"
)

// Loot is a discovered signal as it leaves the core.
type Loot struct {
	Frequency    uint32    `json:"frequency"` // 10 Hz units
	FrequencyMHz string    `json:"frequency_mhz"`
	RSSI         uint16    `json:"rssi"`
	DBm          float64   `json:"dbm"`
	SNR          uint8     `json:"snr"`
	Code         string    `json:"code,omitempty"`
	OpenMs       uint32    `json:"open_ms"`
	Hits         int       `json:"hits"`
	LastSeen     time.Time `json:"last_seen"`
}

func lootFrom(m radio.Measurement, now time.Time) Loot {
	l := Loot{
		Frequency:    m.Frequency,
		FrequencyMHz: radio.FormatFrequency(m.Frequency),
		RSSI:         m.RSSI,
		DBm:          radio.RSSIToDBm(m.RSSI),
		SNR:          m.SNR,
		OpenMs:       m.OpenDuration,
		LastSeen:     now,
	}
	if m.Code.Type != radio.CodeNone {
		l.Code = m.Code.String()
	}
	return l
}

// Recent keeps the most recently heard signals, one entry per frequency,
// newest first, bounded in size.
type Recent struct {
	mu    sync.Mutex
	max   int
	items []Loot
	now   func() time.Time
}

func NewRecent(max int) *Recent {
	if max <= 0 {
		max = 32
	}
	return &Recent{max: max, now: time.Now}
}

// Update records open samples. Closed samples are ignored.
func (r *Recent) Update(m radio.Measurement) {
	if !m.Open {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	l := lootFrom(m, r.now())
	for i, it := range r.items {
		if it.Frequency == m.Frequency {
			l.Hits = it.Hits + 1
			copy(r.items[1:i+1], r.items[:i])
			r.items[0] = l
			return
		}
	}
	l.Hits = 1
	r.items = append([]Loot{l}, r.items...)
	if len(r.items) > r.max {
		r.items = r.items[:r.max]
	}
}

func (r *Recent) Replace(freq uint32) {}

// Items returns a copy, newest first.
func (r *Recent) Items() []Loot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Loot, len(r.items))
	copy(out, r.items)
	return out
}

// Last is the most recently heard signal.
func (r *Recent) Last() (Loot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Loot{}, false
	}
	return r.items[0], true
}

// Catalog is the sink a scanner reports measurements to.
type Catalog interface {
	Update(m radio.Measurement)
	Replace(freq uint32)
}

// Fanout forwards every call to each catalog in turn.
type Fanout []Catalog

func (f Fanout) Update(m radio.Measurement) {
	for _, c := range f {
		c.Update(m)
	}
}

func (f Fanout) Replace(freq uint32) {
	for _, c := range f {
		c.Replace(freq)
	}
}
