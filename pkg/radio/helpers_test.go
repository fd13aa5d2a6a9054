package radio_test

import (
	"sort"
	"sync"

	"github.com/dougsko/rxcore/pkg/hardware"
	"github.com/dougsko/rxcore/pkg/radio"
	"github.com/dougsko/rxcore/pkg/timing"
)

// memStorage is an in-memory radio.Storage.
type memStorage struct {
	mu       sync.Mutex
	records  map[int]radio.Record
	settings map[string]string
	saves    int
	failSave error
}

func newMemStorage(recs ...radio.Record) *memStorage {
	s := &memStorage{records: make(map[int]radio.Record), settings: make(map[string]string)}
	for _, r := range recs {
		s.records[r.Index] = r
	}
	return s
}

func (s *memStorage) Records() ([]radio.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]radio.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (s *memStorage) Load(index int) (radio.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[index]
	if !ok {
		return radio.Record{}, radio.ErrRecordNotFound
	}
	return r, nil
}

func (s *memStorage) Save(rec radio.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	s.records[rec.Index] = rec
	s.saves++
	return nil
}

func (s *memStorage) Setting(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key], nil
}

func (s *memStorage) SetSetting(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *memStorage) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func vfoRecord(index int, kind radio.BackendKind, freq uint32) radio.Record {
	rec := radio.DefaultVFORecord(index, kind)
	rec.Frequency = freq
	return rec
}

func channelRecord(index int, name string, freq uint32) radio.Record {
	rec := radio.DefaultVFORecord(index, radio.BackendTransceiver)
	rec.Type = radio.RecordChannel
	rec.Name = name
	rec.Frequency = freq
	return rec
}

// rig is an engine on mock hardware: a full-featured transceiver plus
// receive-only broadcast chips.
type rig struct {
	engine  *radio.Engine
	clock   *timing.ManualClock
	storage *memStorage
	battery *hardware.StaticBattery
	xcvr    *hardware.MockBackend
	fm      hardware.MockReceiver
	dsp     hardware.MockReceiver
}

func newRig(settings radio.Settings, recs ...radio.Record) *rig {
	r := &rig{
		clock:   timing.NewManualClock(1000),
		storage: newMemStorage(recs...),
		battery: hardware.NewStaticBattery(80, 790, false),
		xcvr:    hardware.NewMockBackend(radio.BackendTransceiver),
		fm:      hardware.NewMockReceiver(radio.BackendFMBroadcast),
		dsp:     hardware.NewMockReceiver(radio.BackendDSPReceiver),
	}
	r.engine = radio.NewEngine(radio.Options{
		Backends: radio.Backends{
			radio.BackendTransceiver: r.xcvr,
			radio.BackendFMBroadcast: r.fm.Backend(),
			radio.BackendDSPReceiver: r.dsp.Backend(),
		},
		Storage:  r.storage,
		Battery:  r.battery,
		Clock:    r.clock,
		Settings: settings,
	})
	return r
}

func (r *rig) resetCalls() {
	r.xcvr.Reset()
	r.fm.Reset()
	r.dsp.Reset()
}
