// Package scan sweeps a VFO across a frequency range looking for activity,
// calibrating its own detection threshold as it goes.
package scan

import (
	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/radio"
	"github.com/dougsko/rxcore/pkg/timing"
)

// Target is the one VFO a scanner drives. radio.VFOHandle implements it.
type Target interface {
	Retune(freq uint32, precise bool) bool
	Measure() radio.Measurement
	SquelchOpen() bool
	IsOpen() bool
	Mute()
	Frequency() uint32
	StepSize() uint32
	SetStep(idx uint8) bool
	Band() *radio.FreqBand
}

// Catalog receives what the scanner hears.
type Catalog interface {
	// Update records the sample at the current scan pointer.
	Update(m radio.Measurement)
	// Replace announces that the pointer moved to freq.
	Replace(freq uint32)
}

// Sweep tunables.
const (
	DefaultDwellUs         uint32 = 1200
	DefaultStayTimeoutMs   uint32 = 2000
	DefaultGarbageModulus  uint32 = 1300000
	DefaultThinkingDelayMs uint32 = 50
	DefaultDropPercent     uint16 = 25
	DefaultDecayInterval   uint32 = 64
	DefaultChannelCheckMs  uint32 = 55
)

// Config holds the scanner settings. Timeouts are milliseconds, with
// timing.Never for no timeout.
type Config struct {
	DwellUs         uint32
	ListenTimeout   uint32
	StayTimeout     uint32
	SkipGarbage     bool
	GarbageModulus  uint32
	ThinkingDelayMs uint32
	DropPercent     uint16
	DecayInterval   uint32
	ChannelCheckMs  uint32
}

func DefaultConfig() Config {
	return Config{
		DwellUs:         DefaultDwellUs,
		ListenTimeout:   timing.Never,
		StayTimeout:     DefaultStayTimeoutMs,
		GarbageModulus:  DefaultGarbageModulus,
		ThinkingDelayMs: DefaultThinkingDelayMs,
		DropPercent:     DefaultDropPercent,
		DecayInterval:   DefaultDecayInterval,
		ChannelCheckMs:  DefaultChannelCheckMs,
	}
}

// Scanner is a forward sweep over one band of one VFO. It is driven by
// calling Check once per loop tick and is not safe for concurrent use.
type Scanner struct {
	target  Target
	clock   timing.Clock
	catalog Catalog
	cfg     Config

	threshold Threshold
	spectrum  Spectrum

	band      Band
	bands     *BandList
	multiband bool

	loot       radio.Measurement
	openSince  uint32
	lastListen bool
	listenAt   timing.Deadline
	stayAt     timing.Deadline

	thinking    bool
	falseAlarm  bool
	closedTicks uint32

	cycles  uint32
	lastCps uint32
}

// New binds a scanner to target. The sweep range defaults to the target's
// whole band. catalog may be nil.
func New(target Target, clock timing.Clock, catalog Catalog, cfg Config) *Scanner {
	s := &Scanner{
		target:    target,
		clock:     clock,
		catalog:   catalog,
		cfg:       cfg,
		threshold: NewThreshold(cfg.DropPercent),
	}
	if fb := target.Band(); fb != nil {
		s.band = WholeBand(fb)
	}
	return s
}

// SetConfig swaps the tunables, keeping the sweep state.
func (s *Scanner) SetConfig(cfg Config) {
	s.cfg = cfg
	s.threshold.dropPercent = cfg.DropPercent
}

// SetBands installs the bands multiband mode rotates through.
func (s *Scanner) SetBands(l *BandList) { s.bands = l }

// Init starts a sweep at the start of the current band. With multiband
// set the sweep begins at the band list's current band and rotates
// through the list at each band end.
func (s *Scanner) Init(multiband bool) error {
	if multiband {
		if s.bands == nil || s.bands.Len() == 0 {
			return ErrNoBands
		}
		s.band = s.bands.Current()
	}
	s.multiband = multiband
	s.cycles = 0
	s.lastCps = s.clock.Now()
	s.lastListen = false
	s.closedTicks = 0
	s.falseAlarm = false
	s.applyBand()

	logging.Info("scan", "sweep started", map[string]interface{}{
		"band":      s.band.Name,
		"start":     s.band.Start,
		"end":       s.band.End,
		"multiband": multiband,
	})
	return nil
}

// SetBand replaces the sweep range and restarts at its start.
func (s *Scanner) SetBand(b Band) {
	s.band = b
	s.applyBand()
}

// SetRange narrows the sweep to [start, end], keeping the step.
func (s *Scanner) SetRange(start, end uint32) {
	if start > end {
		start, end = end, start
	}
	s.band.Start = start
	s.band.End = end
	s.band.Step = KeepStep
	s.applyBand()
}

func (s *Scanner) Band() Band { return s.band }

// clamp keeps the sweep inside what the target can tune.
func (s *Scanner) clamp() {
	fb := s.target.Band()
	if fb == nil {
		return
	}
	start, end := s.band.Start, s.band.End
	if start < fb.Min {
		start = fb.Min
	}
	if end > fb.Max || end == 0 {
		end = fb.Max
	}
	if start > end {
		logging.Warn("scan", "sweep range outside VFO band, using whole band", map[string]interface{}{
			"band":  s.band.Name,
			"start": s.band.Start,
			"end":   s.band.End,
		})
		start, end = fb.Min, fb.Max
	}
	s.band.Start, s.band.End = start, end
}

func (s *Scanner) applyBand() {
	s.clamp()
	if s.band.Step != KeepStep {
		s.target.SetStep(s.band.Step)
	}
	s.loot = radio.Measurement{Frequency: s.band.Start}
	s.target.Retune(s.band.Start, true)
	s.spectrum.Reset(s.band.Start, s.band.End)
}

// Next moves the scan pointer one step, wrapping at the band edge. In
// multiband mode running off the top of a band moves to the next band.
// Both timeouts are reset so the new frequency is measured at once.
func (s *Scanner) Next(up bool) {
	step := s.target.StepSize()
	f := s.loot.Frequency
	s.target.Mute()

	if up {
		f += step
		if f > s.band.End || f < s.loot.Frequency {
			if s.multiband && s.bands != nil {
				s.band = s.bands.Next()
				s.applyBand()
			}
			f = s.band.Start
		}
	} else {
		if f < s.band.Start+step {
			if s.multiband && s.bands != nil {
				s.band = s.bands.Prev()
				s.applyBand()
			}
			f = s.band.End
		} else {
			f -= step
		}
	}

	s.loot = radio.Measurement{Frequency: f}
	if s.catalog != nil {
		s.catalog.Replace(f)
	}
	timing.SetTimeout(s.clock, &s.listenAt, 0)
	timing.SetTimeout(s.clock, &s.stayAt, 0)
	s.cycles++
}

// measure tunes to the scan pointer, waits out the dwell and samples.
func (s *Scanner) measure(precise bool) radio.Measurement {
	s.target.Retune(s.loot.Frequency, precise)
	s.clock.DelayUs(s.cfg.DwellUs)
	m := s.target.Measure()
	m.Frequency = s.loot.Frequency
	return m
}

func (s *Scanner) garbage(f uint32) bool {
	return s.cfg.SkipGarbage && s.cfg.GarbageModulus != 0 && f%s.cfg.GarbageModulus == 0
}

// Check runs one scan tick. Analyser mode measures every step and never
// stops on a signal.
func (s *Scanner) Check(analyser bool) {
	if analyser {
		m := s.measure(false)
		s.loot = m
		s.spectrum.Add(m.Frequency, m.RSSI)
		s.Next(true)
		return
	}

	wasOpen := s.loot.Open
	if wasOpen {
		// The receiver is trusted while a signal is held.
		s.loot.Open = s.target.SquelchOpen()
	} else {
		m := s.measure(true)
		m.Open = s.threshold.Observe(m.RSSI) && !s.garbage(m.Frequency)
		s.loot = m
		s.spectrum.Add(m.Frequency, m.RSSI)
	}

	if s.loot.Open && !s.target.IsOpen() {
		s.think()
	}

	now := s.clock.Now()
	if s.loot.Open {
		if !wasOpen {
			s.openSince = now
		}
		s.loot.OpenDuration = now - s.openSince
	}
	s.loot.Timestamp = now
	if s.catalog != nil {
		s.catalog.Update(s.loot)
	}

	if !s.loot.Open && (wasOpen || s.target.IsOpen()) {
		s.threshold.SnapTo(s.spectrum.NoiseFloor())
	}

	if s.loot.Open {
		s.closedTicks = 0
	} else {
		s.closedTicks++
		if s.closedTicks >= s.cfg.DecayInterval {
			s.closedTicks = 0
			if !s.falseAlarm {
				s.threshold.Decay()
			}
			s.falseAlarm = false
		}
	}

	s.nextWithTimeout()
}

// think gives the receiver's squelch one settling delay to confirm a
// sample the threshold called open.
func (s *Scanner) think() {
	s.thinking = true
	s.clock.DelayMs(s.cfg.ThinkingDelayMs)
	s.loot.Open = s.target.SquelchOpen()
	s.thinking = false
	if !s.loot.Open {
		s.threshold.Bump()
		s.falseAlarm = true
	}
}

func (s *Scanner) nextWithTimeout() {
	open := s.target.IsOpen()
	if s.lastListen != open {
		s.lastListen = open
		if open {
			timing.SetTimeout(s.clock, &s.listenAt, s.cfg.ListenTimeout)
			timing.SetTimeout(s.clock, &s.stayAt, timing.Never)
		} else {
			timing.SetTimeout(s.clock, &s.stayAt, s.cfg.StayTimeout)
		}
	}

	if (open && timing.CheckTimeout(s.clock, &s.listenAt)) || timing.CheckTimeout(s.clock, &s.stayAt) {
		s.Next(true)
	}
}

// Cps returns the steps per second since the previous call and restarts
// the count.
func (s *Scanner) Cps() uint32 {
	now := s.clock.Now()
	elapsed := now - s.lastCps
	if elapsed == 0 {
		elapsed = 1
	}
	cps := uint32(uint64(s.cycles) * 1000 / uint64(elapsed))
	s.cycles = 0
	s.lastCps = now
	return cps
}

// Cycles is the number of steps since the last Cps call.
func (s *Scanner) Cycles() uint32 { return s.cycles }

func (s *Scanner) Threshold() uint16 { return s.threshold.Level() }

func (s *Scanner) Thinking() bool { return s.thinking }

// Loot is the sample at the scan pointer.
func (s *Scanner) Loot() radio.Measurement { return s.loot }

func (s *Scanner) Spectrum() []Point { return s.spectrum.Points() }

func (s *Scanner) NoiseFloor() uint16 { return s.spectrum.NoiseFloor() }
