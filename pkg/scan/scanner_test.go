package scan

import (
	"testing"

	"github.com/dougsko/rxcore/pkg/radio"
	"github.com/dougsko/rxcore/pkg/timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTarget is a VFO over a scripted RF field: noise everywhere except
// at carrier while keyed.
type fakeTarget struct {
	band    *radio.FreqBand
	freq    uint32
	step    uint32
	noise   uint16
	carrier uint32
	level   uint16
	keyed   bool

	open     bool
	retunes  int
	precise  []bool
	mutes    int
	measures int
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		band:  radio.Bands(radio.BackendTransceiver)[0],
		step:  2500,
		noise: 20,
	}
}

func (f *fakeTarget) Retune(freq uint32, precise bool) bool {
	f.freq = freq
	f.retunes++
	f.precise = append(f.precise, precise)
	return true
}

func (f *fakeTarget) rssi() uint16 {
	if f.keyed && f.freq == f.carrier {
		return f.level
	}
	return f.noise
}

func (f *fakeTarget) Measure() radio.Measurement {
	f.measures++
	return radio.Measurement{Frequency: f.freq, RSSI: f.rssi()}
}

func (f *fakeTarget) SquelchOpen() bool {
	f.open = f.keyed && f.freq == f.carrier
	return f.open
}

func (f *fakeTarget) IsOpen() bool { return f.open }

func (f *fakeTarget) Mute() {
	f.open = false
	f.mutes++
}

func (f *fakeTarget) Frequency() uint32      { return f.freq }
func (f *fakeTarget) StepSize() uint32       { return f.step }
func (f *fakeTarget) Band() *radio.FreqBand  { return f.band }
func (f *fakeTarget) SetStep(idx uint8) bool { f.step = radio.StepSize(idx); return true }

type recordingCatalog struct {
	updates  []radio.Measurement
	replaced []uint32
}

func (c *recordingCatalog) Update(m radio.Measurement) { c.updates = append(c.updates, m) }
func (c *recordingCatalog) Replace(freq uint32)        { c.replaced = append(c.replaced, freq) }

func newTestScanner(t *testing.T, cfg Config) (*Scanner, *fakeTarget, *timing.ManualClock, *recordingCatalog) {
	t.Helper()
	target := newFakeTarget()
	clock := timing.NewManualClock(1000)
	catalog := &recordingCatalog{}
	s := New(target, clock, catalog, cfg)
	s.SetRange(14550000, 14600000)
	require.NoError(t, s.Init(false))
	return s, target, clock, catalog
}

func TestThreshold(t *testing.T) {
	t.Run("First Sample Initializes", func(t *testing.T) {
		th := NewThreshold(25)
		assert.True(t, th.Observe(40))
		assert.Equal(t, uint16(39), th.Level())
	})

	t.Run("Large Drop Snaps Down", func(t *testing.T) {
		th := NewThreshold(25)
		th.Observe(40)
		assert.True(t, th.Observe(10))
		assert.Equal(t, uint16(9), th.Level())
	})

	t.Run("Small Jitter Is Tolerated", func(t *testing.T) {
		th := NewThreshold(25)
		th.Set(39)
		assert.False(t, th.Observe(35))
		assert.Equal(t, uint16(39), th.Level())
	})

	t.Run("Zero Sample Keeps Uninitialized", func(t *testing.T) {
		th := NewThreshold(25)
		assert.True(t, th.Observe(0))
		assert.Equal(t, uint16(0), th.Level())
	})

	t.Run("Saturation", func(t *testing.T) {
		th := NewThreshold(25)
		th.Decay()
		assert.Equal(t, uint16(0), th.Level())
		th.Set(^uint16(0))
		th.Bump()
		assert.Equal(t, ^uint16(0), th.Level())
	})
}

func TestNextWrapsToBandStart(t *testing.T) {
	s, target, clock, catalog := newTestScanner(t, DefaultConfig())
	assert.Equal(t, uint32(14550000), s.Loot().Frequency)

	for i := 1; i <= 20; i++ {
		s.Next(true)
		assert.Equal(t, 14550000+uint32(i)*2500, s.Loot().Frequency)
	}
	s.Next(true)
	assert.Equal(t, uint32(14550000), s.Loot().Frequency)

	assert.Equal(t, 21, target.mutes)
	assert.Len(t, catalog.replaced, 21)
	assert.Equal(t, uint32(21), s.Cycles())

	clock.Advance(1000)
	assert.Equal(t, uint32(21), s.Cps())
	assert.Equal(t, uint32(0), s.Cycles())
}

func TestNextDownWrapsToBandEnd(t *testing.T) {
	s, _, _, _ := newTestScanner(t, DefaultConfig())
	s.Next(false)
	assert.Equal(t, uint32(14600000), s.Loot().Frequency)
	s.Next(false)
	assert.Equal(t, uint32(14597500), s.Loot().Frequency)
}

func TestCpsWithNoElapsedTime(t *testing.T) {
	s, _, _, _ := newTestScanner(t, DefaultConfig())
	s.Next(true)
	s.Next(true)
	assert.Equal(t, uint32(2000), s.Cps())
}

func TestClosedFrequenciesAdvanceEveryTick(t *testing.T) {
	s, target, clock, catalog := newTestScanner(t, DefaultConfig())
	// Prime the threshold above the noise so samples read closed.
	s.threshold.Set(22)

	for i := 0; i < 5; i++ {
		s.Check(false)
	}
	assert.Equal(t, uint32(14550000+5*2500), s.Loot().Frequency)
	assert.Equal(t, 5, target.measures)
	assert.Len(t, catalog.updates, 5)
	for _, p := range target.precise {
		assert.True(t, p, "normal mode tunes precisely")
	}
	// Each measurement dwells 1200us.
	assert.Equal(t, uint32(1000+5*1200/1000), clock.Now())
}

func TestGarbageFrequencyNeverOpens(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipGarbage = true
	target := newFakeTarget()
	target.carrier = 14300000 // 11 * 1300000
	target.level = 200
	target.keyed = true
	clock := timing.NewManualClock(0)
	s := New(target, clock, nil, cfg)
	s.SetRange(14300000, 14300000)
	require.NoError(t, s.Init(false))

	s.Check(false)
	assert.False(t, s.Loot().Open)
	assert.Equal(t, uint32(0), clock.DelayedMs(), "no confirmation delay for a forced-closed sample")
}

func TestThinkingFalseAlarmBumpsThreshold(t *testing.T) {
	s, target, clock, _ := newTestScanner(t, DefaultConfig())
	target.carrier = 14550000
	target.level = 100
	// Strong reading but the receiver's own squelch never opens.
	target.keyed = false
	target.noise = 100

	before := clock.DelayedMs()
	s.Check(false)
	assert.False(t, s.Loot().Open)
	assert.Equal(t, uint16(100), s.Threshold())
	assert.Equal(t, DefaultThinkingDelayMs, clock.DelayedMs()-before)
	assert.True(t, s.falseAlarm)
}

// tuneToCarrier ticks until the scanner holds the carrier.
func tuneToCarrier(t *testing.T, s *Scanner, target *fakeTarget) {
	t.Helper()
	for i := 0; i < 100; i++ {
		s.Check(false)
		if s.Loot().Open {
			require.Equal(t, target.carrier, s.Loot().Frequency)
			return
		}
	}
	t.Fatal("scanner never stopped on the carrier")
}

func TestHoldsOpenSignal(t *testing.T) {
	s, target, clock, catalog := newTestScanner(t, DefaultConfig())
	target.carrier = 14550000 + 4*2500
	target.level = 120
	target.keyed = true

	tuneToCarrier(t, s, target)
	measures := target.measures

	for i := 0; i < 50; i++ {
		clock.Advance(100)
		s.Check(false)
	}
	assert.True(t, s.Loot().Open)
	assert.Equal(t, target.carrier, s.Loot().Frequency)
	assert.Equal(t, measures, target.measures, "an open signal is not re-measured")
	assert.Equal(t, uint32(5000), s.Loot().OpenDuration)

	last := catalog.updates[len(catalog.updates)-1]
	assert.True(t, last.Open)
	assert.Equal(t, target.carrier, last.Frequency)
}

func TestSignalLostSnapsThresholdAndStays(t *testing.T) {
	s, target, clock, _ := newTestScanner(t, DefaultConfig())
	target.carrier = 14550000 + 4*2500
	target.level = 120
	target.keyed = true
	tuneToCarrier(t, s, target)

	target.keyed = false
	s.Check(false)
	assert.False(t, s.Loot().Open)
	assert.Equal(t, s.NoiseFloor(), s.Threshold())
	assert.Equal(t, target.carrier, s.Loot().Frequency)

	clock.Advance(DefaultStayTimeoutMs - 100)
	s.Check(false)
	assert.Equal(t, target.carrier, s.Loot().Frequency, "stays while the stay-at timeout runs")

	clock.Advance(200)
	s.Check(false)
	assert.Equal(t, target.carrier+2500, s.Loot().Frequency)
}

func TestListenTimeoutMovesOn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenTimeout = 500
	s, target, clock, _ := newTestScanner(t, cfg)
	target.carrier = 14550000 + 2*2500
	target.level = 120
	target.keyed = true
	tuneToCarrier(t, s, target)

	clock.Advance(400)
	s.Check(false)
	assert.Equal(t, target.carrier, s.Loot().Frequency)

	clock.Advance(200)
	s.Check(false)
	assert.Equal(t, target.carrier+2500, s.Loot().Frequency)
}

func TestThresholdDecay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecayInterval = 4

	t.Run("Decays Every Interval", func(t *testing.T) {
		s, target, _, _ := newTestScanner(t, cfg)
		target.noise = 50
		s.threshold.Set(60)
		for i := 0; i < 8; i++ {
			s.Check(false)
		}
		assert.Equal(t, uint16(58), s.Threshold())
	})

	t.Run("False Alarm Skips One Decay", func(t *testing.T) {
		s, target, _, _ := newTestScanner(t, cfg)
		target.noise = 50
		s.threshold.Set(60)
		s.falseAlarm = true
		for i := 0; i < 4; i++ {
			s.Check(false)
		}
		assert.Equal(t, uint16(60), s.Threshold())
		assert.False(t, s.falseAlarm)
		for i := 0; i < 4; i++ {
			s.Check(false)
		}
		assert.Equal(t, uint16(59), s.Threshold())
	})
}

func TestAnalyserMode(t *testing.T) {
	s, target, _, _ := newTestScanner(t, DefaultConfig())
	target.carrier = 14550000
	target.level = 150
	target.keyed = true
	target.precise = nil

	for i := 0; i < 21; i++ {
		s.Check(true)
	}
	assert.Equal(t, uint32(14550000), s.Loot().Frequency, "full sweep wraps")
	assert.Equal(t, 21, target.measures)
	for _, p := range target.precise {
		assert.False(t, p)
	}
	assert.NotEmpty(t, s.Spectrum())
	assert.Equal(t, uint16(0), s.Threshold(), "analyser mode leaves the threshold alone")
}

func TestMultiband(t *testing.T) {
	bands := []Band{
		{Name: "2m", Start: 14400000, End: 14400500, Step: 1, Scanlists: 1},
		{Name: "air", Start: 11800000, End: 11800000, Step: KeepStep, Scanlists: 2},
		{Name: "70cm", Start: 43000000, End: 43000010, Step: 1, Scanlists: 1},
	}

	t.Run("Requires Bands", func(t *testing.T) {
		s := New(newFakeTarget(), timing.NewManualClock(0), nil, DefaultConfig())
		assert.ErrorIs(t, s.Init(true), ErrNoBands)
	})

	t.Run("Rotates Through Scanlist", func(t *testing.T) {
		target := newFakeTarget()
		s := New(target, timing.NewManualClock(0), nil, DefaultConfig())
		list, err := NewBandList(bands, 1)
		require.NoError(t, err)
		s.SetBands(list)
		require.NoError(t, s.Init(true))

		assert.Equal(t, "2m", s.Band().Name)
		assert.Equal(t, uint32(5), target.step)
		for i := 0; i < 100; i++ {
			s.Next(true)
		}
		assert.Equal(t, uint32(14400500), s.Loot().Frequency)
		s.Next(true)
		assert.Equal(t, "70cm", s.Band().Name)
		assert.Equal(t, uint32(43000000), s.Loot().Frequency)
		s.Next(true)
		s.Next(true)
		s.Next(true)
		assert.Equal(t, "2m", s.Band().Name, "air is not in scanlist 1")
	})
}

func TestSetRangeClampsToVFOBand(t *testing.T) {
	target := newFakeTarget()
	s := New(target, timing.NewManualClock(0), nil, DefaultConfig())
	s.SetRange(100, 14600000)
	assert.Equal(t, target.band.Min, s.Band().Start)
	assert.Equal(t, uint32(14600000), s.Band().End)
	assert.Equal(t, target.band.Min, target.freq)
}
