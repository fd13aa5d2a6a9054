package radio

import (
	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/timing"
)

// Store is the parameter store: validated, band-aware access to a VFO's
// configuration, and the only path by which values reach a backend.
type Store struct {
	backends Backends
	clock    timing.Clock
	settings *Settings
}

// NewStore binds the store to its drivers. settings is read on every call
// so the owner can swap the snapshot between ticks.
func NewStore(backends Backends, clock timing.Clock, settings *Settings) *Store {
	return &Store{backends: backends, clock: clock, settings: settings}
}

// Backend returns the driver bound to ctx, or nil.
func (s *Store) Backend(ctx *VFOContext) Backend {
	return s.backends[ctx.backend]
}

// IsValid reports whether v is a legal value of p for ctx's current band
// and backend.
func (s *Store) IsValid(ctx *VFOContext, p Param, v uint32) bool {
	band := ctx.band
	if band == nil {
		return false
	}

	switch p {
	case ParamFrequency:
		return band.Contains(v)
	case ParamModulation:
		return v <= 0xFF && band.ModulationIndex(Modulation(v)) >= 0
	case ParamBandwidth:
		if len(band.Bandwidths) == 0 {
			return v == 0 // fixed filter
		}
		return v < uint32(len(band.Bandwidths))
	case ParamGain:
		return v < gainCount(ctx.backend)
	case ParamStep:
		return v < uint32(len(StepFrequencyTable))
	case ParamSquelchValue:
		return v < SquelchValueCount
	case ParamSquelchType:
		return v < SquelchTypeCount
	case ParamPower:
		return v < PowerCount
	case ParamVolume:
		return v < VolumeCount
	case ParamAFC:
		return v < AFCCount
	case ParamDeviation:
		return v < DeviationCount
	case ParamMicGain:
		return v < MicGainCount
	case ParamCrystalTrim:
		return v < CrystalTrimCount
	case ParamBackend:
		return v < uint32(backendCount)
	case ParamRxCode, ParamTxCode:
		return v <= 0xFFFF && UnpackCode(v).Valid()
	case ParamPreciseTune:
		return v <= 1
	case ParamTxOffset:
		return true
	}
	return false
}

// Get returns the stored value of p, or for derived parameters a fresh
// reading from the backend.
func (s *Store) Get(ctx *VFOContext, p Param) uint32 {
	if !p.ReadOnly() {
		return ctx.value(p)
	}
	if p == ParamTxState {
		return uint32(ctx.tx.LastError)
	}

	b := s.Backend(ctx)
	if b == nil {
		return 0
	}
	// Broadcast chips only report signal quality on request
	if ctx.backend.Broadcast() && !s.settings.ShowAllRSSI {
		return 0
	}

	switch p {
	case ParamRSSI:
		return uint32(b.RSSI())
	case ParamSNR:
		return uint32(b.SNR())
	case ParamNoise:
		if nr, ok := b.(NoiseReader); ok {
			return uint32(nr.Noise())
		}
	case ParamGlitch:
		if nr, ok := b.(NoiseReader); ok {
			return uint32(nr.Glitch())
		}
	}
	return 0
}

// Set validates and stores v, queueing it for the next Apply. With persist
// set, a change raises the VFO's needs-persistence flag.
func (s *Store) Set(ctx *VFOContext, p Param, v uint32, persist bool) bool {
	if p >= ParamCount || p.ReadOnly() || !s.IsValid(ctx, p, v) {
		logging.Warn("radio", "rejected parameter value", map[string]interface{}{
			"param":   p.String(),
			"value":   v,
			"backend": ctx.backend.String(),
		})
		return false
	}

	old := ctx.value(p)
	if p == ParamBackend {
		s.switchBackend(ctx, BackendKind(v))
	} else {
		ctx.store(p, v)
		ctx.markPending(p)
	}

	if persist && old != v {
		ctx.needsPersist = true
		ctx.persistAt = s.clock.Now()
	}
	return true
}

// switchBackend rebinds ctx to another chip. Every register of the new
// chip is stale, so everything is queued; values the new band cannot
// hold are reset to the band's defaults.
func (s *Store) switchBackend(ctx *VFOContext, kind BackendKind) {
	ctx.backend = kind
	ctx.band = BandFor(kind, ctx.frequency, ctx.modulation)
	s.reconcile(ctx)
	ctx.markAllPending()
}

// SelectBand moves ctx onto another band of its backend.
func (s *Store) SelectBand(ctx *VFOContext, band *FreqBand) bool {
	for _, b := range Bands(ctx.backend) {
		if b == band {
			ctx.band = band
			s.reconcile(ctx)
			ctx.markAllPending()
			return true
		}
	}
	logging.Warn("radio", "band not offered by backend", map[string]interface{}{
		"backend": ctx.backend.String(),
	})
	return false
}

func (s *Store) reconcile(ctx *VFOContext) {
	band := ctx.band
	if band == nil {
		return
	}
	if !band.Contains(ctx.frequency) {
		logging.Info("radio", "frequency outside band, moved to band start", map[string]interface{}{
			"frequency": ctx.frequency,
			"band":      band.Name,
		})
		ctx.frequency = band.Min
	}
	if band.ModulationIndex(ctx.modulation) < 0 {
		ctx.modulation = band.Modulations[0]
	}
	if !s.IsValid(ctx, ParamBandwidth, uint32(ctx.bandwidth)) {
		ctx.bandwidth = 0
	}
	if ctx.gain >= gainCount(ctx.backend) {
		ctx.gain = AutoGainIndex
	}
}

// bounds returns the inclusive legal range of p under ctx's band.
func (s *Store) bounds(ctx *VFOContext, p Param) (lo, hi uint32, ok bool) {
	count := func(n uint32) (uint32, uint32, bool) {
		if n == 0 {
			return 0, 0, false
		}
		return 0, n - 1, true
	}

	switch p {
	case ParamFrequency:
		return ctx.band.Min, ctx.band.Max, true
	case ParamModulation:
		return count(uint32(len(ctx.band.Modulations)))
	case ParamBandwidth:
		return count(uint32(len(ctx.band.Bandwidths)))
	case ParamStep:
		return count(uint32(len(StepFrequencyTable)))
	case ParamGain:
		return count(gainCount(ctx.backend))
	case ParamSquelchValue:
		return count(SquelchValueCount)
	case ParamSquelchType:
		return count(SquelchTypeCount)
	case ParamPower:
		return count(PowerCount)
	case ParamVolume:
		return count(VolumeCount)
	case ParamAFC:
		return count(AFCCount)
	case ParamDeviation:
		return count(DeviationCount)
	case ParamMicGain:
		return count(MicGainCount)
	case ParamCrystalTrim:
		return count(CrystalTrimCount)
	case ParamBackend:
		return count(uint32(backendCount))
	}
	return 0, 0, false
}

// wrap adds delta to v, jumping to the opposite bound when it leaves
// [lo, hi].
func wrap(v, lo, hi uint32, delta int64) uint32 {
	n := int64(v) + delta
	if n > int64(hi) {
		return lo
	}
	if n < int64(lo) {
		return hi
	}
	return uint32(n)
}

// Adjust moves p by delta with wraparound and stores it through Set.
// Modulation moves through the band's list rather than the enum. Nothing
// is applied; the owner of ctx decides when the backend sees it.
func (s *Store) Adjust(ctx *VFOContext, p Param, delta int64, persist bool) bool {
	if ctx.band == nil {
		return false
	}
	lo, hi, ok := s.bounds(ctx, p)
	if !ok {
		logging.Warn("radio", "parameter has no adjustable range", map[string]interface{}{
			"param": p.String(),
		})
		return false
	}

	var v uint32
	if p == ParamModulation {
		idx := ctx.band.ModulationIndex(ctx.modulation)
		if idx < 0 {
			idx = 0
		}
		v = uint32(ctx.band.Modulations[wrap(uint32(idx), lo, hi, delta)])
	} else {
		v = wrap(ctx.value(p), lo, hi, delta)
	}

	return s.Set(ctx, p, v, persist)
}

// IncDec adjusts p by one unit, or by the tuning step for frequency.
func (s *Store) IncDec(ctx *VFOContext, p Param, up, persist bool) bool {
	delta := int64(1)
	if p == ParamFrequency {
		delta = int64(StepSize(ctx.step))
	}
	if !up {
		delta = -delta
	}
	return s.Adjust(ctx, p, delta, persist)
}

// Apply pushes every pending parameter to ctx's backend. Parameters the
// backend does not support are dropped with a warning; a hardware error
// leaves the value pending for the next apply.
func (s *Store) Apply(ctx *VFOContext) {
	if ctx.pending[ParamBackend].ok {
		logging.Info("radio", "backend changed", map[string]interface{}{
			"backend": ctx.backend.String(),
		})
		ctx.clearPending(ParamBackend)
	}

	b := s.Backend(ctx)
	if b == nil {
		if ctx.PendingCount() > 0 {
			logging.Warn("radio", "no driver for backend, dropping pending parameters", map[string]interface{}{
				"backend": ctx.backend.String(),
			})
		}
		ctx.pending = [ParamCount]pending{}
		return
	}

	for p := Param(0); p < ParamCount; p++ {
		pv := ctx.pending[p]
		if !pv.ok {
			continue
		}

		supported, err := s.push(b, ctx, p, pv.value)
		if err != nil {
			logging.Error("radio", "backend rejected parameter", map[string]interface{}{
				"param":   p.String(),
				"backend": ctx.backend.String(),
				"error":   err.Error(),
			})
			continue
		}
		ctx.clearPending(p)
		if !supported {
			logging.Warn("radio", "parameter not supported by backend", map[string]interface{}{
				"param":   p.String(),
				"backend": ctx.backend.String(),
			})
		}
	}

	if td, ok := b.(ToneDetector); ok {
		if err := td.ArmToneDetection(ctx.rxCode, s.settings.DTMFDecode); err != nil {
			logging.Error("radio", "tone detection setup failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// push sends one value to the backend, reporting whether the backend
// has a notion of the parameter at all.
func (s *Store) push(b Backend, ctx *VFOContext, p Param, v uint32) (bool, error) {
	switch p {
	case ParamFrequency:
		return true, b.Tune(v, ctx.precise)
	case ParamPreciseTune, ParamStep, ParamPower, ParamTxOffset, ParamSquelchType,
		ParamVolume, ParamRxCode, ParamTxCode:
		// No register of their own: consumed by Tune, tone detection,
		// the transmit sequence or the UI.
		return true, nil
	case ParamModulation:
		if ms, ok := b.(ModulationSetter); ok {
			return true, ms.SetModulation(Modulation(v))
		}
	case ParamBandwidth:
		if bs, ok := b.(BandwidthSetter); ok {
			if int(v) >= len(ctx.band.Bandwidths) {
				return true, nil
			}
			return true, bs.SetBandwidth(ctx.band.Bandwidths[v], ctx.modulation)
		}
	case ParamGain:
		if gs, ok := b.(GainSetter); ok {
			return true, gs.SetGain(v, ctx.modulation)
		}
	case ParamSquelchValue:
		if sp, ok := b.(SquelchProgrammer); ok {
			return true, sp.SetSquelch(v, s.settings.SquelchOpenTime, s.settings.SquelchCloseTime)
		}
	case ParamAFC, ParamDeviation, ParamMicGain, ParamCrystalTrim:
		if t, ok := b.(Trimmer); ok {
			switch p {
			case ParamAFC:
				return true, t.SetAFC(v)
			case ParamDeviation:
				return true, t.SetDeviation(v)
			case ParamMicGain:
				return true, t.SetMicGain(v)
			default:
				return true, t.SetCrystalTrim(v)
			}
		}
	}
	return false, nil
}
