package radio

// VFOHandle is a narrow view of one slot, given to the scanner so it can
// sweep without reaching into the rest of the engine.
type VFOHandle struct {
	e     *Engine
	index int
}

// Handle returns a view of slot i. The handle follows the slot, not
// whichever slot is active later.
func (e *Engine) Handle(i int) VFOHandle {
	return VFOHandle{e: e, index: i}
}

func (h VFOHandle) Index() int { return h.index }

func (h VFOHandle) ctx() *VFOContext {
	vfo := h.e.slot(h.index)
	if vfo == nil {
		return nil
	}
	return &vfo.Context
}

// Retune moves the slot to freq and applies immediately.
func (h VFOHandle) Retune(freq uint32, precise bool) bool {
	ctx := h.ctx()
	if ctx == nil {
		return false
	}
	s := h.e.store
	var p uint32
	if precise {
		p = 1
	}
	s.Set(ctx, ParamPreciseTune, p, false)
	ok := s.Set(ctx, ParamFrequency, freq, false)
	s.Apply(ctx)
	return ok
}

// Measure samples the backend at the current frequency and records the
// sample as the slot's live measurement.
func (h VFOHandle) Measure() Measurement {
	vfo := h.e.slot(h.index)
	if vfo == nil {
		return Measurement{}
	}
	ctx := &vfo.Context
	s := h.e.store
	m := Measurement{
		Frequency: ctx.frequency,
		RSSI:      uint16(s.Get(ctx, ParamRSSI)),
		SNR:       uint8(s.Get(ctx, ParamSNR)),
		Noise:     uint16(s.Get(ctx, ParamNoise)),
		Glitch:    uint16(s.Get(ctx, ParamGlitch)),
		Timestamp: h.e.clock.Now(),
	}
	if cr, ok := s.Backend(ctx).(CodeReader); ok {
		m.Code = cr.DetectedCode()
	}
	vfo.Measurement = m
	return m
}

// SquelchOpen re-evaluates the live squelch, routing audio on change.
func (h VFOHandle) SquelchOpen() bool {
	return h.e.updateSquelchAt(h.index)
}

// IsOpen is the slot's last evaluated squelch state.
func (h VFOHandle) IsOpen() bool {
	vfo := h.e.slot(h.index)
	return vfo != nil && vfo.Open
}

// Mute closes the slot's audio gate at once.
func (h VFOHandle) Mute() {
	vfo := h.e.slot(h.index)
	if vfo == nil {
		return
	}
	vfo.Open = false
	h.e.SwitchAudioToVFO(h.index)
}

func (h VFOHandle) Frequency() uint32 {
	if ctx := h.ctx(); ctx != nil {
		return ctx.frequency
	}
	return 0
}

func (h VFOHandle) StepSize() uint32 {
	if ctx := h.ctx(); ctx != nil {
		return StepSize(ctx.step)
	}
	return 0
}

// SetStep selects a tuning step by table index.
func (h VFOHandle) SetStep(idx uint8) bool {
	ctx := h.ctx()
	if ctx == nil {
		return false
	}
	return h.e.store.Set(ctx, ParamStep, uint32(idx), false)
}

// Band is the slot's current band.
func (h VFOHandle) Band() *FreqBand {
	if ctx := h.ctx(); ctx != nil {
		return ctx.band
	}
	return nil
}

// LoadChannel loads stored channel ch into the slot and applies it.
func (h VFOHandle) LoadChannel(ch uint16) error {
	if err := h.e.LoadChannelToVFO(h.index, ch); err != nil {
		return err
	}
	vfo := h.e.slot(h.index)
	if vfo == nil {
		return ErrIndexOutOfRange
	}
	vfo.Open = false
	h.e.store.Apply(&vfo.Context)
	h.e.SwitchAudioToVFO(h.index)
	return nil
}
