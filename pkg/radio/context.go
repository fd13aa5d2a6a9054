package radio

// Squelch is the VFO's squelch type and level.
type Squelch struct {
	Type  uint8
	Value uint8
}

// TxState is the per-VFO transmit state machine.
type TxState struct {
	Active    bool
	LastError TxStatus
	PAEnabled bool
}

// pending holds a value waiting to be pushed to hardware. ok=false means
// nothing to apply, so a legitimately zero value is still pushed.
type pending struct {
	value uint32
	ok    bool
}

// VFOContext is one slot's hardware configuration. It is a plain value:
// comparing two contexts with == compares every stored field.
type VFOContext struct {
	backend    BackendKind
	band       *FreqBand
	frequency  uint32
	txOffset   uint32
	step       uint8
	modulation Modulation
	bandwidth  uint8
	gain       uint32
	squelch    Squelch
	volume     uint8
	power      uint8
	afc        uint32
	deviation  uint32
	mic        uint32
	xtal       uint32
	precise    bool
	rxCode     Code
	txCode     Code

	pending [ParamCount]pending

	needsPersist bool
	persistAt    uint32

	tx TxState
}

// NewVFOContext returns a context on the backend's default band with
// nothing pending.
func NewVFOContext(kind BackendKind) VFOContext {
	ctx := VFOContext{
		backend: kind,
		volume:  63,
		tx:      TxState{PAEnabled: true},
	}
	switch kind {
	case BackendTransceiver:
		ctx.frequency = 14550000
		ctx.modulation = ModFM
		ctx.bandwidth = 3
		ctx.step = 11
		ctx.squelch = Squelch{Type: 0, Value: 4}
	case BackendDSPReceiver:
		ctx.frequency = 710000
		ctx.modulation = ModAM
		ctx.bandwidth = 6
		ctx.step = 5
	case BackendFMBroadcast:
		ctx.frequency = 10000000
		ctx.modulation = ModWFM
		ctx.step = 9
	}
	ctx.band = BandFor(kind, ctx.frequency, ctx.modulation)
	return ctx
}

func (c *VFOContext) Backend() BackendKind   { return c.backend }
func (c *VFOContext) Band() *FreqBand        { return c.band }
func (c *VFOContext) Frequency() uint32      { return c.frequency }
func (c *VFOContext) Modulation() Modulation { return c.modulation }
func (c *VFOContext) Squelch() Squelch       { return c.squelch }
func (c *VFOContext) RxCode() Code           { return c.rxCode }
func (c *VFOContext) TxCode() Code           { return c.txCode }
func (c *VFOContext) Tx() TxState            { return c.tx }
func (c *VFOContext) NeedsPersist() bool     { return c.needsPersist }

// TxFrequency is the receive frequency shifted by the signed TX offset.
func (c *VFOContext) TxFrequency() uint32 {
	return uint32(int64(c.frequency) + int64(int32(c.txOffset)))
}

// Pending reports whether p waits to be applied.
func (c *VFOContext) Pending(p Param) bool {
	return p < ParamCount && c.pending[p].ok
}

// PendingCount returns how many parameters wait to be applied.
func (c *VFOContext) PendingCount() int {
	n := 0
	for _, pv := range c.pending {
		if pv.ok {
			n++
		}
	}
	return n
}

func (c *VFOContext) markPending(p Param) {
	c.pending[p] = pending{value: c.value(p), ok: true}
}

func (c *VFOContext) clearPending(p Param) {
	c.pending[p] = pending{}
}

// markAllPending queues every stored parameter, used after a backend swap
// or a fresh load when no register can be trusted.
func (c *VFOContext) markAllPending() {
	for p := Param(0); p < ParamCount; p++ {
		if !p.ReadOnly() {
			c.markPending(p)
		}
	}
}

// value returns the stored value of a settable parameter.
func (c *VFOContext) value(p Param) uint32 {
	switch p {
	case ParamFrequency:
		return c.frequency
	case ParamStep:
		return uint32(c.step)
	case ParamPower:
		return uint32(c.power)
	case ParamTxOffset:
		return c.txOffset
	case ParamModulation:
		return uint32(c.modulation)
	case ParamSquelchType:
		return uint32(c.squelch.Type)
	case ParamSquelchValue:
		return uint32(c.squelch.Value)
	case ParamVolume:
		return uint32(c.volume)
	case ParamGain:
		return c.gain
	case ParamBandwidth:
		return uint32(c.bandwidth)
	case ParamBackend:
		return uint32(c.backend)
	case ParamRxCode:
		return c.rxCode.Pack()
	case ParamTxCode:
		return c.txCode.Pack()
	case ParamAFC:
		return c.afc
	case ParamDeviation:
		return c.deviation
	case ParamMicGain:
		return c.mic
	case ParamCrystalTrim:
		return c.xtal
	case ParamPreciseTune:
		if c.precise {
			return 1
		}
	}
	return 0
}

// store writes an already validated value. Backend swaps go through
// Store.switchBackend instead.
func (c *VFOContext) store(p Param, v uint32) {
	switch p {
	case ParamFrequency:
		c.frequency = v
	case ParamStep:
		c.step = uint8(v)
	case ParamPower:
		c.power = uint8(v)
	case ParamTxOffset:
		c.txOffset = v
	case ParamModulation:
		c.modulation = Modulation(v)
	case ParamSquelchType:
		c.squelch.Type = uint8(v)
	case ParamSquelchValue:
		c.squelch.Value = uint8(v)
	case ParamVolume:
		c.volume = uint8(v)
	case ParamGain:
		c.gain = v
	case ParamBandwidth:
		c.bandwidth = uint8(v)
	case ParamRxCode:
		c.rxCode = UnpackCode(v)
	case ParamTxCode:
		c.txCode = UnpackCode(v)
	case ParamAFC:
		c.afc = v
	case ParamDeviation:
		c.deviation = v
	case ParamMicGain:
		c.mic = v
	case ParamCrystalTrim:
		c.xtal = v
	case ParamPreciseTune:
		c.precise = v != 0
	}
}
