package radio

import "fmt"

// FormatFrequency renders f as MHz with five decimals.
func FormatFrequency(f uint32) string {
	return fmt.Sprintf("%d.%05d", f/MHz, f%MHz)
}

// ValueString renders p of slot i for the display.
func (e *Engine) ValueString(i int, p Param) string {
	vfo := e.slot(i)
	if vfo == nil {
		return ""
	}
	return e.store.ValueString(&vfo.Context, p)
}

// ValueString renders p of ctx for the display.
func (s *Store) ValueString(ctx *VFOContext, p Param) string {
	v := s.Get(ctx, p)
	switch p {
	case ParamFrequency:
		return FormatFrequency(ctx.frequency)
	case ParamTxOffset:
		return fmt.Sprintf("%+d", int32(ctx.txOffset))
	case ParamModulation:
		return ctx.modulation.String()
	case ParamBandwidth:
		if ctx.band != nil && int(ctx.bandwidth) < len(ctx.band.Bandwidths) {
			return ctx.band.Bandwidths[ctx.bandwidth].Name
		}
		return "Fixed"
	case ParamStep:
		step := StepSize(ctx.step)
		return fmt.Sprintf("%d.%02d", step/KHz, step%KHz)
	case ParamBackend:
		return ctx.backend.String()
	case ParamGain:
		return gainString(ctx)
	case ParamRxCode:
		return ctx.rxCode.String()
	case ParamTxCode:
		return ctx.txCode.String()
	case ParamPower:
		if int(ctx.power) < len(powerNames) {
			return powerNames[ctx.power]
		}
	case ParamSquelchType:
		if int(ctx.squelch.Type) < len(squelchTypeNames) {
			return squelchTypeNames[ctx.squelch.Type]
		}
	case ParamTxState:
		return ctx.tx.LastError.String()
	case ParamRSSI:
		return fmt.Sprintf("%.1fdBm", RSSIToDBm(uint16(v)))
	}
	return fmt.Sprintf("%d", v)
}

func gainString(ctx *VFOContext) string {
	switch ctx.backend {
	case BackendTransceiver:
		if ctx.gain == AutoGainIndex || int(ctx.gain) >= len(transceiverGainDb) {
			return "Auto"
		}
		return fmt.Sprintf("%+ddB", transceiverGainDb[ctx.gain])
	case BackendDSPReceiver:
		if ctx.gain == 0 {
			return "Auto"
		}
		return fmt.Sprintf("%d", ctx.gain-1)
	}
	return "Auto"
}

// RSSIToDBm converts the transceiver's half-dB RSSI scale.
func RSSIToDBm(rssi uint16) float64 {
	return float64(rssi)/2 - 160
}

// DBmToRSSI is the inverse of RSSIToDBm, saturating at the scale's ends.
func DBmToRSSI(dbm float64) uint16 {
	v := (dbm + 160) * 2
	if v < 0 {
		return 0
	}
	if v > 511 {
		return 511
	}
	return uint16(v)
}

// VFOStatus is the display summary of one slot.
type VFOStatus struct {
	Index      int    `json:"index"`
	Active     bool   `json:"active"`
	Open       bool   `json:"open"`
	Mode       string `json:"mode"`
	Channel    uint16 `json:"channel,omitempty"`
	Backend    string `json:"backend"`
	Band       string `json:"band"`
	Frequency  uint32 `json:"frequency"`
	FreqText   string `json:"frequency_text"`
	Modulation string `json:"modulation"`
	Bandwidth  string `json:"bandwidth"`
	Step       string `json:"step"`
	Gain       string `json:"gain"`
	Squelch    uint8  `json:"squelch"`
	RxCode     string `json:"rx_code"`
	TxCode     string `json:"tx_code"`
	Power      string `json:"power"`
	RSSI       uint16 `json:"rssi"`
	SNR        uint8  `json:"snr"`
	TxActive   bool   `json:"tx_active"`
	TxState    string `json:"tx_state"`
}

// Status summarises slot i. Signal readings are taken only for the active
// slot, the one the hardware is tuned to.
func (e *Engine) Status(i int) (VFOStatus, bool) {
	vfo := e.slot(i)
	if vfo == nil {
		return VFOStatus{}, false
	}
	ctx := &vfo.Context
	st := VFOStatus{
		Index:      i,
		Active:     vfo.Active,
		Open:       vfo.Open,
		Mode:       vfo.Mode.String(),
		Backend:    ctx.backend.String(),
		Frequency:  ctx.frequency,
		FreqText:   e.store.ValueString(ctx, ParamFrequency),
		Modulation: e.store.ValueString(ctx, ParamModulation),
		Bandwidth:  e.store.ValueString(ctx, ParamBandwidth),
		Step:       e.store.ValueString(ctx, ParamStep),
		Gain:       e.store.ValueString(ctx, ParamGain),
		Squelch:    ctx.squelch.Value,
		RxCode:     ctx.rxCode.String(),
		TxCode:     ctx.txCode.String(),
		Power:      e.store.ValueString(ctx, ParamPower),
		TxActive:   ctx.tx.Active,
		TxState:    ctx.tx.LastError.String(),
	}
	if ctx.band != nil {
		st.Band = ctx.band.Name
	}
	if vfo.Mode == ModeChannel {
		st.Channel = vfo.Channel
	}
	if vfo.Active {
		st.RSSI = uint16(e.store.Get(ctx, ParamRSSI))
		st.SNR = uint8(e.store.Get(ctx, ParamSNR))
	}
	return st, true
}
