package radio

import (
	"fmt"

	"github.com/dougsko/rxcore/pkg/logging"
)

// TxStatus is the outcome of the transmit gate, kept on the VFO for display.
type TxStatus uint8

const (
	TxUnknown TxStatus = iota
	TxOn
	TxVoltHigh
	TxBatLow
	TxDisabled
	TxDisabledUpconverter
	TxPowOverdrive
)

var txStatusNames = [...]string{
	TxUnknown:             "TX Off",
	TxOn:                  "TX On",
	TxVoltHigh:            "CHARGING",
	TxBatLow:              "BAT LOW",
	TxDisabled:            "DISABLED",
	TxDisabledUpconverter: "UPCONV",
	TxPowOverdrive:        "HIGH POW",
}

func (s TxStatus) String() string {
	if int(s) < len(txStatusNames) {
		return txStatusNames[s]
	}
	return "?"
}

// Settling delays of the transmit sequence, in milliseconds.
const (
	TxPrepareDelayMs = 10
	TxPAEnableDelay  = 5
	TxPASettleDelay  = 10
	STELeadDelayMs   = 50
	STETailDelayMs   = 200
)

// CheckTxGate decides whether ctx may transmit. An empty battery denies
// before anything else, then the upconverter, the backend's ability to
// transmit, and finally charging or over-voltage.
func (e *Engine) CheckTxGate(ctx *VFOContext) TxStatus {
	if e.battery != nil && e.battery.Percent() == 0 {
		return TxBatLow
	}
	if e.settings.Upconverter {
		return TxDisabledUpconverter
	}
	if _, ok := e.backends[ctx.backend].(Transmitter); !ok {
		return TxDisabled
	}
	if e.battery != nil && (e.battery.Charging() || e.battery.Voltage() > e.settings.BatteryVoltageMax) {
		return TxVoltHigh
	}
	return TxOn
}

// StartTx keys up the active slot.
func (e *Engine) StartTx() bool {
	return e.startTx(&e.state.vfos[e.state.active].Context)
}

// StopTx unkeys the active slot.
func (e *Engine) StopTx() {
	e.stopTx(&e.state.vfos[e.state.active].Context)
}

// ToggleTx starts or stops transmission on the active slot.
func (e *Engine) ToggleTx(on bool) bool {
	if on {
		return e.StartTx()
	}
	e.StopTx()
	return true
}

// TxActive reports whether the active slot is transmitting.
func (e *Engine) TxActive() bool {
	return e.state.vfos[e.state.active].Context.tx.Active
}

func (e *Engine) startTx(ctx *VFOContext) bool {
	status := e.CheckTxGate(ctx)
	if status != TxOn {
		ctx.tx.LastError = status
		logging.Info("tx", "transmit denied", map[string]interface{}{"status": status.String()})
		return false
	}
	if ctx.tx.Active {
		return true
	}

	b := e.backends[ctx.backend]
	tx := b.(Transmitter)
	freq := ctx.TxFrequency()

	if err := e.keyUp(b, tx, ctx, freq); err != nil {
		logging.Error("tx", "transmit sequence aborted", map[string]interface{}{
			"frequency": freq,
			"error":     err.Error(),
		})
		e.abortTx(b, tx, ctx)
		ctx.tx.LastError = TxDisabled
		return false
	}

	ctx.tx.Active = true
	ctx.tx.LastError = TxOn
	logging.Info("tx", "transmitting", map[string]interface{}{"frequency": freq, "power": ctx.power})
	return true
}

func (e *Engine) keyUp(b Backend, tx Transmitter, ctx *VFOContext, freq uint32) error {
	if err := tx.SetRxEnable(false); err != nil {
		return fmt.Errorf("rx disable: %w", err)
	}
	if err := b.Tune(freq, true); err != nil {
		return fmt.Errorf("tune: %w", err)
	}
	if err := tx.PrepareTransmit(); err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	e.clock.DelayMs(TxPrepareDelayMs)
	if err := tx.SetPAEnable(ctx.tx.PAEnabled); err != nil {
		return fmt.Errorf("pa enable: %w", err)
	}
	e.clock.DelayMs(TxPAEnableDelay)
	if err := tx.SetupPowerAmplifier(ctx.power, freq); err != nil {
		return fmt.Errorf("pa power: %w", err)
	}
	e.clock.DelayMs(TxPASettleDelay)
	if err := tx.EnableSubAudible(ctx.txCode); err != nil {
		return fmt.Errorf("sub-audible: %w", err)
	}
	return nil
}

// abortTx returns the chain to receive after a failed key-up.
func (e *Engine) abortTx(b Backend, tx Transmitter, ctx *VFOContext) {
	e.txStep("pa power", tx.SetupPowerAmplifier(0, 0))
	e.txStep("pa disable", tx.SetPAEnable(false))
	e.txStep("rx enable", tx.SetRxEnable(true))
	e.txStep("retune", b.Tune(ctx.frequency, true))
}

func (e *Engine) stopTx(ctx *VFOContext) {
	if !ctx.tx.Active {
		return
	}
	b := e.backends[ctx.backend]
	tx, ok := b.(Transmitter)
	if !ok {
		ctx.tx.Active = false
		return
	}

	e.txStep("exit dtmf", tx.ExitDTMF())
	e.sendEOT(tx)

	ctx.tx.Active = false
	ctx.tx.LastError = TxUnknown

	e.txStep("restore rx", tx.RestoreRx())
	e.txStep("pa power", tx.SetupPowerAmplifier(0, 0))
	e.txStep("pa disable", tx.SetPAEnable(false))
	e.txStep("rx enable", tx.SetRxEnable(true))
	if td, ok := b.(ToneDetector); ok {
		e.txStep("tone detection", td.ArmToneDetection(ctx.rxCode, e.settings.DTMFDecode))
	}
	e.txStep("retune", b.Tune(ctx.frequency, true))
	logging.Info("tx", "transmit stopped")
}

// sendEOT plays the end-of-transmission courtesy tone and squelch tail.
func (e *Engine) sendEOT(tx Transmitter) {
	e.txStep("exit sub-audible", tx.ExitSubAudible())
	if e.settings.Roger {
		e.txStep("roger", tx.PlayRoger())
	}
	if e.settings.STE {
		e.clock.DelayMs(STELeadDelayMs)
		e.txStep("tail", tx.SendTail())
		e.clock.DelayMs(STETailDelayMs)
	}
	e.txStep("exit sub-audible", tx.ExitSubAudible())
}

func (e *Engine) txStep(op string, err error) {
	if err != nil {
		logging.Error("tx", op+" failed", map[string]interface{}{"error": err.Error()})
	}
}
