package radio

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/timing"
)

// RecordType tags a storage record.
type RecordType uint8

const (
	RecordVFO RecordType = iota
	RecordChannel
	RecordBand
)

func (t RecordType) String() string {
	switch t {
	case RecordVFO:
		return "vfo"
	case RecordChannel:
		return "channel"
	case RecordBand:
		return "band"
	}
	return "unknown"
}

// Record is the storage shape of a VFO, channel or band. Band records use
// Frequency and EndFrequency as the scan range.
type Record struct {
	Index        int
	Type         RecordType
	Name         string
	ChannelMode  bool
	Channel      uint16
	Backend      BackendKind
	Frequency    uint32
	EndFrequency uint32
	TxOffset     uint32
	Step         uint8
	Bandwidth    uint8
	Modulation   Modulation
	Gain         uint32
	Squelch      Squelch
	Power        uint8
	RxCode       Code
	TxCode       Code
	Scanlists    uint16
	// Band names the backend band the VFO sat on. Empty for records from
	// older builds; the band is then picked from frequency and modulation.
	Band string
}

// ErrRecordNotFound is returned by Storage.Load for an empty slot.
var ErrRecordNotFound = errors.New("record not found")

// Storage is the persistence boundary. Records returns every record in
// index order; settings are a small string key/value space.
type Storage interface {
	Records() ([]Record, error)
	Load(index int) (Record, error)
	Save(rec Record) error
	Setting(key string) (string, error)
	SetSetting(key, value string) error
}

// SettingActiveVFO persists the active slot across boots.
const SettingActiveVFO = "active_vfo"

// DefaultVFORecord is the record written when storage holds no VFO.
func DefaultVFORecord(index int, kind BackendKind) Record {
	ctx := NewVFOContext(kind)
	rec := recordFromContext(&ctx)
	rec.Index = index
	rec.Type = RecordVFO
	rec.Name = "VFO " + kind.String()
	rec.Scanlists = 1
	return rec
}

func recordFromContext(ctx *VFOContext) Record {
	rec := Record{
		Backend:    ctx.backend,
		Frequency:  ctx.frequency,
		TxOffset:   ctx.txOffset,
		Step:       ctx.step,
		Bandwidth:  ctx.bandwidth,
		Modulation: ctx.modulation,
		Gain:       ctx.gain,
		Squelch:    ctx.squelch,
		Power:      ctx.power,
		RxCode:     ctx.rxCode,
		TxCode:     ctx.txCode,
	}
	if ctx.band != nil {
		rec.Band = ctx.band.Name
	}
	return rec
}

// loadRecord rebuilds a context from rec through the validating setters,
// so a corrupt field is rejected and logged instead of reaching hardware.
func (e *Engine) loadRecord(rec Record) VFOContext {
	ctx := NewVFOContext(rec.Backend)
	ctx.band = BandByName(rec.Backend, rec.Band)
	if ctx.band == nil || !ctx.band.Contains(rec.Frequency) || ctx.band.ModulationIndex(rec.Modulation) < 0 {
		ctx.band = BandFor(rec.Backend, rec.Frequency, rec.Modulation)
	}
	s := e.store

	s.Set(&ctx, ParamFrequency, rec.Frequency, false)
	s.Set(&ctx, ParamModulation, uint32(rec.Modulation), false)
	s.Set(&ctx, ParamBandwidth, uint32(rec.Bandwidth), false)
	s.Set(&ctx, ParamGain, rec.Gain, false)
	s.Set(&ctx, ParamPower, uint32(rec.Power), false)
	s.Set(&ctx, ParamSquelchType, uint32(rec.Squelch.Type), false)
	s.Set(&ctx, ParamSquelchValue, uint32(rec.Squelch.Value), false)
	s.Set(&ctx, ParamStep, uint32(rec.Step), false)
	s.Set(&ctx, ParamTxOffset, rec.TxOffset, false)
	s.Set(&ctx, ParamRxCode, rec.RxCode.Pack(), false)
	s.Set(&ctx, ParamTxCode, rec.TxCode.Pack(), false)
	s.Set(&ctx, ParamMicGain, e.settings.MicGain, false)
	s.Set(&ctx, ParamDeviation, e.settings.Deviation, false)
	s.Set(&ctx, ParamPreciseTune, 1, false)

	ctx.markAllPending()
	return ctx
}

// LoadFromStorage creates one slot per stored VFO record, up to the
// configured maximum, then activates the persisted active slot.
func (e *Engine) LoadFromStorage() error {
	recs, err := e.storage.Records()
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	count := 0
	for _, rec := range recs {
		if rec.Type != RecordVFO {
			continue
		}
		if count == e.maxVFOs {
			logging.Warn("radio", "more VFO records than slots, ignoring the rest", map[string]interface{}{
				"slots": e.maxVFOs,
			})
			break
		}
		e.loadSlot(count, rec)
		count++
	}

	if count == 0 {
		rec := DefaultVFORecord(nextFreeIndex(recs), BackendTransceiver)
		if err := e.storage.Save(rec); err != nil {
			return fmt.Errorf("failed to create default VFO: %w", err)
		}
		logging.Info("radio", "no VFO records, created default", map[string]interface{}{"index": rec.Index})
		e.loadSlot(0, rec)
		count = 1
	}
	e.state.count = count

	active := 0
	if v, err := e.storage.Setting(SettingActiveVFO); err == nil && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < count {
			active = n
		}
	}
	for i := 0; i < count; i++ {
		e.state.vfos[i].Active = i == active
		if i != active {
			// Switching programs only what differs from the live slot.
			e.state.vfos[i].Context.pending = [ParamCount]pending{}
		}
	}
	e.state.active = active
	e.state.lastActiveVFO = active

	e.store.Apply(&e.state.vfos[active].Context)
	e.SwitchAudioToVFO(active)

	logging.Info("radio", "VFOs loaded", map[string]interface{}{
		"count":  count,
		"active": active,
	})
	return nil
}

func nextFreeIndex(recs []Record) int {
	next := 0
	for _, r := range recs {
		if r.Index >= next {
			next = r.Index + 1
		}
	}
	return next
}

func (e *Engine) loadSlot(slot int, rec Record) {
	vfo := &e.state.vfos[slot]
	*vfo = ExtendedVFO{StorageIndex: rec.Index, Channel: rec.Channel}

	if rec.ChannelMode {
		err := e.LoadChannelToVFO(slot, rec.Channel)
		if err == nil {
			return
		}
		logging.Warn("radio", "channel load failed, using VFO record", map[string]interface{}{
			"channel": rec.Channel,
			"error":   err.Error(),
		})
	}
	vfo.Context = e.loadRecord(rec)
	vfo.Mode = ModeFrequency
}

// LoadChannelToVFO loads stored channel ch into slot i and puts the slot
// in channel mode. Nothing is applied.
func (e *Engine) LoadChannelToVFO(i int, ch uint16) error {
	if i < 0 || i >= e.maxVFOs {
		return ErrIndexOutOfRange
	}
	rec, err := e.storage.Load(int(ch))
	if err != nil {
		return fmt.Errorf("channel %d: %w", ch, err)
	}
	if rec.Type != RecordChannel {
		return fmt.Errorf("record %d is a %s, not a channel", ch, rec.Type)
	}

	vfo := &e.state.vfos[i]
	tx := vfo.Context.tx
	vfo.Context = e.loadRecord(rec)
	vfo.Context.tx = tx
	vfo.Mode = ModeChannel
	vfo.Channel = ch
	return nil
}

// recordFor builds the storage record of slot i, keeping the stored name
// and scanlists.
func (e *Engine) recordFor(i int) Record {
	vfo := &e.state.vfos[i]
	rec := recordFromContext(&vfo.Context)
	if old, err := e.storage.Load(vfo.StorageIndex); err == nil {
		rec.Name = old.Name
		rec.Scanlists = old.Scanlists
	}
	rec.Index = vfo.StorageIndex
	rec.Type = RecordVFO
	rec.ChannelMode = vfo.Mode == ModeChannel
	rec.Channel = vfo.Channel
	return rec
}

// SaveActive writes the active VFO to storage immediately.
func (e *Engine) SaveActive() error {
	return e.saveSlot(e.state.active)
}

func (e *Engine) saveSlot(i int) error {
	if i < 0 || i >= e.state.count {
		return ErrIndexOutOfRange
	}
	rec := e.recordFor(i)
	if err := e.storage.Save(rec); err != nil {
		return fmt.Errorf("failed to save VFO %d: %w", i, err)
	}
	logging.Debug("radio", "VFO saved", map[string]interface{}{"slot": i, "index": rec.Index})
	return nil
}

// CheckAndPersist writes the active VFO once its needs-persistence flag
// has been raised for at least the debounce interval.
func (e *Engine) CheckAndPersist() {
	ctx := &e.state.vfos[e.state.active].Context
	if !ctx.needsPersist {
		return
	}
	if timing.Elapsed(e.clock, ctx.persistAt) < e.settings.PersistDelayMs {
		return
	}
	e.flushPersist(e.state.active)
}

func (e *Engine) flushPersist(i int) {
	ctx := &e.state.vfos[i].Context
	if !ctx.needsPersist {
		return
	}
	if err := e.saveSlot(i); err != nil {
		logging.Error("radio", "persist failed", map[string]interface{}{"error": err.Error()})
		return
	}
	ctx.needsPersist = false
}

// ToggleMode flips slot i between frequency and channel mode, writing the
// outgoing configuration and loading the incoming one.
func (e *Engine) ToggleMode(i int) bool {
	if i < 0 || i >= e.state.count {
		return false
	}
	vfo := &e.state.vfos[i]

	var rec Record
	if vfo.Mode == ModeFrequency {
		rec = e.recordFor(i)
	} else {
		stored, err := e.storage.Load(vfo.StorageIndex)
		if err != nil {
			logging.Error("radio", "mode toggle failed to read VFO record", map[string]interface{}{"error": err.Error()})
			return false
		}
		rec = stored
	}

	rec.ChannelMode = vfo.Mode == ModeFrequency
	if err := e.storage.Save(rec); err != nil {
		logging.Error("radio", "mode toggle failed to write VFO record", map[string]interface{}{"error": err.Error()})
		return false
	}

	if rec.ChannelMode {
		if err := e.LoadChannelToVFO(i, rec.Channel); err != nil {
			logging.Warn("radio", "no channel to switch to", map[string]interface{}{"error": err.Error()})
			rec.ChannelMode = false
			if err := e.storage.Save(rec); err != nil {
				logging.Error("radio", "failed to restore VFO record", map[string]interface{}{"error": err.Error()})
			}
			return false
		}
	} else {
		tx := vfo.Context.tx
		vfo.Context = e.loadRecord(rec)
		vfo.Context.tx = tx
		vfo.Mode = ModeFrequency
	}

	logging.Info("radio", "VFO mode toggled", map[string]interface{}{
		"slot": i,
		"mode": vfo.Mode.String(),
	})

	vfo.Context.markAllPending()
	if i == e.state.active {
		e.store.Apply(&vfo.Context)
	}
	vfo.Context.needsPersist = true
	vfo.Context.persistAt = e.clock.Now()
	return true
}

// MarkForPersist raises slot i's needs-persistence flag for changes made
// outside the parameter store, such as stepping to another channel.
func (e *Engine) MarkForPersist(i int) {
	vfo := e.slot(i)
	if vfo == nil {
		return
	}
	vfo.Context.needsPersist = true
	vfo.Context.persistAt = e.clock.Now()
}
