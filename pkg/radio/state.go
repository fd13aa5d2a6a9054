package radio

import (
	"errors"
	"strconv"

	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/timing"
)

// MaxVFOs is the fixed slot capacity.
const MaxVFOs = 16

// ErrIndexOutOfRange is returned for a VFO slot that does not exist.
var ErrIndexOutOfRange = errors.New("vfo index out of range")

// VFOMode selects whether a slot tunes freely or follows a stored channel.
type VFOMode uint8

const (
	ModeFrequency VFOMode = iota
	ModeChannel
)

func (m VFOMode) String() string {
	if m == ModeChannel {
		return "channel"
	}
	return "vfo"
}

// ExtendedVFO is one slot: its parameter context plus channel, activity
// and audio state.
type ExtendedVFO struct {
	Context      VFOContext
	Mode         VFOMode
	Channel      uint16
	StorageIndex int
	Active       bool
	Open         bool
	LastActivity uint32
	Measurement  Measurement
}

type audioRoute struct {
	kind BackendKind
	open bool
}

// RadioState is the set of slots and which one is live. It is owned by
// exactly one Engine and only touched from the control loop.
type RadioState struct {
	vfos          [MaxVFOs]ExtendedVFO
	count         int
	active        int
	multiwatch    bool
	audioRouting  bool
	lastActiveVFO int
	lastPoll      uint32

	route  audioRoute
	routed bool
}

// Options wires an Engine to its collaborators.
type Options struct {
	Backends Backends
	Storage  Storage
	Battery  Battery
	Clock    timing.Clock
	Settings Settings
	// MaxVFOs caps how many stored VFO records become slots, at most MaxVFOs.
	MaxVFOs int
}

// Engine owns the RadioState and every operation on it: parameter access,
// VFO switching, audio routing, multiwatch, persistence and transmit.
type Engine struct {
	state    RadioState
	settings Settings
	store    *Store
	backends Backends
	storage  Storage
	battery  Battery
	clock    timing.Clock
	maxVFOs  int
}

// NewEngine creates an engine with no slots. Call LoadFromStorage before
// anything else.
func NewEngine(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = timing.NewSystemClock()
	}
	if opts.MaxVFOs <= 0 || opts.MaxVFOs > MaxVFOs {
		opts.MaxVFOs = MaxVFOs
	}
	e := &Engine{
		settings: opts.Settings,
		backends: opts.Backends,
		storage:  opts.Storage,
		battery:  opts.Battery,
		clock:    opts.Clock,
		maxVFOs:  opts.MaxVFOs,
	}
	e.store = NewStore(opts.Backends, opts.Clock, &e.settings)
	return e
}

// SetSettings installs the snapshot for the coming tick.
func (e *Engine) SetSettings(s Settings) { e.settings = s }

func (e *Engine) Settings() Settings { return e.settings }

func (e *Engine) Store() *Store { return e.store }

func (e *Engine) Clock() timing.Clock { return e.clock }

// Count is the number of configured slots.
func (e *Engine) Count() int { return e.state.count }

// ActiveIndex is the slot currently driving the hardware.
func (e *Engine) ActiveIndex() int { return e.state.active }

func (e *Engine) MultiwatchEnabled() bool { return e.state.multiwatch }

func (e *Engine) AudioRoutingEnabled() bool { return e.state.audioRouting }

// VFO returns a copy of slot i.
func (e *Engine) VFO(i int) (ExtendedVFO, bool) {
	if i < 0 || i >= e.state.count {
		return ExtendedVFO{}, false
	}
	return e.state.vfos[i], true
}

func (e *Engine) slot(i int) *ExtendedVFO {
	if i < 0 || i >= e.state.count {
		return nil
	}
	return &e.state.vfos[i]
}

// Get reads p from slot i.
func (e *Engine) Get(i int, p Param) uint32 {
	vfo := e.slot(i)
	if vfo == nil {
		return 0
	}
	return e.store.Get(&vfo.Context, p)
}

// SetParam sets p on slot i and, for the active slot, applies it.
func (e *Engine) SetParam(i int, p Param, v uint32, persist bool) bool {
	vfo := e.slot(i)
	if vfo == nil {
		return false
	}
	if !e.store.Set(&vfo.Context, p, v, persist) {
		return false
	}
	e.applyIfActive(i)
	return true
}

// AdjustParam moves p on slot i by delta with wraparound and, for the
// active slot, applies it.
func (e *Engine) AdjustParam(i int, p Param, delta int64, persist bool) bool {
	vfo := e.slot(i)
	if vfo == nil || !e.store.Adjust(&vfo.Context, p, delta, persist) {
		return false
	}
	e.applyIfActive(i)
	return true
}

// IncDecParam steps p on slot i up or down by one unit.
func (e *Engine) IncDecParam(i int, p Param, up, persist bool) bool {
	vfo := e.slot(i)
	if vfo == nil || !e.store.IncDec(&vfo.Context, p, up, persist) {
		return false
	}
	e.applyIfActive(i)
	return true
}

// applyIfActive pushes slot i's pending values when it owns the hardware.
// Inactive slots keep theirs until SwitchVFO makes them live.
func (e *Engine) applyIfActive(i int) {
	if i == e.state.active {
		e.store.Apply(&e.state.vfos[i].Context)
	}
}

// SelectBand moves slot i onto band and applies if it is active.
func (e *Engine) SelectBand(i int, band *FreqBand) bool {
	vfo := e.slot(i)
	if vfo == nil || !e.store.SelectBand(&vfo.Context, band) {
		return false
	}
	e.applyIfActive(i)
	return true
}

// SwitchVFO makes slot index the active one.
func (e *Engine) SwitchVFO(index int) bool {
	if index < 0 || index >= e.state.count {
		return false
	}

	prev := e.state.active
	e.flushPersist(prev)

	out := &e.state.vfos[prev]
	in := &e.state.vfos[index]

	// Only what differs needs reprogramming, unless the chip changes.
	if out.Context.backend != in.Context.backend {
		in.Context.markAllPending()
	} else {
		for p := Param(0); p < ParamCount; p++ {
			if p.ReadOnly() {
				continue
			}
			if out.Context.value(p) != in.Context.value(p) {
				in.Context.markPending(p)
			}
		}
	}

	out.Open = false
	e.SwitchAudioToVFO(prev)
	out.Active = false

	e.state.active = index
	in.Active = true
	e.SwitchAudioToVFO(index)

	e.store.Apply(&in.Context)

	if err := e.storage.SetSetting(SettingActiveVFO, strconv.Itoa(index)); err != nil {
		logging.Error("radio", "failed to store active VFO", map[string]interface{}{"error": err.Error()})
	}

	logging.Debug("radio", "switched VFO", map[string]interface{}{
		"from": prev,
		"to":   index,
	})
	return true
}

// NextVFO switches to the slot after the active one, wrapping.
func (e *Engine) NextVFO() bool {
	if e.state.count == 0 {
		return false
	}
	return e.SwitchVFO((e.state.active + 1) % e.state.count)
}
