package scan

import (
	"errors"

	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/timing"
)

// ErrNoChannels is returned when the scanlist holds no channel.
var ErrNoChannels = errors.New("scan: no channels in scanlist")

// ChannelTarget is the VFO a channel scan loads channels into.
type ChannelTarget interface {
	LoadChannel(ch uint16) error
	SquelchOpen() bool
	IsOpen() bool
}

// ChannelScanner steps through stored channels instead of frequencies,
// holding on a channel while its squelch is open.
type ChannelScanner struct {
	target ChannelTarget
	clock  timing.Clock
	cfg    Config

	channels   []uint16
	pos        int
	lastListen bool
	deadline   timing.Deadline
	waiting    bool
	lastCheck  uint32
}

func NewChannelScanner(target ChannelTarget, clock timing.Clock, cfg Config) *ChannelScanner {
	return &ChannelScanner{target: target, clock: clock, cfg: cfg}
}

func (c *ChannelScanner) SetConfig(cfg Config) { c.cfg = cfg }

// Init starts on the first of channels.
func (c *ChannelScanner) Init(channels []uint16) error {
	if len(channels) == 0 {
		return ErrNoChannels
	}
	c.channels = channels
	c.pos = 0
	c.lastListen = false
	c.waiting = false
	c.lastCheck = c.clock.Now()
	timing.SetTimeout(c.clock, &c.deadline, 0)

	logging.Info("scan", "channel scan started", map[string]interface{}{
		"channels": len(channels),
	})
	return c.load()
}

func (c *ChannelScanner) load() error {
	if err := c.target.LoadChannel(c.channels[c.pos]); err != nil {
		logging.Warn("scan", "failed to load channel", map[string]interface{}{
			"channel": c.channels[c.pos],
			"error":   err.Error(),
		})
		return err
	}
	return nil
}

// Update runs one tick. Squelch is sampled at most every ChannelCheckMs
// and the hold/advance decision is only taken on a fresh sample.
func (c *ChannelScanner) Update() {
	if len(c.channels) == 0 {
		return
	}
	now := c.clock.Now()
	if now-c.lastCheck < c.cfg.ChannelCheckMs {
		return
	}
	c.lastCheck = now
	c.target.SquelchOpen()
	c.nextWithTimeout()
}

func (c *ChannelScanner) nextWithTimeout() {
	open := c.target.IsOpen()
	if c.lastListen != open {
		c.lastListen = open
		if open {
			c.waiting = true
			timing.SetTimeout(c.clock, &c.deadline, c.cfg.ListenTimeout)
		} else {
			timing.SetTimeout(c.clock, &c.deadline, c.cfg.StayTimeout)
		}
	}

	if timing.CheckTimeout(c.clock, &c.deadline) {
		c.Next()
	}
}

// Next moves to the following channel, wrapping at the end of the list.
func (c *ChannelScanner) Next() {
	if len(c.channels) == 0 {
		return
	}
	c.pos = (c.pos + 1) % len(c.channels)
	c.waiting = false
	timing.SetTimeout(c.clock, &c.deadline, 0)
	_ = c.load()
}

// Current is the channel loaded into the VFO.
func (c *ChannelScanner) Current() (uint16, bool) {
	if len(c.channels) == 0 {
		return 0, false
	}
	return c.channels[c.pos], true
}

// Waiting reports whether the scan is holding on a channel.
func (c *ChannelScanner) Waiting() bool { return c.waiting }
