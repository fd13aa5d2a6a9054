package scan

import (
	"errors"
	"testing"

	"github.com/dougsko/rxcore/pkg/timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannels struct {
	loaded []uint16
	active map[uint16]bool
	open   bool
	fail   uint16
}

func (f *fakeChannels) current() uint16 { return f.loaded[len(f.loaded)-1] }

func (f *fakeChannels) LoadChannel(ch uint16) error {
	f.loaded = append(f.loaded, ch)
	f.open = false
	if ch == f.fail {
		return errors.New("empty slot")
	}
	return nil
}

func (f *fakeChannels) SquelchOpen() bool {
	f.open = f.active[f.current()]
	return f.open
}

func (f *fakeChannels) IsOpen() bool { return f.open }

func TestChannelScanner(t *testing.T) {
	t.Run("Empty Scanlist", func(t *testing.T) {
		c := NewChannelScanner(&fakeChannels{}, timing.NewManualClock(0), DefaultConfig())
		assert.ErrorIs(t, c.Init(nil), ErrNoChannels)
	})

	t.Run("Steps And Holds", func(t *testing.T) {
		target := &fakeChannels{active: map[uint16]bool{7: true}}
		clock := timing.NewManualClock(0)
		c := NewChannelScanner(target, clock, DefaultConfig())
		require.NoError(t, c.Init([]uint16{3, 5, 7, 9}))
		assert.Equal(t, []uint16{3}, target.loaded)

		c.Update()
		assert.Len(t, target.loaded, 1, "squelch is sampled at most every 55ms")

		clock.Advance(DefaultChannelCheckMs)
		c.Update()
		ch, _ := c.Current()
		assert.Equal(t, uint16(5), ch)

		clock.Advance(DefaultChannelCheckMs)
		c.Update()
		ch, _ = c.Current()
		assert.Equal(t, uint16(7), ch)

		for i := 0; i < 20; i++ {
			clock.Advance(DefaultChannelCheckMs)
			c.Update()
		}
		ch, _ = c.Current()
		assert.Equal(t, uint16(7), ch)
		assert.True(t, c.Waiting())

		target.active[7] = false
		clock.Advance(DefaultChannelCheckMs)
		c.Update()
		ch, _ = c.Current()
		assert.Equal(t, uint16(7), ch, "stay-at timeout holds after close")

		clock.Advance(DefaultStayTimeoutMs)
		c.Update()
		ch, _ = c.Current()
		assert.Equal(t, uint16(9), ch)
		assert.False(t, c.Waiting())

		c.Next()
		ch, _ = c.Current()
		assert.Equal(t, uint16(3), ch, "wraps to the first channel")
	})

	t.Run("Load Failure Is Reported", func(t *testing.T) {
		target := &fakeChannels{fail: 1}
		c := NewChannelScanner(target, timing.NewManualClock(0), DefaultConfig())
		assert.Error(t, c.Init([]uint16{1, 2}))
	})
}
