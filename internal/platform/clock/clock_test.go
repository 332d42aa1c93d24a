package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_firesInDeadlineOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []string
	m.AfterFunc(3*time.Second, func() { got = append(got, "c") })
	m.AfterFunc(1*time.Second, func() { got = append(got, "a") })
	m.AfterFunc(1*time.Second, func() { got = append(got, "b") })

	m.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, m.Pending())

	m.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_callbackSchedulesWithinSameAdvance(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var fired []time.Duration
	start := m.Now()
	var tick func()
	tick = func() {
		fired = append(fired, m.Now().Sub(start))
		if len(fired) < 3 {
			m.AfterFunc(10*time.Second, tick)
		}
	}
	m.AfterFunc(time.Second, tick)

	m.Advance(25 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 11 * time.Second, 21 * time.Second}, fired)
	assert.Equal(t, 25*time.Second, m.Now().Sub(start))
}

func TestManual_stop(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	called := false
	tm := m.AfterFunc(time.Second, func() { called = true })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	m.Advance(time.Hour)
	assert.False(t, called)

	tm = m.AfterFunc(time.Second, func() {})
	m.Advance(time.Second)
	assert.False(t, tm.Stop(), "stop after fire")
}

func TestStop_nil(t *testing.T) {
	assert.NotPanics(t, func() { Stop(nil) })
}

func TestFromClockwork(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := FromClockwork(fc)

	var fired atomic.Bool
	c.AfterFunc(100*time.Millisecond, func() { fired.Store(true) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	fc.Advance(100 * time.Millisecond)
	assert.Eventually(t, fired.Load, time.Second, 5*time.Millisecond)
	assert.Equal(t, fc.Now(), c.Now())
}
