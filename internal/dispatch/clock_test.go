package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClockOrdering(t *testing.T) {
	c := NewManualClock(time.Unix(100, 0))
	var got []string

	c.AfterFunc(2*time.Second, func() { got = append(got, "b") })
	c.AfterFunc(time.Second, func() { got = append(got, "a") })
	c.AfterFunc(2*time.Second, func() { got = append(got, "c") })
	stopped := c.AfterFunc(time.Second, func() { got = append(got, "never") })

	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())
	assert.Equal(t, 3, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, []string{"a"}, got)

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, time.Unix(102, 0), c.Now())
}

func TestRealClockFires(t *testing.T) {
	done := make(chan struct{})
	realClock{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real clock did not fire")
	}
}
