package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalWindowKeepsMostRecent(t *testing.T) {
	var w IntervalWindow
	assert.Equal(t, 0, w.Len())
	assert.Equal(t, time.Duration(0), w.Average())
	assert.Empty(t, w.Intervals())

	for i := 1; i <= 25; i++ {
		w.Push(time.Duration(i) * time.Millisecond)

		want := i
		if want > WindowSize {
			want = WindowSize
		}
		require.Equal(t, want, w.Len())

		got := w.Intervals()
		first := i - want + 1
		for j, d := range got {
			assert.Equal(t, time.Duration(first+j)*time.Millisecond, d)
		}

		var sum time.Duration
		for _, d := range got {
			sum += d
		}
		assert.Equal(t, sum, w.Sum())
	}
}

func TestIntervalWindowClampsNegative(t *testing.T) {
	var w IntervalWindow
	w.Push(-5 * time.Millisecond)
	w.Push(10 * time.Millisecond)

	assert.Equal(t, []time.Duration{0, 10 * time.Millisecond}, w.Intervals())
	assert.Equal(t, 5*time.Millisecond, w.Average())
}

func TestIntervalWindowCopyIsIndependent(t *testing.T) {
	var w IntervalWindow
	w.Push(time.Second)

	c := w
	c.Push(2 * time.Second)

	assert.Equal(t, 1, w.Len())
	assert.Equal(t, 2, c.Len())
}
