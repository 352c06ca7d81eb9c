package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func windowOf(ms ...int) *IntervalWindow {
	var w IntervalWindow
	for _, m := range ms {
		w.Push(time.Duration(m) * time.Millisecond)
	}
	return &w
}

func TestTimeoutPolicy(t *testing.T) {
	p := DefaultTimeoutPolicy()

	tests := []struct {
		name string
		w    *IntervalWindow
		want time.Duration
	}{
		{"empty", windowOf(), time.Second},
		{"single sample ignored", windowOf(5000), time.Second},
		{"fast producer clamps to min", windowOf(200, 200), time.Second},
		{"slow producer scales", windowOf(1000, 1000, 1000), 3 * time.Second},
		{"mixed average", windowOf(500, 1500), 3 * time.Second},
		{"very slow producer clamps to max", windowOf(8000, 9000), 10 * time.Second},
		{"zero intervals", windowOf(0, 0, 0), time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Timeout(tt.w))
		})
	}
}

func TestTimeoutAlwaysWithinBounds(t *testing.T) {
	p := DefaultTimeoutPolicy()
	var w IntervalWindow
	for i := 0; i < 200; i++ {
		w.Push(time.Duration((i*7919)%20000) * time.Millisecond)
		got := p.Timeout(&w)
		assert.GreaterOrEqual(t, got, p.Min)
		assert.LessOrEqual(t, got, p.Max)
	}
}

func TestFPS(t *testing.T) {
	assert.Equal(t, 0.0, FPS(windowOf()))
	assert.Equal(t, 5.0, FPS(windowOf(200)))
	assert.Equal(t, 3.3, FPS(windowOf(300)))
	assert.Equal(t, 0.5, FPS(windowOf(2000, 2000)))
	assert.Equal(t, 0.0, FPS(windowOf(0)))
}
