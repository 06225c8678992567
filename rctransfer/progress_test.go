package rctransfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	type update struct {
		name        string
		done, total int64
	}
	var updates []update
	pt := NewProgressTracker(func(name string, done, total int64, rate float64) {
		updates = append(updates, update{name, done, total})
	}, time.Hour)

	pt.Start("hello.txt", 300)
	pt.Update(128)
	pt.Update(256)
	assert.Empty(t, updates, "updates inside the interval are suppressed")

	pt.Complete()
	assert.Equal(t, []update{{"hello.txt", 256, 300}}, updates)
	assert.GreaterOrEqual(t, pt.Duration(), time.Duration(0))
}

func TestProgressTrackerReports(t *testing.T) {
	var calls int
	pt := NewProgressTracker(func(string, int64, int64, float64) { calls++ }, time.Nanosecond)
	pt.Start("a", 10)
	time.Sleep(time.Millisecond)
	pt.Update(5)
	assert.Equal(t, 0, calls, "no complete record yet")
	pt.Update(130)
	assert.Equal(t, 1, calls)
	pt.Update(200)
	assert.Equal(t, 1, calls, "same record")
	assert.Equal(t, int64(1), pt.Records())
}
