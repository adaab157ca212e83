package progress

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerTicks(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTrackerTo(&buf, "Analyzing", 50)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Tick()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), tr.Current())
	tr.FinishSuccess()
}

func TestTrackerFinishError(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTrackerTo(&buf, "Analyzing", 2)
	tr.Tick()
	tr.FinishError(errors.New("parser unavailable"))

	assert.Contains(t, buf.String(), "Analyzing error: parser unavailable")
}

func TestNilTracker(t *testing.T) {
	var tr *Tracker
	assert.NotPanics(t, func() {
		tr.Tick()
		tr.FinishSuccess()
		tr.FinishError(errors.New("x"))
	})
	assert.Equal(t, int64(0), tr.Current())
}
