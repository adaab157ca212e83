package fileproc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPreservesOrder(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	var progress atomic.Int32
	results, err := Map(context.Background(), items, 4, func(_ context.Context, n int) (string, error) {
		return fmt.Sprintf("item-%d", n), nil
	}, func() { progress.Add(1) })

	require.NoError(t, err)
	require.Len(t, results, 100)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("item-%d", i), r)
	}
	assert.Equal(t, int32(100), progress.Load())
}

func TestMapEmpty(t *testing.T) {
	results, err := Map(context.Background(), nil, 0, func(_ context.Context, n int) (int, error) {
		return n, nil
	}, nil)
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestMapFirstErrorCancels(t *testing.T) {
	boom := errors.New("boom")
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	_, err := Map(context.Background(), items, 1, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, boom
		}
		return n, nil
	}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestMapCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	_, err := Map(ctx, []int{1, 2, 3}, 2, func(_ context.Context, n int) (int, error) {
		ran.Add(1)
		return n, nil
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), ran.Load())
}

func TestMapBoundedConcurrency(t *testing.T) {
	var active, peak atomic.Int32
	items := make([]int, 40)

	_, err := Map(context.Background(), items, 3, func(_ context.Context, _ int) (int, error) {
		n := active.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		runtime.Gosched()
		active.Add(-1)
		return 0, nil
	}, nil)

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 7, Workers(7))
	assert.Equal(t, runtime.NumCPU()*DefaultWorkerMultiplier, Workers(0))
	assert.Equal(t, runtime.NumCPU()*DefaultWorkerMultiplier, Workers(-1))
}

func TestProcessingErrors(t *testing.T) {
	var nilErrs *ProcessingErrors
	assert.False(t, nilErrs.HasErrors())
	assert.Equal(t, 0, nilErrs.Len())

	errs := &ProcessingErrors{}
	assert.False(t, errs.HasErrors())
	assert.Equal(t, "no errors", errs.Error())

	errs.Add("a.cpp", errors.New("bad"))
	assert.True(t, errs.HasErrors())
	assert.Equal(t, "a.cpp: bad", errs.Error())

	errs.Add("b.cpp", errors.New("worse"))
	assert.Equal(t, 2, errs.Len())
	assert.Contains(t, errs.Error(), "2 files failed to process")
}
