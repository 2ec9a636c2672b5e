package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	samples []Sample
}

func (r *recorder) Publish(s Sample) {
	r.samples = append(r.samples, s)
}

func assertMonotonic(t *testing.T, samples []Sample) {
	t.Helper()
	for i := 1; i < len(samples); i++ {
		assert.GreaterOrEqual(t, samples[i].Stage, samples[i-1].Stage, "stage regressed at %d", i)
	}
}

func TestChannelLatestWins(t *testing.T) {
	c := NewChannel()
	for i := 1; i <= 10; i++ {
		c.Publish(Sample{Stage: float64(i) / 10})
	}
	c.Close()

	var got []Sample
	for s := range c.C() {
		got = append(got, s)
	}
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Stage, 1e-9)
	assert.Equal(t, uint64(9), c.Dropped())
}

func TestChannelNeverBlocks(t *testing.T) {
	c := NewChannel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100000; i++ {
			c.Publish(Sample{Stage: 0.5})
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked without a reader")
	}
}

func TestChannelPublishAfterClose(t *testing.T) {
	c := NewChannel()
	c.Close()
	c.Close()
	assert.NotPanics(t, func() {
		c.Publish(Sample{Stage: 1})
	})
}

func TestForward(t *testing.T) {
	c := NewChannel()
	var (
		mu  sync.Mutex
		got []Sample
		wg  sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		Forward(c.C(), ObserverFunc(func(s Sample) {
			mu.Lock()
			got = append(got, s)
			mu.Unlock()
		}))
	}()

	tr := NewTracker(c, 2)
	for i := 0; i <= 100; i++ {
		tr.Update(float64(i) / 100)
	}
	tr.Advance()
	tr.Update(0.5)
	tr.Finish()
	c.Close()
	wg.Wait()

	require.NotEmpty(t, got)
	assertMonotonic(t, got)
	assert.Equal(t, Sample{Stage: 1, SubStage: 1}, got[len(got)-1])
}

func TestTrackerStages(t *testing.T) {
	r := &recorder{}
	tr := NewTracker(r, 2)

	tr.Update(0)
	tr.Update(0.5)
	tr.Advance()
	tr.UpdateBytes(25, 100)
	tr.Finish()

	assert.Equal(t, []Sample{
		{Stage: 0, SubStage: 0},
		{Stage: 0.25, SubStage: 0.5},
		{Stage: 0.5, SubStage: 0},
		{Stage: 0.625, SubStage: 0.25},
		{Stage: 1, SubStage: 1},
	}, r.samples)
}

func TestTrackerClamps(t *testing.T) {
	r := &recorder{}
	tr := NewTracker(r, 1)

	tr.Update(0.6)
	tr.Update(0.3)
	tr.Update(1.7)
	tr.Update(-1)

	assertMonotonic(t, r.samples)
	for _, s := range r.samples {
		assert.Less(t, s.Stage, 1.0)
		assert.LessOrEqual(t, s.SubStage, 1.0)
	}
	assert.False(t, tr.Last().Done())

	tr.Finish()
	assert.True(t, tr.Last().Done())
}

func TestTrackerUnknownTotal(t *testing.T) {
	r := &recorder{}
	tr := NewTracker(r, 1)
	tr.UpdateBytes(10, 0)
	assert.Empty(t, r.samples)
}
