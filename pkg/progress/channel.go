package progress

import (
	"sync/atomic"

	"github.com/foomo/discstorage/pkg/metrics"
)

// Channel carries samples from one producer to one consumer. Publish never
// blocks: a sample the consumer has not picked up yet is replaced by the newer
// one, so the consumer always sees the latest state.
type Channel struct {
	c       chan Sample
	dropped atomic.Uint64
	closed  atomic.Bool
}

func NewChannel() *Channel {
	return &Channel{
		c: make(chan Sample, 1),
	}
}

// C returns the receive side. It is closed once the producer is finished.
func (c *Channel) C() <-chan Sample {
	return c.c
}

// Publish offers s to the consumer and must only be called by the producer.
func (c *Channel) Publish(s Sample) {
	if c.closed.Load() {
		return
	}
	for {
		select {
		case c.c <- s:
			return
		default:
		}
		select {
		case <-c.c:
			c.dropped.Add(1)
			metrics.ProgressSamplesDropped.WithLabelValues().Inc()
		default:
		}
	}
}

// Dropped returns the number of samples replaced before they were read.
func (c *Channel) Dropped() uint64 {
	return c.dropped.Load()
}

// Close ends the stream. The last published sample stays readable.
func (c *Channel) Close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.c)
	}
}

// Forward delivers every sample read from ch to o until ch is closed.
func Forward(ch <-chan Sample, o Observer) {
	for s := range ch {
		o.Observe(s)
	}
}
