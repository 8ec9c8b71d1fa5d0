package transcription

import (
	"math"
	"sync"
)

// progressReporter hands progress values to a callback from its own goroutine
// so a slow callback never stalls decoding. Values are clamped to [0,1] and
// only increasing values are delivered. A lagging callback skips intermediate
// values but always sees the latest one.
type progressReporter struct {
	total    float64
	last     float64
	disabled bool

	mu      sync.Mutex
	pending float64
	has     bool

	signal chan struct{}
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newProgressReporter(total float64, cb func(float64)) *progressReporter {
	r := &progressReporter{total: total, last: -1}
	if total <= 0 || cb == nil {
		r.disabled = true
		return r
	}

	r.signal = make(chan struct{}, 1)
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		for {
			select {
			case <-r.signal:
				r.deliver(cb)
			case <-r.stop:
				r.deliver(cb)
				return
			}
		}
	}()
	return r
}

// Report records that decoding reached position seconds
func (r *progressReporter) Report(position float64) {
	if r.disabled {
		return
	}
	p := position / r.total
	p = math.Max(0, math.Min(1, p))
	if p <= r.last {
		return
	}
	r.last = p

	r.mu.Lock()
	r.pending, r.has = p, true
	r.mu.Unlock()

	select {
	case r.signal <- struct{}{}:
	default:
	}
}

func (r *progressReporter) deliver(cb func(float64)) {
	r.mu.Lock()
	p, ok := r.pending, r.has
	r.has = false
	r.mu.Unlock()
	if ok {
		cb(p)
	}
}

// Close flushes the pending value and waits for the callback goroutine
func (r *progressReporter) Close() {
	if r.disabled {
		return
	}
	r.once.Do(func() {
		close(r.stop)
		<-r.done
	})
}
