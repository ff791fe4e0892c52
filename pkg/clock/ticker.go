package clock

import (
	"sync"
	"time"
)

// Ticker raises periodic elapsed signals to a subscribed handler. Start and
// Stop are idempotent and a stopped ticker can be started again.
type Ticker interface {
	Start()
	Stop()
}

// TickerFactory builds a ticker firing onElapsed every interval. With
// autoRepeat false the ticker fires once per Start and disarms itself.
type TickerFactory func(interval time.Duration, autoRepeat bool, onElapsed func()) Ticker

// DefaultTickerFactory builds wall-clock interval tickers.
var DefaultTickerFactory TickerFactory = func(interval time.Duration, autoRepeat bool, onElapsed func()) Ticker {
	return NewIntervalTicker(interval, autoRepeat, onElapsed)
}

// IntervalTicker drives onElapsed from a time.Ticker in a dedicated
// goroutine. A handler invocation in flight when Stop is called may still
// complete; subscribers are expected to guard against late pulses.
type IntervalTicker struct {
	interval   time.Duration
	autoRepeat bool
	onElapsed  func()

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewIntervalTicker(interval time.Duration, autoRepeat bool, onElapsed func()) *IntervalTicker {
	return &IntervalTicker{
		interval:   interval,
		autoRepeat: autoRepeat,
		onElapsed:  onElapsed,
	}
}

func (t *IntervalTicker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}
	t.running = true
	t.stopCh = make(chan struct{})

	go t.run(t.stopCh)
}

func (t *IntervalTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	t.running = false
	close(t.stopCh)
}

func (t *IntervalTicker) run(stopCh chan struct{}) {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-tk.C:
			t.onElapsed()
			if !t.autoRepeat {
				t.Stop()
				return
			}
		}
	}
}
