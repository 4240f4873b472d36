package service

import (
	"context"
	"sync"
	"time"

	"reflowctl/internal/logger"
	"reflowctl/internal/models"
)

// DefaultPollInterval matches the station UI's 300 ms refresh.
const DefaultPollInterval = 300 * time.Millisecond

// Statuser is the slice of the session the poller needs.
type Statuser interface {
	Status(ctx context.Context) (models.TelemetrySample, error)
}

// Subscriber receives every published sample, synchronously and in publish
// order. Callbacks must be quick; they run on the poll goroutine.
type Subscriber func(models.TelemetrySample)

type subscription struct {
	id int
	fn Subscriber
}

// Poller is the background loop issuing periodic status requests and fanning
// samples out to subscribers. A failed poll publishes nothing and is not
// retried with backoff; the loop just waits out the interval. Only Stop
// terminates it.
type Poller struct {
	session  Statuser
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	subs    []subscription
	nextID  int
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewPoller(session Statuser, interval time.Duration, log *logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{session: session, interval: interval, log: log}
}

// Subscribe registers fn and returns its unsubscribe func.
func (p *Poller) Subscribe(fn Subscriber) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.subs = append(p.subs, subscription{id: id, fn: fn})

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, sub := range p.subs {
			if sub.id == id {
				p.subs = append(p.subs[:i], p.subs[i+1:]...)
				return
			}
		}
	}
}

// Start launches the loop. No-op when already running.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.running = true
	go p.run(ctx, done)
}

// Stop halts the loop and waits for it to exit, bounded by the transport
// timeout ceiling. After Stop returns no further samples are published; an
// in-flight request may complete but its result is discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.running = false
	p.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		sample, err := p.session.Status(ctx)
		if ctx.Err() != nil {
			return // stopped mid-request; discard the result
		}
		if err != nil {
			// Designed partial-failure policy: a momentary miss must not
			// abort monitoring, so this tick simply produces no sample.
			p.log.Debugw("poll_missed", "err", err)
		} else {
			p.publish(sample)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) publish(sample models.TelemetrySample) {
	p.mu.Lock()
	subs := make([]subscription, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, sub := range subs {
		sub.fn(sample)
	}
}
