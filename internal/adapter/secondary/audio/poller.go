package audio

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"volume-bridge/internal/domain"
)

// Poller implements domain.BroadcastSource for services without change
// notifications. It reads every stream on each tick and broadcasts when any
// level differs from the previous tick.
type Poller struct {
	receiverSet

	service  domain.AudioService
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	last    map[domain.Stream]int
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPoller creates a poller over service.
func NewPoller(service domain.AudioService, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{
		service:  service,
		logger:   logger,
		interval: interval,
	}
}

// Start begins polling until ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.last = p.read()
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.loop(ctx, stop, done)
	p.logger.Debug("volume poller started", "interval", p.interval)
}

// Stop stops polling and waits for the loop to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	<-done
	p.logger.Debug("volume poller stopped")
}

func (p *Poller) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			p.Check()
		}
	}
}

// Check reads all streams once and broadcasts if anything changed.
func (p *Poller) Check() {
	current := p.read()

	p.mu.Lock()
	changed := !maps.Equal(p.last, current)
	p.last = current
	p.mu.Unlock()

	if changed {
		p.logger.Debug("volume change detected")
		p.broadcast()
	}
}

func (p *Poller) read() map[domain.Stream]int {
	levels := make(map[domain.Stream]int, len(domain.StreamKinds))
	for _, kind := range domain.StreamKinds {
		stream := domain.ResolveStream(string(kind))
		level, err := p.service.StreamVolume(stream)
		if err != nil {
			p.logger.Warn("poll stream volume", "stream", stream.String(), "error", err)
			continue
		}
		levels[stream] = level
	}
	return levels
}
