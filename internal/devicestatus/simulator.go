package devicestatus

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Simulator flips the connection flag on a fixed interval. It exists for
// demos without a physical device; production deployments leave it off.
type Simulator struct {
	ch       *Channel
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewSimulator creates a stopped simulator over the given channel.
func NewSimulator(ch *Channel, interval time.Duration) *Simulator {
	return &Simulator{
		ch:       ch,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins toggling in a background goroutine.
func (s *Simulator) Start() {
	log.Info().Dur("interval", s.interval).Msg("Device status simulator started")
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.ch.Publish(!s.ch.Connected())
			}
		}
	}()
}

// Stop halts the simulator. Safe to call more than once.
func (s *Simulator) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
