package claim

import (
	"context"
	"log"
	"time"
)

// Sweeper actively expires stale holds in the background. Expiry is also
// enforced lazily on every read and write, so the sweeper's only job is
// to get the freed slots broadcast to watchers promptly.
type Sweeper struct {
	service  Service
	interval time.Duration
}

func NewSweeper(service Service, interval time.Duration) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
	}
}

// Run sweeps until ctx is cancelled. Blocking; callers run it in a goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.service.ExpireStaleHolds(ctx)
			if err != nil {
				log.Printf("hold sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("expired %d stale hold(s)", n)
			}
		}
	}
}
