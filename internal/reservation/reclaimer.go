package reservation

import (
	"context"
	"log"
	"time"
)

// Sweeper is the slice of Store the reclaimer needs.
type Sweeper interface {
	ReclaimExpired(ctx context.Context, now time.Time) (int, error)
}

// Reclaimer periodically returns abandoned holds to availability.  The
// sweep is best-effort and idempotent: a missed cycle only delays the
// seat becoming available again, because Confirm re-checks the deadline
// itself.  The interval is fixed and independent of any individual
// hold's duration.
type Reclaimer struct {
	store    Sweeper
	interval time.Duration
}

// NewReclaimer builds a Reclaimer sweeping the given store every
// interval.
func NewReclaimer(store Sweeper, interval time.Duration) *Reclaimer {
	return &Reclaimer{store: store, interval: interval}
}

// Run sweeps until ctx is cancelled.  Sweep failures are logged and the
// loop keeps going; the store is still consistent because every
// transition inside a sweep is atomic on its own.
func (r *Reclaimer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.store.ReclaimExpired(ctx, time.Now().UTC())
			if err != nil {
				log.Printf("reclaimer: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("reclaimer: released %d expired hold(s)", n)
			}
		}
	}
}
