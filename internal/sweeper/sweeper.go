// Package sweeper periodically deletes stamps that have aged out of every
// read window.
package sweeper

import (
	"context"
	"log"
	"time"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultHorizon  = time.Minute

	purgeTimeout = 10 * time.Second
)

type StampPurger interface {
	PurgeStamps(ctx context.Context, before time.Time) (int64, error)
}

type Sweeper struct {
	log      *log.Logger
	purger   StampPurger
	interval time.Duration
	horizon  time.Duration
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(logger *log.Logger, purger StampPurger, interval, horizon time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if horizon <= 0 {
		horizon = DefaultHorizon
	}

	return &Sweeper{
		log:      logger,
		purger:   purger,
		interval: interval,
		horizon:  horizon,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run sweeps on every tick until Shutdown is called.
func (sw *Sweeper) Run() {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sw.sweep()
		case <-sw.stop:
			sw.log.Println("stopping stamp sweeper")
			close(sw.done)
			return
		}
	}
}

func (sw *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := sw.purger.PurgeStamps(ctx, sw.now().Add(-sw.horizon))
	if err != nil {
		sw.log.Printf("purge stamps: %v", err)
		return
	}
	if n > 0 {
		sw.log.Printf("purged %d stamps", n)
	}
}

func (sw *Sweeper) Shutdown() {
	close(sw.stop)
	<-sw.done
}
