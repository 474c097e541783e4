// Package worker holds the background jobs run by cmd/worker.
package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Purger removes records whose retention has passed and reports how many.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically purges expired sessions and audit events. It is the
// fallback for stores without native TTL eviction.
type Sweeper struct {
	targets map[string]Purger
	log     logrus.FieldLogger
}

func NewSweeper(log logrus.FieldLogger) *Sweeper {
	return &Sweeper{targets: make(map[string]Purger), log: log}
}

func (s *Sweeper) Add(name string, p Purger) *Sweeper {
	s.targets[name] = p
	return s
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) {
	for name, p := range s.targets {
		n, err := p.PurgeExpired(ctx)
		if err != nil {
			s.log.WithError(err).WithField("target", name).Warn("sweep failed")
			continue
		}
		if n > 0 {
			s.log.WithFields(logrus.Fields{"target": name, "removed": n}).Info("sweep completed")
		}
	}
}
