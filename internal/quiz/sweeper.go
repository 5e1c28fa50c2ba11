package quiz

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically abandons in-progress attempts whose deadline has
// passed, so a closed browser tab cannot hold a timed exam open forever.
type Sweeper struct {
	store Store
	c     *cron.Cron
}

// NewSweeper schedules a sweep on the given cron spec (default: every
// minute).
func NewSweeper(store Store, spec string) (*Sweeper, error) {
	if spec == "" {
		spec = "@every 1m"
	}
	s := &Sweeper{store: store, c: cron.New()}
	if _, err := s.c.AddFunc(spec, s.sweep); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := s.store.ExpireOverdueAttempts(ctx, time.Now().Unix())
	if err != nil {
		log.Printf("attempt sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("attempt sweep: abandoned %d overdue attempts", n)
	}
}

func (s *Sweeper) Start() { s.c.Start() }
func (s *Sweeper) Stop()  { s.c.Stop() }
