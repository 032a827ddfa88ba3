package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/heatgrid-dss/sizing-backend/internal/costbook"
)

type Scheduler struct {
	fetcher *costbook.Fetcher
	store   *costbook.Store
	cron    *cron.Cron
}

func NewScheduler(fetcher *costbook.Fetcher, store *costbook.Store) *Scheduler {
	return &Scheduler{fetcher: fetcher, store: store}
}

// Start schedules the nightly price refresh (12:00 AM).
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc("0 0 0 * * *", func() {
		s.refresh()
	})
	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (cost catalog refresh nightly at 12:00AM)")
	c.Start()
	s.cron = c
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) refresh() {
	log.Println("Nightly cost catalog refresh started...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := costbook.Refresh(ctx, s.fetcher, s.store)
	if err != nil {
		log.Printf("Cost catalog refresh failed: %v", err)
		return
	}
	log.Printf("Cost catalog refresh finished (%d rows)", n)
}
