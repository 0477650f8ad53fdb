package infra

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"paperledger/internal/domain"
)

// Scheduler refreshes the instrument catalog out-of-band so the export path
// always has a recent copy without blocking requests on a download.
type Scheduler struct {
	cron     *cron.Cron
	catalog  domain.InstrumentCatalog
	cronSpec string
}

// NewScheduler creates a new scheduler
func NewScheduler(catalog domain.InstrumentCatalog, cronSpec string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		catalog:  catalog,
		cronSpec: cronSpec,
	}
}

// Start registers the catalog refresh job and starts the cron loop
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cronSpec, func() {
		if err := s.RunNow(); err != nil {
			log.Printf("ERROR: Scheduled catalog refresh failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("[OK] Catalog refresh scheduled: %s", s.cronSpec)

	// First fetch runs off the startup path so boot never blocks on the
	// upstream download.
	go func() {
		if err := s.RunNow(); err != nil {
			log.Printf("[WARN] Initial catalog refresh failed: %v", err)
		}
	}()
	return nil
}

// RunNow performs one catalog refresh immediately
func (s *Scheduler) RunNow() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	return s.catalog.Refresh(ctx)
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[OK] Scheduler stopped")
}
