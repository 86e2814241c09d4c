package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler wraps gocron behind the small interface the update manager
// needs. Jobs are tagged by name so they can be replaced or removed.
type Scheduler struct {
	s *gocron.Scheduler
}

// NewScheduler creates and starts a background scheduler.
func NewScheduler() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	s.StartAsync()
	log.Println("Starting background job scheduler...")
	return &Scheduler{s: s}
}

// Every schedules a task to run on a fixed interval under the given
// name. Scheduling a name again replaces the previous job.
func (sc *Scheduler) Every(interval time.Duration, name string, task func()) error {
	sc.s.RemoveByTag(name)
	_, err := sc.s.Every(interval).Tag(name).Do(func() {
		log.Printf("Scheduler is triggering job: %s", name)
		task()
	})
	return err
}

// Remove unschedules the named job.
func (sc *Scheduler) Remove(name string) error {
	return sc.s.RemoveByTag(name)
}

// Stop halts the scheduler and all pending jobs.
func (sc *Scheduler) Stop() {
	sc.s.Stop()
}
