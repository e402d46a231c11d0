package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultCronSpec fires the check-in broadcast every Monday at 09:00 UTC.
const DefaultCronSpec = "0 9 * * 1"

// Notifier sends the check-in prompt to a single recipient.
type Notifier interface {
	SendCheckIn(userID int64) error
}

// UserSource enumerates the recipients of a broadcast cycle.
type UserSource interface {
	All() []int64
}

// Scheduler runs the weekly check-in broadcast independently of the
// message-handling path.
type Scheduler struct {
	scheduler *gocron.Scheduler
	users     UserSource
	notifier  Notifier
	cronSpec  string
}

// New creates a new scheduler instance. An empty cronSpec falls back to the
// Monday 09:00 UTC default.
func New(users UserSource, notifier Notifier, cronSpec string) *Scheduler {
	if cronSpec == "" {
		cronSpec = DefaultCronSpec
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		users:     users,
		notifier:  notifier,
		cronSpec:  cronSpec,
	}
}

// Start registers the broadcast job and begins running it in the background.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Cron(s.cronSpec).Do(s.runCycle)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// runCycle is the job body. A panic here must not take down the rest of the
// service; message handling keeps working even if broadcasting is degraded.
func (s *Scheduler) runCycle() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Broadcast cycle panicked: %v", r)
		}
	}()
	s.RunBroadcast()
}

// RunBroadcast sends the check-in prompt to every registered user. Failures
// are per-recipient: the cycle always attempts the full snapshot. Also used
// by the admin /broadcast command.
func (s *Scheduler) RunBroadcast() (sent, failed int) {
	ids := s.users.All()
	log.Printf("Starting broadcast cycle for %d users", len(ids))

	for _, id := range ids {
		if err := s.notifier.SendCheckIn(id); err != nil {
			log.Printf("Failed to send check-in to user %d: %v", id, err)
			failed++
			continue
		}
		sent++
	}

	log.Printf("Broadcast cycle finished: %d sent, %d failed", sent, failed)
	return sent, failed
}
