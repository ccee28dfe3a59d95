package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kestiv/internal/logger"
	"kestiv/internal/membership"
	"kestiv/internal/metrics"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	window     = membership.ExpiringSoonDays * 24 * time.Hour
	runTimeout = 5 * time.Minute
)

type Finder interface {
	ListExpiring(ctx context.Context, from, to time.Time) ([]membership.ExpiringMember, error)
	MarkReminded(ctx context.Context, businessID, memberID uuid.UUID, expiresAt time.Time) error
}

type Sender interface {
	SendExpiryReminder(ctx context.Context, to, name, businessName, planName string, expiresAt time.Time, daysLeft int) error
}

// Report summarises one sweep.
type Report struct {
	Candidates int
	Queued     int
	Failed     int
}

// Job sweeps every tenant for subscriptions expiring within the reminder
// window and queues one email per member and expiry date.
type Job struct {
	finder   Finder
	sender   Sender
	schedule string
	cron     *cron.Cron
	now      func() time.Time

	stopOnce sync.Once
}

func New(finder Finder, sender Sender, schedule string) (*Job, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}
	return &Job{
		finder:   finder,
		sender:   sender,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		now:      time.Now,
	}, nil
}

// Start registers the sweep and runs the scheduler until ctx is done.
func (j *Job) Start(ctx context.Context) error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()
		if _, err := j.Run(runCtx); err != nil {
			logger.Error("reminder sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	logger.Info("reminder job started", "schedule", j.schedule)

	go func() {
		<-ctx.Done()
		j.Stop()
	}()
	return nil
}

// Stop waits for a running sweep to finish. Safe to call more than once.
func (j *Job) Stop() {
	j.stopOnce.Do(func() {
		<-j.cron.Stop().Done()
		logger.Info("reminder job stopped")
	})
}

// Run performs a single sweep. A failed send is counted and skipped.
func (j *Job) Run(ctx context.Context) (Report, error) {
	now := j.now().UTC()

	candidates, err := j.finder.ListExpiring(ctx, now, now.Add(window))
	if err != nil {
		metrics.RecordReminderRun("error")
		return Report{}, err
	}

	report := Report{Candidates: len(candidates)}
	for _, m := range candidates {
		if m.Email == nil || m.ExpiresAt == nil {
			continue
		}

		planName := ""
		if m.PlanName != nil {
			planName = *m.PlanName
		}

		err := j.sender.SendExpiryReminder(ctx, *m.Email, m.Name, m.BusinessName, planName,
			*m.ExpiresAt, membership.DaysLeft(*m.ExpiresAt, now))
		if err != nil {
			report.Failed++
			logger.Warn("failed to queue expiry reminder", "member_id", m.ID, "error", err)
			continue
		}
		report.Queued++

		if err := j.finder.MarkReminded(ctx, m.BusinessID, m.ID, *m.ExpiresAt); err != nil {
			logger.Warn("failed to mark member reminded", "member_id", m.ID, "error", err)
		}
	}

	outcome := "ok"
	if report.Failed > 0 {
		outcome = "partial"
	}
	metrics.RecordReminderRun(outcome)
	logger.Info("reminder sweep finished",
		"candidates", report.Candidates, "queued", report.Queued, "failed", report.Failed)

	return report, nil
}
