// Package jobs contains implementations of scheduled background jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/speakably/speakably-backend/internal/domain/learner"
	"github.com/speakably/speakably-backend/internal/domain/notification"
	"github.com/speakably/speakably-backend/pkg/logger"
	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY REMINDER JOB
// ══════════════════════════════════════════════════════════════════════════════

// DailyReminderJob sweeps learners with reminders enabled and nudges the
// ones who have not reached their daily goal yet. A learner gets at most
// one reminder per UTC day; the sweep runs frequently and delivers close
// to each learner's preferred clock time.
type DailyReminderJob struct {
	profiles      learner.Repository
	notifications notification.Repository
	sink          notification.Sink
	log           *logger.Logger
	config        DailyReminderConfig

	now func() time.Time
}

// DailyReminderConfig contains configuration for the reminder job.
type DailyReminderConfig struct {
	// Window is how far from the preferred reminder time a sweep may
	// still deliver. Must cover the sweep interval or reminders get
	// skipped.
	Window time.Duration

	// Timeout bounds a single sweep.
	Timeout time.Duration
}

// DefaultDailyReminderConfig returns sensible defaults.
func DefaultDailyReminderConfig() DailyReminderConfig {
	return DailyReminderConfig{
		Window:  15 * time.Minute,
		Timeout: 2 * time.Minute,
	}
}

// NewDailyReminderJob creates a new daily reminder job.
func NewDailyReminderJob(
	profiles learner.Repository,
	notifications notification.Repository,
	sink notification.Sink,
	log *logger.Logger,
	config DailyReminderConfig,
) *DailyReminderJob {
	if log == nil {
		log = logger.Default()
	}
	if config.Window <= 0 {
		config.Window = 15 * time.Minute
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}

	return &DailyReminderJob{
		profiles:      profiles,
		notifications: notifications,
		sink:          sink,
		log:           log.With(logger.String("job", "daily_reminder")),
		config:        config,
		now:           timeutil.Now,
	}
}

func (j *DailyReminderJob) Name() string { return "daily_reminder" }

func (j *DailyReminderJob) Description() string {
	return "Reminds learners who have not reached their daily goal"
}

// Run executes one reminder sweep.
func (j *DailyReminderJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	now := j.now()
	today := timeutil.StartOfDay(now)

	candidates, err := j.profiles.FindReminderCandidates(ctx)
	if err != nil {
		return fmt.Errorf("daily reminder: find candidates: %w", err)
	}

	var sent, skipped int
	for _, profile := range candidates {
		ok, err := j.remind(ctx, profile, now, today)
		if err != nil {
			j.log.Warn("reminder failed",
				logger.String("user_id", profile.UserID),
				logger.Err(err),
			)
			continue
		}
		if ok {
			sent++
		} else {
			skipped++
		}
	}

	j.log.Info("reminder sweep completed",
		logger.Int("candidates", len(candidates)),
		logger.Int("sent", sent),
		logger.Int("skipped", skipped),
	)

	return nil
}

// remind sends a reminder to one learner if all gates pass. Returns
// true only when a notification was actually created.
func (j *DailyReminderJob) remind(ctx context.Context, profile *learner.Profile, now, today time.Time) (bool, error) {
	if !profile.Preferences.DailyReminder {
		return false, nil
	}

	hour, minute, err := timeutil.ParseClock(profile.Preferences.ReminderTime)
	if err != nil {
		// Bad stored value; fall back to the default slot.
		hour, minute, _ = timeutil.ParseClock(learner.DefaultReminderTime)
	}
	if !timeutil.WithinClockWindow(now, hour, minute, j.config.Window) {
		return false, nil
	}

	// Goal already met today: nothing to nudge about.
	if profile.EffectiveDailyGoalCompleted(today) >= profile.DailyGoalTarget {
		return false, nil
	}

	// One reminder per day.
	exists, err := j.notifications.ExistsSince(ctx, profile.UserID, notification.TypeDailyReminder, today)
	if err != nil {
		return false, fmt.Errorf("check existing reminder: %w", err)
	}
	if exists {
		return false, nil
	}

	n, err := notification.NewDailyReminder(uuid.New().String(), profile.UserID)
	if err != nil {
		return false, fmt.Errorf("build reminder: %w", err)
	}

	if err := j.notifications.Create(ctx, n); err != nil {
		return false, fmt.Errorf("persist reminder: %w", err)
	}

	if j.sink != nil {
		if err := j.sink.Deliver(ctx, n); err != nil {
			// Delivery is best effort; the in-app notification exists.
			j.log.Warn("reminder delivery failed",
				logger.String("user_id", profile.UserID),
				logger.Err(err),
			)
		}
	}

	return true, nil
}
