package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/booking/eligibility"
	"github.com/cuongbtq/booking-core/internal/booking/transition"
)

// Directory is the read side of the booking store needed to address notifications.
type Directory interface {
	GetJob(ctx context.Context, id int64) (*domain.Job, error)
	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
	ListTranslators(ctx context.Context) ([]domain.User, error)
	BlacklistFor(ctx context.Context, customerID int64) ([]int64, error)
	LanguageName(ctx context.Context, id int64) (string, error)
}

// Config holds dispatcher settings
type Config struct {
	Location *time.Location
	// Night window in local hours; the window wraps midnight when start > end.
	NightStartHour int
	NightEndHour   int
	Logger         *slog.Logger
	Now            func() time.Time
}

// Dispatcher resolves the recipients of an event and hands deliveries to a Notifier.
type Dispatcher struct {
	dir      Directory
	notifier Notifier
	loc      *time.Location
	night    [2]int
	logger   *slog.Logger
	now      func() time.Time
}

func NewDispatcher(dir Directory, notifier Notifier, cfg *Config) *Dispatcher {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		dir:      dir,
		notifier: notifier,
		loc:      loc,
		night:    [2]int{cfg.NightStartHour, cfg.NightEndHour},
		logger:   logger,
		now:      now,
	}
}

// Dispatch delivers one event. Transport failures are returned as *Error values.
func (d *Dispatcher) Dispatch(ctx context.Context, e domain.Event) error {
	job, err := d.dir.GetJob(ctx, e.JobID)
	if err != nil {
		return fmt.Errorf("failed to load job %d: %w", e.JobID, err)
	}
	language, err := d.dir.LanguageName(ctx, job.FromLanguageID)
	if err != nil {
		return fmt.Errorf("failed to load language: %w", err)
	}

	switch e.Kind {
	case domain.EventSuitableJob:
		return d.suitablePush(ctx, e, job, language)
	case domain.EventSuitableJobSMS:
		return d.suitableSMS(ctx, e, job)
	case domain.EventSessionStartReminder:
		return d.pushTo(ctx, e, job, sessionReminderPush(job, language, d.loc), "")
	case domain.EventFeedbackRequested:
		return d.pushTo(ctx, e, job, feedbackPush(job), "")
	}
	return d.email(ctx, e, job, language)
}

func (d *Dispatcher) email(ctx context.Context, e domain.Event, job *domain.Job, language string) error {
	user, err := d.dir.FindUserByID(ctx, e.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to load recipient: %w", err)
	}

	data := templateData{
		Name:        user.Name,
		JobID:       job.ID,
		Language:    language,
		Due:         job.Due.In(d.loc).Format(dueLayout),
		Duration:    job.Duration,
		Town:        job.Town,
		Role:        e.Data[domain.DataRole],
		OldStatus:   e.Data[domain.DataOldStatus],
		NewStatus:   e.Data[domain.DataNewStatus],
		SessionTime: transition.HumanSessionTime(e.Data[domain.DataSessionTime]),
		ForText:     e.Data[domain.DataForText],
	}
	switch e.Kind {
	case domain.EventDueChanged:
		data.OldValue = d.formatTime(e.Data[domain.DataOldDue])
	case domain.EventLanguageChanged:
		data.OldValue = d.languageName(ctx, e.Data[domain.DataOldLanguageID])
	}

	subject, body, err := renderEmail(e.Kind, data)
	if err != nil {
		return err
	}

	to := user.Email
	if user.ID == job.UserID && job.UserEmail != "" {
		to = job.UserEmail
	}
	if err := d.notifier.SendEmail(ctx, Email{
		To:       to,
		Name:     user.Name,
		Subject:  subject,
		Template: string(e.Kind),
		Body:     body,
	}); err != nil {
		return d.failed(e, "email", err)
	}

	d.logger.Info("Email sent",
		slog.String("event_id", e.ID),
		slog.String("kind", string(e.Kind)),
		slog.Int64("job_id", job.ID),
		slog.Int64("recipient_id", user.ID),
	)
	return nil
}

func (d *Dispatcher) pushTo(ctx context.Context, e domain.Event, job *domain.Job, message, sound string) error {
	user, err := d.dir.FindUserByID(ctx, e.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to load recipient: %w", err)
	}
	push := d.newPush(e, job, []int64{user.ID}, message, sound, d.shouldDelay(user))
	if err := d.notifier.SendPush(ctx, push); err != nil {
		return d.failed(e, "push", err)
	}
	return nil
}

func (d *Dispatcher) suitablePush(ctx context.Context, e domain.Event, job *domain.Job, language string) error {
	translators, err := d.recipients(ctx, e, job)
	if err != nil {
		return err
	}

	var now, later []int64
	for i := range translators {
		t := &translators[i]
		if t.Meta.NotGetNotification {
			continue
		}
		if job.Immediate && t.Meta.NotGetEmergency {
			continue
		}
		if d.shouldDelay(t) {
			later = append(later, t.ID)
		} else {
			now = append(now, t.ID)
		}
	}

	message, sound := suitableJobPush(job, language, d.loc)
	var errs []error
	for _, group := range []struct {
		ids   []int64
		delay bool
	}{{now, false}, {later, true}} {
		if len(group.ids) == 0 {
			continue
		}
		if err := d.notifier.SendPush(ctx, d.newPush(e, job, group.ids, message, sound, group.delay)); err != nil {
			errs = append(errs, d.failed(e, "push", err))
		}
	}

	d.logger.Info("Suitable job announced",
		slog.Int64("job_id", job.ID),
		slog.Int("recipients", len(now)+len(later)),
		slog.Int("delayed", len(later)),
	)
	return errors.Join(errs...)
}

func (d *Dispatcher) suitableSMS(ctx context.Context, e domain.Event, job *domain.Job) error {
	translators, err := d.recipients(ctx, e, job)
	if err != nil {
		return err
	}

	town := job.Town
	if town == "" {
		if poster, err := d.dir.FindUserByID(ctx, job.UserID); err == nil {
			town = poster.Meta.City
		}
	}
	message := suitableJobSMS(job, town, d.loc)

	var errs []error
	sent := 0
	for i := range translators {
		t := &translators[i]
		if t.Mobile == "" {
			continue
		}
		if err := d.notifier.SendSMS(ctx, SMS{To: t.Mobile, Message: message}); err != nil {
			errs = append(errs, d.failed(e, "sms", err))
			continue
		}
		sent++
	}

	d.logger.Info("Suitable job sent by SMS",
		slog.Int64("job_id", job.ID),
		slog.Int("sent", sent),
	)
	return errors.Join(errs...)
}

// recipients returns the potential translators of job minus the excluded user.
func (d *Dispatcher) recipients(ctx context.Context, e domain.Event, job *domain.Job) ([]domain.User, error) {
	poster, err := d.dir.FindUserByID(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job owner: %w", err)
	}
	translators, err := d.dir.ListTranslators(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list translators: %w", err)
	}
	ids, err := d.dir.BlacklistFor(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}

	eligible := eligibility.PotentialTranslators(job, poster, translators, eligibility.NewBlacklist(ids...))
	out := eligible[:0]
	for _, t := range eligible {
		if t.ID != e.ExcludeUserID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (d *Dispatcher) newPush(e domain.Event, job *domain.Job, ids []int64, message, sound string, delay bool) Push {
	p := Push{
		UserIDs: ids,
		JobID:   job.ID,
		Data: map[string]string{
			"notification_type": string(e.Kind),
			"job_id":            strconv.FormatInt(job.ID, 10),
		},
		Message:                 message,
		Sound:                   sound,
		DelayUntilBusinessHours: delay,
	}
	if delay {
		p.SendAfter = d.nightEnds(d.now())
	}
	return p
}

func (d *Dispatcher) shouldDelay(u *domain.User) bool {
	return u.Meta.NotGetNighttime && d.isNight(d.now())
}

func (d *Dispatcher) isNight(t time.Time) bool {
	start, end := d.night[0], d.night[1]
	if start == end {
		return false
	}
	h := t.In(d.loc).Hour()
	if start > end {
		return h >= start || h < end
	}
	return h >= start && h < end
}

// nightEnds returns the first business hour after t.
func (d *Dispatcher) nightEnds(t time.Time) time.Time {
	local := t.In(d.loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), d.night[1], 0, 0, 0, d.loc)
	if !end.After(local) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

func (d *Dispatcher) formatTime(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.In(d.loc).Format(dueLayout)
}

func (d *Dispatcher) languageName(ctx context.Context, raw string) string {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw
	}
	name, err := d.dir.LanguageName(ctx, id)
	if err != nil {
		return raw
	}
	return name
}

func (d *Dispatcher) failed(e domain.Event, channel string, err error) error {
	d.logger.Warn("Failed to deliver notification",
		slog.String("event_id", e.ID),
		slog.String("kind", string(e.Kind)),
		slog.String("channel", channel),
		slog.Any("error", err),
	)
	var ne *Error
	if errors.As(err, &ne) {
		return err
	}
	return &Error{Channel: channel, Err: err}
}
