// Package notify turns booking events into emails, push notifications and SMS.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Email is a rendered HTML email.
type Email struct {
	To       string
	Name     string
	Subject  string
	Template string
	Body     string
}

// Push is a push notification to one or more users.
type Push struct {
	UserIDs                 []int64
	JobID                   int64
	Data                    map[string]string
	Message                 string
	Sound                   string
	DelayUntilBusinessHours bool
	// SendAfter is set when DelayUntilBusinessHours is true.
	SendAfter time.Time
}

// SMS is a text message to one number.
type SMS struct {
	To      string
	Message string
}

type EmailSender interface {
	SendEmail(ctx context.Context, e Email) error
}

type PushSender interface {
	SendPush(ctx context.Context, p Push) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, s SMS) error
}

// Notifier delivers on every channel.
type Notifier interface {
	EmailSender
	PushSender
	SMSSender
}

// Channels combines one transport per channel into a Notifier.
type Channels struct {
	Email EmailSender
	Push  PushSender
	SMS   SMSSender
}

func (c Channels) SendEmail(ctx context.Context, e Email) error { return c.Email.SendEmail(ctx, e) }
func (c Channels) SendPush(ctx context.Context, p Push) error   { return c.Push.SendPush(ctx, p) }
func (c Channels) SendSMS(ctx context.Context, s SMS) error     { return c.SMS.SendSMS(ctx, s) }

// Error is a delivery failure. Temporary failures may succeed when retried.
type Error struct {
	Channel   string
	Temporary bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s notification failed: %v", e.Channel, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTemporary reports whether err contains a temporary delivery failure.
func IsTemporary(err error) bool {
	var ne *Error
	return errors.As(err, &ne) && ne.Temporary
}
