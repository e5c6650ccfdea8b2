// Package notify emails users about check-ins attributed to them through
// their check-in aliases.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/mailprefs/internal/mailer"
	"github.com/mailprefs/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrSMTPDisabled is returned by Dispatch when the server cannot send mail.
var ErrSMTPDisabled = errors.New("notify: smtp is disabled")

// Checkin is a commit seen by the build server.
type Checkin struct {
	Pipeline string `json:"pipeline"`
	Revision string `json:"revision"`
	Author   string `json:"author"`
	Comment  string `json:"comment"`
}

type subscriberLister interface {
	ListSubscribed(ctx context.Context) ([]model.Preferences, error)
}

type enqueuer interface {
	Enabled() bool
	Enqueue(msg mailer.Message) error
}

// Dispatcher matches check-ins against subscribers and queues their mail.
type Dispatcher struct {
	prefs  subscriberLister
	queue  enqueuer
	logger *slog.Logger
}

func NewDispatcher(prefs subscriberLister, queue enqueuer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{prefs: prefs, queue: queue, logger: logger}
}

// Dispatch queues one message per subscriber whose aliases match the
// check-in author and returns how many were queued.
func (d *Dispatcher) Dispatch(ctx context.Context, c Checkin) (int, error) {
	ctx, span := otel.Tracer("github.com/mailprefs/internal/notify").Start(ctx, "notify.Dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("checkin.pipeline", c.Pipeline))

	if !d.queue.Enabled() {
		return 0, ErrSMTPDisabled
	}

	subs, err := d.prefs.ListSubscribed(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list subscribers failed")
		return 0, fmt.Errorf("list subscribers: %w", err)
	}

	queued := 0
	for _, p := range subs {
		if !ParseMatchers(p.CheckinAliases).Match(c.Author) {
			continue
		}
		to, ok := recipient(p.Email)
		if !ok {
			d.logger.Warn("notify: skipping invalid address", "user_id", p.UserID)
			continue
		}
		if err := d.queue.Enqueue(message(to, c)); err != nil {
			d.logger.Error("notify: enqueue failed", "user_id", p.UserID, "err", err)
			continue
		}
		queued++
	}

	span.SetAttributes(attribute.Int("notify.queued", queued))
	d.logger.Info("notify: check-in dispatched", "pipeline", c.Pipeline, "revision", c.Revision, "queued", queued)
	return queued, nil
}

// recipient returns the bare address in email, or false when it cannot be
// used as an SMTP recipient.
func recipient(email string) (string, bool) {
	if strings.ContainsAny(email, "\r\n") {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", false
	}
	return addr.Address, true
}

func message(to string, c Checkin) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "A check-in matching your aliases was picked up by %s.\n\n", c.Pipeline)
	fmt.Fprintf(&b, "Revision: %s\n", c.Revision)
	fmt.Fprintf(&b, "Author:   %s\n", c.Author)
	if c.Comment != "" {
		fmt.Fprintf(&b, "\n%s\n", c.Comment)
	}
	return mailer.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("[%s] check-in %s", c.Pipeline, shortRevision(c.Revision)),
		Body:    b.String(),
	}
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
