package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/kasap-ot/thesis-project/internal/metrics"
	"github.com/kasap-ot/thesis-project/internal/queue"
)

// Mailer delivers a rendered email. SMTP lives behind it.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, e Email) error {
	log.WithFields(log.Fields{
		"to":      strings.Join(e.To, ","),
		"subject": e.Subject,
	}).Info("email")
	return nil
}

// Dispatcher renders queued notifications and passes them to a Mailer.
type Dispatcher struct {
	dir     Directory
	mailer  Mailer
	metrics *metrics.Metrics
}

// NewDispatcher creates a dispatcher. m may be nil.
func NewDispatcher(dir Directory, mailer Mailer, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{dir: dir, mailer: mailer, metrics: m}
}

// Run consumes messages until the channel closes. Failures are logged and
// the message is dropped.
func (d *Dispatcher) Run(ctx context.Context, messages <-chan queue.Message) {
	for msg := range messages {
		note, err := Decode(msg)
		if err != nil {
			log.WithError(err).WithField("type", msg.Type).Warn("notify: bad message")
			d.metrics.Notification(msg.Type, "malformed")
			continue
		}
		entry := log.WithFields(log.Fields{"id": note.ID, "kind": note.Kind, "offer_id": note.OfferID})
		if err := d.Dispatch(ctx, note); err != nil {
			if errors.Is(err, ErrNoRecipient) {
				entry.WithError(err).Info("notify: skipped")
				d.metrics.Notification(string(note.Kind), "skipped")
				continue
			}
			entry.WithError(err).Error("notify: delivery failed")
			d.metrics.Notification(string(note.Kind), "failed")
			continue
		}
		entry.Debug("notify: delivered")
		d.metrics.Notification(string(note.Kind), "delivered")
	}
}

// Dispatch delivers one notification.
func (d *Dispatcher) Dispatch(ctx context.Context, note Notification) error {
	field, err := d.dir.OfferField(ctx, note.OfferID)
	if err != nil {
		return err
	}
	var to []string
	switch note.Kind {
	case KindNewApplicant, KindApplicantCancelled:
		email, err := d.dir.CompanyEmail(ctx, note.OfferID)
		if err != nil {
			return err
		}
		to = []string{email}
	case KindStatusChanged:
		if len(note.StudentIDs) == 0 {
			return fmt.Errorf("status change without students: %w", ErrNoRecipient)
		}
		if to, err = d.dir.StudentEmails(ctx, note.StudentIDs); err != nil {
			return err
		}
	}
	subject, body, err := render(note.Kind, field, note.Status)
	if err != nil {
		return err
	}
	return d.mailer.Send(ctx, Email{To: to, Subject: subject, Body: body})
}
