// Package mailer submits contact-form messages over SMTP. A missing
// configuration degrades to a typed error the web layer maps to a 503; it is
// never a reason to crash the process.
package mailer

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
	"github.com/wneessen/go-mail"

	"github.com/goliatone/careerpilot"
)

// ErrNotConfigured is returned when the mailer has no SMTP credentials.
var ErrNotConfigured = errors.New("email service not configured", errors.CategoryOperation).
	WithTextCode(careerpilot.TextCodeMailerNotConfigured)

// Config holds the SMTP submission settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Configured reports whether credentials are present.
func (c Config) Configured() bool {
	return c.Username != "" && c.Password != ""
}

// Mailer sends contact-form mail.
type Mailer struct {
	cfg    Config
	logger careerpilot.Logger
}

// New returns a Mailer.
func New(cfg Config, logger careerpilot.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// SendContactMessage delivers the visitor's message to the site owner and
// sends a best-effort confirmation copy back to the visitor. A failed
// confirmation never fails the submission.
func (m *Mailer) SendContactMessage(ctx context.Context, name, email, message string) error {
	if !m.cfg.Configured() {
		return ErrNotConfigured
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithSSL(),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "could not configure smtp client")
	}

	owner, err := m.composeOwnerMessage(name, email, message)
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(ctx, owner); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "could not deliver contact message")
	}

	if confirmation, err := m.composeConfirmation(name, email); err == nil {
		if err := client.DialAndSendWithContext(ctx, confirmation); err != nil {
			m.logger.Error("confirmation email failed: %v", err)
		}
	}

	return nil
}

func (m *Mailer) composeOwnerMessage(name, email, message string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat("CareerPilot", m.cfg.Username); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "invalid sender address")
	}
	if err := msg.To(m.cfg.Username); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "invalid owner address")
	}
	if err := msg.ReplyTo(email); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid reply address")
	}

	msg.Subject(fmt.Sprintf("New contact form message from %s", name))
	msg.SetBodyString(mail.TypeTextPlain,
		fmt.Sprintf("Name: %s\nEmail: %s\n\n%s", name, email, message))

	return msg, nil
}

func (m *Mailer) composeConfirmation(name, email string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat("CareerPilot", m.cfg.Username); err != nil {
		return nil, err
	}
	if err := msg.To(email); err != nil {
		return nil, err
	}

	msg.Subject("We received your message!")
	msg.SetBodyString(mail.TypeTextPlain,
		fmt.Sprintf("Hi %s,\n\nThank you for reaching out! We have received your message and will get back to you soon.\n\nBest regards,\nThe CareerPilot Team", name))

	return msg, nil
}
