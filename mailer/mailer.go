// Package mailer composes the dispensary's outgoing emails and hands them to
// a Sender. Delivery is fire and forget; callers log failures and move on.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// DefaultSender is the From address when none is configured.
const DefaultSender = "noreply@spudispensary.spu.ac.ke"

// Message is a composed email.
type Message struct {
	Subject    string
	Sender     string
	Recipients []string
	Body       string // HTML
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures an SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPSender delivers through an SMTP relay. gomail upgrades the
// connection with STARTTLS when the server offers it (port 587).
type SMTPSender struct {
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	return &SMTPSender{dialer: d}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.Recipients) == 0 {
		return fmt.Errorf("mail %q has no recipients", msg.Subject)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.Sender)
	m.SetHeader("To", msg.Recipients...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail %q: %w", msg.Subject, err)
	}
	return nil
}

// LogSender only logs what would have been sent. Used when sending is
// suppressed and in tests.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	log.Info().
		Str("subject", msg.Subject).
		Str("sender", msg.Sender).
		Strs("recipients", msg.Recipients).
		Msg("mail suppressed")
	return nil
}

// Recorder keeps every sent message in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
	Err  error // returned from Send when set
}

func (r *Recorder) Send(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// Composer builds messages from a fixed From address.
type Composer struct {
	From string
}

func (c Composer) sender() string {
	if c.From == "" {
		return DefaultSender
	}
	return c.From
}

// PasswordReset links to the reset page for the holder of email.
func (c Composer) PasswordReset(email, resetURL string) Message {
	return Message{
		Subject:    "Reset Your Password",
		Sender:     c.sender(),
		Recipients: []string{email},
		Body: fmt.Sprintf("Please click the link below to reset your password: <a class='btn btn-primary' href='%s'>Reset URL</a>",
			html.EscapeString(resetURL)),
	}
}

// ResetConfirmation tells email its password changed.
func (c Composer) ResetConfirmation(email string) Message {
	return Message{
		Subject:    "Password Reset Confirmation",
		Sender:     c.sender(),
		Recipients: []string{email},
		Body:       "Your password has been reset successfully.",
	}
}

// AppointmentApproved notifies a patient that a doctor approved the booking.
func (c Composer) AppointmentApproved(email, username string) Message {
	return Message{
		Subject:    "Appointment Approved",
		Sender:     c.sender(),
		Recipients: []string{email},
		Body:       fmt.Sprintf("Hello %s, your appointment has been approved.", html.EscapeString(username)),
	}
}
