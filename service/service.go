// Package service holds the dispensary's use cases: accounts and sessions,
// intake profiles and their booking lifecycle, doctor review and password
// reset. Handlers call it with an explicit Identity; nothing here reads
// request state.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/ariebrainware/spu-dispensary/mailer"
	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/ariebrainware/spu-dispensary/signer"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// User-visible messages.
const (
	MsgEmailExists         = "Account with this email already exists!"
	MsgSchoolIDExists      = "Account with this Username already exists!"
	MsgSignupIncomplete    = "Sorry we couldn't sign you in!"
	MsgInvalidRole         = "Invalid role!"
	MsgInvalidPatientID    = "Invalid school ID for patients!"
	MsgSignupFailed        = "There was a problem creating your account. Please try again later"
	MsgUnknownSchoolID     = "The School id doesn't exist! Please try again"
	MsgWrongPassword       = "Wrong username or password!"
	MsgLoginRequired       = "Please log in to access this page."
	MsgRestricted          = "You are not allowed to access this page."
	MsgInvalidMarital      = "The Marital status is invalid!"
	MsgInvalidBlood        = "The Blood group is invalid!"
	MsgInvalidHeight       = "The Height is invalid!"
	MsgInvalidWeight       = "The Weight is invalid!"
	MsgProfileCreated      = "Appointment was created successfully!"
	MsgBookingFailed       = "There seems to be an error booking your appointment. Please try again later"
	MsgRebooked            = "Appointment booked successfully!"
	MsgRebookFailed        = "There was a problem booking the appointment"
	MsgRebookNotApproved   = "Appointment can only be booked if it is approved"
	MsgInvalidAppointment  = "Invalid appointment ID"
	MsgAppointmentNotFound = "Appointment not found"
	MsgApproved            = "Appointment approved successfully!"
	MsgApproveFailed       = "There was a problem approving the appointment"
	MsgAlreadyApproved     = "Appointment has already been approved"
	MsgDeleteFailed        = "There was a problem deleting the appointment"
	MsgAccountIncomplete   = "Please provide both a school ID and an email."
	MsgSchoolIDLocked      = "School ID cannot be changed."
	MsgEmailMaybeUpdated   = "If the email doesn't exist then It has been updated successfully."
	MsgAccountUpdated      = "Account has been updated successfully."
	MsgAccountUpdateFailed = "There was a problem updating your account."
	MsgResetSent           = "If the email exists in our database, then password reset instructions have been sent successfully."
	MsgResetUnknownEmail   = "Email doesn't exist in our database. You can create an account with us"
	MsgInvalidToken        = "Invalid or expired token. Please request a new password reset."
	MsgResetEmailNotFound  = "Email address not found."
	MsgPasswordRequired    = "Please enter a new password."
	MsgPasswordReset       = "Your password has been reset successfully."
	MsgPasswordResetFailed = "There was a problem resetting your password."
)

const (
	resetPurpose   = "reset-password"
	resetMaxAge    = 3600 * time.Second
	sessionPurpose = "session"
)

// ErrNoProfiles is returned by Rebook when the patient has not created a profile yet.
var ErrNoProfiles = errors.New("patient has no profiles")

// Identity is the authenticated caller of a request.
type Identity struct {
	Account   model.Account
	SessionID string
}

// Options configures a Service.
type Options struct {
	DB         *gorm.DB
	Mail       mailer.Sender
	Compose    mailer.Composer
	Secret     string
	BaseURL    string
	SessionTTL time.Duration
	Now        func() time.Time
}

type Service struct {
	db          *gorm.DB
	mail        mailer.Sender
	compose     mailer.Composer
	resetTokens *signer.Signer
	sessions    *signer.Signer
	baseURL     string
	sessionTTL  time.Duration
	now         func() time.Time
}

func New(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	mail := opts.Mail
	if mail == nil {
		mail = mailer.LogSender{}
	}
	return &Service{
		db:          opts.DB,
		mail:        mail,
		compose:     opts.Compose,
		resetTokens: signer.New(opts.Secret, resetPurpose, resetMaxAge, signer.WithClock(now)),
		sessions:    signer.New(opts.Secret, sessionPurpose, ttl, signer.WithClock(now)),
		baseURL:     opts.BaseURL,
		sessionTTL:  ttl,
		now:         now,
	}
}

// DB exposes the handle for middleware that logs against it.
func (s *Service) DB() *gorm.DB {
	return s.db
}

// SessionTTL is how long a session cookie stays valid.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// notify sends msg and only logs a failure.
func (s *Service) notify(ctx context.Context, msg mailer.Message) {
	if err := s.mail.Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Strs("to", msg.Recipients).Msg("mail delivery failed")
	}
}
