package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/ariebrainware/spu-dispensary/apperror"
	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/ariebrainware/spu-dispensary/util"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// UpdateResult is the outcome of an account edit that did not fail.
type UpdateResult int

const (
	AccountUnchanged UpdateResult = iota
	AccountUpdated
	AccountEmailTaken
)

// UpdateAccount changes the caller's email and school id together. Submitting
// the current school id is refused, and an unchanged email changes nothing.
func (s *Service) UpdateAccount(ctx context.Context, ident Identity, schoolID, email string) (UpdateResult, model.Account, error) {
	acc := ident.Account
	schoolID = strings.TrimSpace(schoolID)
	email = strings.TrimSpace(email)

	if schoolID == "" || email == "" {
		return AccountUnchanged, acc, apperror.Validation(MsgAccountIncomplete)
	}
	if schoolID == acc.SchoolID {
		return AccountUnchanged, acc, apperror.Validation(MsgSchoolIDLocked)
	}
	if email == acc.Email {
		return AccountUnchanged, acc, nil
	}

	db := s.db.WithContext(ctx)
	taken, err := exists(db, "email = ?", email)
	if err != nil {
		return AccountUnchanged, acc, apperror.Internal(MsgAccountUpdateFailed, err)
	}
	if taken {
		return AccountEmailTaken, acc, nil
	}

	err = db.Model(&acc).Updates(map[string]any{"email": email, "school_id": schoolID}).Error
	if err != nil {
		return AccountUnchanged, ident.Account, apperror.Persistence(MsgAccountUpdateFailed, err)
	}
	acc.Email = email
	acc.SchoolID = schoolID
	util.AccountEmailCacheDelete(acc.ID)
	return AccountUpdated, acc, nil
}

// RequestPasswordReset emails a reset link to the account holding email.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	acc, err := s.accountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return apperror.Validation(MsgResetUnknownEmail)
		}
		return err
	}

	token, _, err := s.resetTokens.Issue(acc.Email)
	if err != nil {
		return apperror.Internal(MsgResetUnknownEmail, err)
	}
	s.notify(ctx, s.compose.PasswordReset(acc.Email, s.ResetURL(token)))
	return nil
}

// ResetURL is the absolute link a reset email points at.
func (s *Service) ResetURL(token string) string {
	return s.baseURL + "/reset_password/" + url.PathEscape(token)
}

// AccountForResetToken verifies token and loads the account it was issued for.
// Tampered and expired tokens fail the same way.
func (s *Service) AccountForResetToken(ctx context.Context, token string) (model.Account, error) {
	claims, err := s.resetTokens.Verify(token)
	if err != nil {
		return model.Account{}, apperror.Token(MsgInvalidToken, err)
	}
	acc, err := s.accountByEmail(ctx, claims.Subject)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return model.Account{}, apperror.Token(MsgResetEmailNotFound, err)
		}
		return model.Account{}, err
	}
	return acc, nil
}

// ResetPassword sets a new password for the token's account, revokes its
// sessions and sends a confirmation.
func (s *Service) ResetPassword(ctx context.Context, token, password string) (model.Account, error) {
	acc, err := s.AccountForResetToken(ctx, token)
	if err != nil {
		return model.Account{}, err
	}
	if password == "" {
		return model.Account{}, apperror.Validation(MsgPasswordRequired)
	}

	salt, err := util.GenerateSalt()
	if err != nil {
		return model.Account{}, apperror.Internal(MsgPasswordResetFailed, err)
	}
	hash, err := util.HashPasswordArgon2(password, salt)
	if err != nil {
		return model.Account{}, apperror.Internal(MsgPasswordResetFailed, err)
	}
	err = s.db.WithContext(ctx).Model(&acc).Updates(map[string]any{"password": hash, "password_salt": salt}).Error
	if err != nil {
		return model.Account{}, apperror.Persistence(MsgPasswordResetFailed, err)
	}

	if err := util.InvalidateAccountSessions(ctx, acc.ID); err != nil {
		log.Error().Err(err).Uint("account_id", acc.ID).Msg("could not revoke sessions after password reset")
	}
	s.notify(ctx, s.compose.ResetConfirmation(acc.Email))
	return acc, nil
}

func (s *Service) accountByEmail(ctx context.Context, email string) (model.Account, error) {
	var acc model.Account
	if email == "" {
		return acc, apperror.NotFound(MsgResetUnknownEmail)
	}
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return acc, apperror.NotFound(MsgResetUnknownEmail)
	}
	if err != nil {
		return acc, apperror.Internal(MsgResetUnknownEmail, err)
	}
	return acc, nil
}
