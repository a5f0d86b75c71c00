package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ariebrainware/spu-dispensary/apperror"
	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/ariebrainware/spu-dispensary/util"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SignUpInput is the signup form.
type SignUpInput struct {
	Email    string `form:"email" json:"email"`
	Username string `form:"username" json:"username"`
	SchoolID string `form:"school_id" json:"school_id"`
	Password string `form:"password" json:"password"`
	Role     string `form:"role" json:"role"`
}

// Session is an issued session token.
type Session struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// SignUp validates the form and creates the account. Both duplicate
// messages are reported together with the first failing field check.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (model.Account, error) {
	db := s.db.WithContext(ctx)
	email := strings.TrimSpace(in.Email)
	schoolID := strings.TrimSpace(in.SchoolID)
	username := util.NormalizeName(in.Username)

	var messages []string
	if email != "" {
		taken, err := exists(db, "email = ?", email)
		if err != nil {
			return model.Account{}, apperror.Internal(MsgSignupFailed, err)
		}
		if taken {
			messages = append(messages, MsgEmailExists)
		}
	}
	if schoolID != "" {
		taken, err := exists(db, "school_id = ?", schoolID)
		if err != nil {
			return model.Account{}, apperror.Internal(MsgSignupFailed, err)
		}
		if taken {
			messages = append(messages, MsgSchoolIDExists)
		}
	}

	role, roleOK := model.ParseRole(in.Role)
	switch {
	case email == "" || schoolID == "" || in.Password == "" || username == "":
		messages = append(messages, MsgSignupIncomplete)
	case !roleOK:
		messages = append(messages, MsgInvalidRole)
	case role == model.RolePatient && !model.ValidPatientSchoolID(schoolID):
		messages = append(messages, MsgInvalidPatientID)
	}
	if len(messages) > 0 {
		return model.Account{}, apperror.Validation(messages...)
	}

	salt, err := util.GenerateSalt()
	if err != nil {
		return model.Account{}, apperror.Internal(MsgSignupFailed, err)
	}
	hash, err := util.HashPasswordArgon2(in.Password, salt)
	if err != nil {
		return model.Account{}, apperror.Internal(MsgSignupFailed, err)
	}

	acc := model.Account{
		Username:     username,
		SchoolID:     schoolID,
		Email:        email,
		Password:     hash,
		PasswordSalt: salt,
		Role:         role,
	}
	if err := db.Create(&acc).Error; err != nil {
		return model.Account{}, apperror.Persistence(MsgSignupFailed, err)
	}
	return acc, nil
}

func exists(db *gorm.DB, query string, args ...any) (bool, error) {
	var n int64
	if err := db.Model(&model.Account{}).Where(query, args...).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// LogIn checks credentials by school id.
func (s *Service) LogIn(ctx context.Context, schoolID, password string) (model.Account, error) {
	var acc model.Account
	err := s.db.WithContext(ctx).Where("school_id = ?", strings.TrimSpace(schoolID)).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Account{}, apperror.Auth(MsgUnknownSchoolID)
	}
	if err != nil {
		return model.Account{}, apperror.Internal(MsgWrongPassword, err)
	}

	ok, err := util.VerifyPassword(password, acc.Password, acc.PasswordSalt)
	if err != nil {
		log.Warn().Err(err).Uint("account_id", acc.ID).Msg("stored password hash unreadable")
	}
	if !ok {
		return model.Account{}, apperror.Auth(MsgWrongPassword)
	}
	return acc, nil
}

// StartSession issues a session token for acc and records it when Redis is available.
func (s *Service) StartSession(ctx context.Context, acc model.Account) (Session, error) {
	raw, claims, err := s.sessions.Issue(strconv.FormatUint(uint64(acc.ID), 10))
	if err != nil {
		return Session{}, apperror.Internal("Could not start a session", err)
	}
	if err := util.StoreSession(ctx, acc.ID, claims.ID, s.sessionTTL); err != nil {
		return Session{}, apperror.Internal("Could not start a session", err)
	}
	return Session{Token: raw, ID: claims.ID, ExpiresAt: claims.IssuedAt.Add(s.sessionTTL)}, nil
}

// ResolveSession turns a session token into the caller's identity.
func (s *Service) ResolveSession(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperror.Auth(MsgLoginRequired)
	}
	claims, err := s.sessions.Verify(token)
	if err != nil {
		return Identity{}, &apperror.Error{Kind: apperror.KindAuth, Messages: []string{MsgLoginRequired}, Err: err}
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return Identity{}, &apperror.Error{Kind: apperror.KindAuth, Messages: []string{MsgLoginRequired}, Err: err}
	}

	active, err := util.SessionActive(ctx, claims.ID)
	if err != nil {
		return Identity{}, apperror.Internal(MsgLoginRequired, err)
	}
	if !active {
		return Identity{}, apperror.Auth(MsgLoginRequired)
	}

	var acc model.Account
	if err := s.db.WithContext(ctx).First(&acc, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, apperror.Auth(MsgLoginRequired)
		}
		return Identity{}, apperror.Internal(MsgLoginRequired, err)
	}
	return Identity{Account: acc, SessionID: claims.ID}, nil
}

// EndSession revokes the caller's session.
func (s *Service) EndSession(ctx context.Context, ident Identity) error {
	if err := util.RemoveSession(ctx, ident.Account.ID, ident.SessionID); err != nil {
		return apperror.Internal("Could not end the session", err)
	}
	return nil
}
