package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/ariebrainware/spu-dispensary/apperror"
	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProfileInput is the intake form. Height and weight arrive as text.
type ProfileInput struct {
	MaritalStatus string `form:"marital_status" json:"marital_status"`
	PhoneNumber   string `form:"phonenumber" json:"phonenumber"`
	Address       string `form:"address" json:"address"`
	Postcode      string `form:"postcode" json:"postcode"`
	City          string `form:"city" json:"city"`
	Area          string `form:"area" json:"area"`
	Country       string `form:"country" json:"country"`
	State         string `form:"state" json:"state"`
	Height        string `form:"height" json:"height"`
	Weight        string `form:"weight" json:"weight"`
	BloodType     string `form:"blood_type" json:"blood_type"`
}

// Overview is the doctor dashboard.
type Overview struct {
	Appointments     []model.Profile         `json:"appointments"`
	Total            int                     `json:"num_appointments"`
	BloodGroupCounts map[model.BloodType]int `json:"blood_group_counts"`
}

func requireRole(ident Identity, role model.Role) error {
	if ident.Account.Role != role {
		return apperror.Auth(MsgRestricted)
	}
	return nil
}

// PatientProfiles lists the profiles owned by the patient.
func (s *Service) PatientProfiles(ctx context.Context, ident Identity) ([]model.Profile, error) {
	if err := requireRole(ident, model.RolePatient); err != nil {
		return nil, err
	}
	profiles := []model.Profile{}
	if err := s.db.WithContext(ctx).Where("patient_id = ?", ident.Account.ID).Order("id").Find(&profiles).Error; err != nil {
		return nil, apperror.Internal("Could not load appointments", err)
	}
	return profiles, nil
}

// CreateProfile validates the intake form and books a new appointment.
// Only the first invalid enumerated field is reported.
func (s *Service) CreateProfile(ctx context.Context, ident Identity, in ProfileInput) (model.Profile, error) {
	if err := requireRole(ident, model.RolePatient); err != nil {
		return model.Profile{}, err
	}

	marital := model.MaritalStatus(in.MaritalStatus)
	if !marital.Valid() {
		return model.Profile{}, apperror.Validation(MsgInvalidMarital)
	}
	blood := model.BloodType(in.BloodType)
	if !blood.Valid() {
		return model.Profile{}, apperror.Validation(MsgInvalidBlood)
	}
	height, ok := parseMeasure(in.Height)
	if !ok {
		return model.Profile{}, apperror.Validation(MsgInvalidHeight)
	}
	weight, ok := parseMeasure(in.Weight)
	if !ok {
		return model.Profile{}, apperror.Validation(MsgInvalidWeight)
	}

	p := model.Profile{
		DateRegistered:    s.now(),
		MaritalStatus:     marital,
		PhoneNumber:       strings.TrimSpace(in.PhoneNumber),
		Address:           in.Address,
		Postcode:          in.Postcode,
		City:              in.City,
		Area:              in.Area,
		Country:           in.Country,
		State:             in.State,
		Height:            height,
		Weight:            weight,
		BloodType:         blood,
		AppointmentStatus: model.StatusBooked,
		PatientID:         ident.Account.ID,
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Profile{}, apperror.Persistence(MsgBookingFailed, err)
	}
	return p, nil
}

// parseMeasure reads a non-negative integer; blank means 0.
func parseMeasure(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Rebook puts an approved appointment back into the booked state with a
// fresh registration date. The id is looked up across all profiles.
func (s *Service) Rebook(ctx context.Context, ident Identity, appointmentID string) (model.Profile, error) {
	if err := requireRole(ident, model.RolePatient); err != nil {
		return model.Profile{}, err
	}
	db := s.db.WithContext(ctx)

	var owned int64
	if err := db.Model(&model.Profile{}).Where("patient_id = ?", ident.Account.ID).Count(&owned).Error; err != nil {
		return model.Profile{}, apperror.Internal(MsgRebookFailed, err)
	}
	if owned == 0 {
		return model.Profile{}, ErrNoProfiles
	}

	id, err := strconv.ParseUint(strings.TrimSpace(appointmentID), 10, 64)
	if err != nil {
		return model.Profile{}, apperror.Validation(MsgInvalidAppointment)
	}
	var p model.Profile
	if err := db.First(&p, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Profile{}, apperror.Validation(MsgInvalidAppointment)
		}
		return model.Profile{}, apperror.Internal(MsgRebookFailed, err)
	}
	if !p.IsApproved() {
		return model.Profile{}, apperror.Validation(MsgRebookNotApproved)
	}

	now := s.now()
	err = db.Model(&p).Updates(map[string]any{
		"date_registered":    now,
		"appointment_status": model.StatusBooked,
	}).Error
	if err != nil {
		return model.Profile{}, apperror.Persistence(MsgRebookFailed, err)
	}
	p.DateRegistered = now
	p.AppointmentStatus = model.StatusBooked
	return p, nil
}

// AdminOverview lists every appointment, oldest registration first, with counts per blood group.
func (s *Service) AdminOverview(ctx context.Context, ident Identity) (Overview, error) {
	if err := requireRole(ident, model.RoleDoctor); err != nil {
		return Overview{}, err
	}
	profiles := []model.Profile{}
	if err := s.db.WithContext(ctx).Order("date_registered asc").Order("id").Find(&profiles).Error; err != nil {
		return Overview{}, apperror.Internal("Could not load appointments", err)
	}

	counts := make(map[model.BloodType]int)
	for _, p := range profiles {
		counts[p.BloodType]++
	}
	return Overview{Appointments: profiles, Total: len(profiles), BloodGroupCounts: counts}, nil
}

// ApproveResult tells a fresh approval apart from a repeated one.
type ApproveResult struct {
	Profile         model.Profile
	AlreadyApproved bool
}

// Approve moves a booked appointment to approved and emails the patient.
func (s *Service) Approve(ctx context.Context, ident Identity, id uint) (ApproveResult, error) {
	if err := requireRole(ident, model.RoleDoctor); err != nil {
		return ApproveResult{}, err
	}
	db := s.db.WithContext(ctx)

	p, err := s.findProfile(db, id)
	if err != nil {
		return ApproveResult{}, err
	}
	if p.AppointmentStatus != model.StatusBooked {
		return ApproveResult{Profile: p, AlreadyApproved: true}, nil
	}

	if err := db.Model(&p).Update("appointment_status", model.StatusApproved).Error; err != nil {
		return ApproveResult{}, apperror.Persistence(MsgApproveFailed, err)
	}
	p.AppointmentStatus = model.StatusApproved

	var patient model.Account
	if err := db.First(&patient, p.PatientID).Error; err != nil {
		log.Warn().Err(err).Uint("profile_id", p.ID).Msg("approved appointment has no patient account")
	} else {
		s.notify(ctx, s.compose.AppointmentApproved(patient.Email, patient.Username))
	}
	return ApproveResult{Profile: p}, nil
}

// DeleteProfile removes a profile row. No ownership check is applied.
func (s *Service) DeleteProfile(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	p, err := s.findProfile(db, id)
	if err != nil {
		return err
	}
	if err := db.Delete(&p).Error; err != nil {
		return apperror.Persistence(MsgDeleteFailed, err)
	}
	return nil
}

func (s *Service) findProfile(db *gorm.DB, id uint) (model.Profile, error) {
	var p model.Profile
	if err := db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Profile{}, apperror.NotFound(MsgAppointmentNotFound)
		}
		return model.Profile{}, apperror.Internal(MsgAppointmentNotFound, err)
	}
	return p, nil
}
