package model

import (
	"time"

	"gorm.io/gorm"
)

// Profile is a patient intake record and doubles as the appointment booking.
// Rows are removed with a hard delete, so there is no DeletedAt column.
type Profile struct {
	ID                uint              `json:"id" gorm:"primarykey"`
	DateRegistered    time.Time         `json:"date_registered" gorm:"not null;index"`
	MaritalStatus     MaritalStatus     `json:"marital_status" gorm:"type:varchar(120);not null"`
	PhoneNumber       string            `json:"phonenumber" gorm:"column:phonenumber;type:varchar(13);uniqueIndex;not null"`
	Address           string            `json:"address" gorm:"type:varchar(20);not null"`
	Postcode          string            `json:"postcode" gorm:"type:varchar(20);not null"`
	City              string            `json:"city" gorm:"type:varchar(30);not null"`
	Area              string            `json:"area" gorm:"type:varchar(20);not null"`
	Country           string            `json:"country" gorm:"type:varchar(20);not null"`
	State             string            `json:"state" gorm:"type:varchar(20);not null"`
	Height            int               `json:"height" gorm:"default:0"`
	Weight            int               `json:"weight" gorm:"default:0"`
	BloodType         BloodType         `json:"blood_type" gorm:"type:varchar(10)"`
	AppointmentStatus AppointmentStatus `json:"appointment_status" gorm:"type:varchar(15);default:booked"`
	PatientID         uint              `json:"patient_id" gorm:"not null;index"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// BeforeCreate defaults the registration date and status.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.DateRegistered.IsZero() {
		p.DateRegistered = time.Now()
	}
	if p.AppointmentStatus == "" {
		p.AppointmentStatus = StatusBooked
	}
	return nil
}

func (p *Profile) IsApproved() bool { return p.AppointmentStatus == StatusApproved }
