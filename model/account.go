package model

import (
	"strings"

	"gorm.io/gorm"
)

// DefaultUserProfile is the image reference given to new accounts.
const DefaultUserProfile = "default.png"

// patientSchoolIDMarkers are the campus codes a patient school id must contain.
var patientSchoolIDMarkers = []string{"lmr", "nrb", "mks"}

// Account is a login identity. Accounts are never deleted.
type Account struct {
	gorm.Model
	Username     string    `json:"username" gorm:"type:varchar(30);not null"`
	SchoolID     string    `json:"school_id" gorm:"type:varchar(20);uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"type:varchar(120);uniqueIndex;not null"`
	UserProfile  string    `json:"user_profile" gorm:"type:varchar(20);not null;default:default.png"`
	Password     string    `json:"-" gorm:"not null"`
	PasswordSalt string    `json:"-" gorm:"not null"`
	Role         Role      `json:"role" gorm:"type:varchar(10)"`
	Profiles     []Profile `json:"profiles,omitempty" gorm:"foreignKey:PatientID"`
}

// BeforeCreate fills in the profile image when the caller left it blank.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.UserProfile == "" {
		a.UserProfile = DefaultUserProfile
	}
	return nil
}

func (a *Account) IsDoctor() bool  { return a.Role == RoleDoctor }
func (a *Account) IsPatient() bool { return a.Role == RolePatient }

// ValidPatientSchoolID reports whether id carries one of the campus markers, ignoring case.
func ValidPatientSchoolID(id string) bool {
	lower := strings.ToLower(id)
	for _, marker := range patientSchoolIDMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
