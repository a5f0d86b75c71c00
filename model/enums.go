package model

import "strings"

// Role is the kind of account. Patients book appointments, doctors review them.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor:
		return true
	}
	return false
}

// ParseRole matches s against the known roles ignoring case.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

type MaritalStatus string

const (
	MaritalMarried  MaritalStatus = "Married"
	MaritalSingle   MaritalStatus = "Single"
	MaritalDivorced MaritalStatus = "Divorced"
)

// MaritalStatuses lists the accepted values in form order.
var MaritalStatuses = []MaritalStatus{MaritalMarried, MaritalSingle, MaritalDivorced}

func (m MaritalStatus) Valid() bool {
	switch m {
	case MaritalMarried, MaritalSingle, MaritalDivorced:
		return true
	}
	return false
}

type BloodType string

const (
	BloodAPos  BloodType = "A+"
	BloodANeg  BloodType = "A-"
	BloodBPos  BloodType = "B+"
	BloodBNeg  BloodType = "B-"
	BloodABPos BloodType = "AB+"
	BloodABNeg BloodType = "AB-"
	BloodOPos  BloodType = "O+"
	BloodONeg  BloodType = "O-"
)

// BloodTypes lists the accepted values in form order.
var BloodTypes = []BloodType{BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg}

func (b BloodType) Valid() bool {
	switch b {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg:
		return true
	}
	return false
}

// AppointmentStatus moves booked -> approved on review and back to booked on re-booking.
type AppointmentStatus string

const (
	StatusBooked   AppointmentStatus = "booked"
	StatusApproved AppointmentStatus = "approved"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusBooked, StatusApproved:
		return true
	}
	return false
}
