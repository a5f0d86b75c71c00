package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecurityLog represents a persisted security event
type SecurityLog struct {
	gorm.Model
	EventType string `json:"event_type" gorm:"column:event_type;type:varchar(64)"`
	AccountID string `json:"account_id" gorm:"column:account_id;type:varchar(64);index"`
	Email     string `json:"email" gorm:"column:email;type:varchar(120);index"`
	IP        string `json:"ip" gorm:"column:ip;type:varchar(45)"`
	// "City/Country" when a GeoIP database is configured
	Location  string         `json:"location" gorm:"column:location;type:varchar(255)"`
	UserAgent string         `json:"user_agent" gorm:"column:user_agent;type:varchar(512)"`
	Message   string         `json:"message" gorm:"column:message;type:text"`
	Details   datatypes.JSON `json:"details" gorm:"column:details"`
}

// Migrate creates or updates the accounts and profiles tables, plus
// security_logs when withSecurityLog is set.
func Migrate(db *gorm.DB, withSecurityLog bool) error {
	models := []any{&Account{}, &Profile{}}
	if withSecurityLog {
		models = append(models, &SecurityLog{})
	}
	return db.AutoMigrate(models...)
}
