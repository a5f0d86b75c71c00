package util

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecurityEventType represents different types of security events
type SecurityEventType string

const (
	EventLoginSuccess       SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure       SecurityEventType = "LOGIN_FAILURE"
	EventSignupSuccess      SecurityEventType = "SIGNUP_SUCCESS"
	EventLogout             SecurityEventType = "LOGOUT"
	EventPasswordResetReq   SecurityEventType = "PASSWORD_RESET_REQUESTED"
	EventPasswordChanged    SecurityEventType = "PASSWORD_CHANGED"
	EventUnauthorizedAccess SecurityEventType = "UNAUTHORIZED_ACCESS"
	EventRateLimitExceeded  SecurityEventType = "RATE_LIMIT_EXCEEDED"
	EventSuspiciousActivity SecurityEventType = "SUSPICIOUS_ACTIVITY"
	EventEndpointCall       SecurityEventType = "ENDPOINT_CALL"
)

// SecurityEvent represents a security event to be logged
type SecurityEvent struct {
	EventType SecurityEventType
	AccountID string
	Email     string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

var (
	securityMu     sync.RWMutex
	securityLogger = log.Logger.With().Str("component", "security").Logger()
	securityDB     *gorm.DB
)

// SetSecurityLoggerDB enables persisting events to the security_logs table.
// Pass nil to turn persistence off.
func SetSecurityLoggerDB(db *gorm.DB) {
	securityMu.Lock()
	defer securityMu.Unlock()
	securityDB = db
}

// SetSecurityLoggerForTest swaps the security logger and returns the previous one.
func SetSecurityLoggerForTest(l zerolog.Logger) zerolog.Logger {
	return setSecurityLogger(l)
}

func setSecurityLogger(l zerolog.Logger) zerolog.Logger {
	securityMu.Lock()
	defer securityMu.Unlock()
	prev := securityLogger
	securityLogger = l
	return prev
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(value)
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogSecurityEvent logs a security event and, when configured, stores it.
func LogSecurityEvent(event SecurityEvent) {
	securityMu.RLock()
	logger, db := securityLogger, securityDB
	securityMu.RUnlock()

	e := logger.Info().
		Str("event", sanitizeLogValue(string(event.EventType))).
		Str("account_id", sanitizeLogValue(event.AccountID)).
		Str("email", sanitizeLogValue(event.Email)).
		Str("ip", sanitizeLogValue(event.IP)).
		Str("user_agent", sanitizeLogValue(event.UserAgent))
	if len(event.Details) > 0 {
		// only the count, detail values are not sanitized
		e = e.Int("details_count", len(event.Details))
	}
	e.Msg(sanitizeLogValue(event.Message))

	if db == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	entry := model.SecurityLog{
		EventType: string(event.EventType),
		AccountID: sanitizeLogValue(event.AccountID),
		Email:     sanitizeLogValue(event.Email),
		IP:        sanitizeLogValue(event.IP),
		Location:  sanitizeLogValue(ipLocation(event.IP)),
		UserAgent: sanitizeLogValue(event.UserAgent),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}
	if err := db.Create(&entry).Error; err != nil {
		logger.Error().Err(err).Msg("failed to persist security event")
	}
}

func ipLocation(ip string) string {
	city, country := GetIPLocation(ip)
	switch {
	case city != "" && country != "":
		return city + "/" + country
	case country != "":
		return country
	default:
		return city
	}
}

func LogLoginSuccess(accountID uint, email, ip, userAgent string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginSuccess,
		AccountID: fmt.Sprintf("%d", accountID),
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "account logged in",
	})
}

func LogLoginFailure(schoolID, ip, userAgent, reason string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginFailure,
		IP:        ip,
		UserAgent: userAgent,
		Message:   fmt.Sprintf("login failed: %s", reason),
		Details:   map[string]interface{}{"school_id": schoolID},
	})
}

func LogSignup(accountID uint, email, ip, userAgent string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventSignupSuccess,
		AccountID: fmt.Sprintf("%d", accountID),
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "account created",
	})
}

func LogLogout(accountID uint, email, ip, userAgent string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLogout,
		AccountID: fmt.Sprintf("%d", accountID),
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "account logged out",
	})
}

func LogPasswordResetRequested(email, ip string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventPasswordResetReq,
		Email:     email,
		IP:        ip,
		Message:   "password reset requested",
	})
}

func LogPasswordChanged(accountID uint, email, ip string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventPasswordChanged,
		AccountID: fmt.Sprintf("%d", accountID),
		Email:     email,
		IP:        ip,
		Message:   "password changed via reset token",
	})
}

// LogUnauthorizedAccess logs unauthorized access attempts
func LogUnauthorizedAccess(accountID, ip, resource, reason string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventUnauthorizedAccess,
		AccountID: accountID,
		IP:        ip,
		Message:   fmt.Sprintf("unauthorized access to %s: %s", resource, reason),
	})
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(ip, endpoint string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventRateLimitExceeded,
		IP:        ip,
		Message:   fmt.Sprintf("rate limit exceeded for endpoint: %s", endpoint),
	})
}
