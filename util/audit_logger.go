package util

import (
	"encoding/json"
	"strings"

	"github.com/ariebrainware/patient-console/model"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditAction names a console action recorded in the audit log.
type AuditAction string

const (
	ActionPageLoad    AuditAction = "PAGE_LOAD"
	ActionRefresh     AuditAction = "REFRESH"
	ActionCreate      AuditAction = "CREATE"
	ActionSearch      AuditAction = "SEARCH"
	ActionUpdate      AuditAction = "UPDATE"
	ActionDelete      AuditAction = "DELETE"
	ActionCardEdit    AuditAction = "CARD_EDIT"
	ActionCardDelete  AuditAction = "CARD_DELETE"
	ActionRateLimited AuditAction = "RATE_LIMIT_EXCEEDED"
)

// AuditEvent is one console action and its outcome. Patient names and
// emails are never part of an event.
type AuditEvent struct {
	Action    AuditAction
	Result    string
	PatientID string
	SessionID string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

var auditLogger = logrus.StandardLogger()
var auditDB *gorm.DB

// SetAuditLoggerDB sets the database audit events are persisted to.
// Call it at startup after the database is connected.
func SetAuditLoggerDB(db *gorm.DB) {
	auditDB = db
}

// SetAuditLogger replaces the logger audit events are written to.
func SetAuditLogger(logger *logrus.Logger) {
	if logger != nil {
		auditLogger = logger
	}
}

// GetAuditLoggerForTest returns the current audit logger.
func GetAuditLoggerForTest() *logrus.Logger {
	return auditLogger
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogAuditEvent writes event to the audit log and, when a database is set,
// persists it. Persistence is best-effort.
func LogAuditEvent(event AuditEvent) {
	entry := auditLogger.WithFields(logrus.Fields{
		"audit":      true,
		"action":     sanitizeLogValue(string(event.Action)),
		"result":     sanitizeLogValue(event.Result),
		"patient_id": sanitizeLogValue(event.PatientID),
		"session_id": sanitizeLogValue(event.SessionID),
		"ip":         sanitizeLogValue(event.IP),
		"user_agent": sanitizeLogValue(event.UserAgent),
	})
	if len(event.Details) > 0 {
		entry = entry.WithField("details_count", len(event.Details))
	}
	entry.Info(sanitizeLogValue(event.Message))

	if auditDB == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	record := model.AuditLog{
		Action:    string(event.Action),
		Result:    event.Result,
		PatientID: sanitizeLogValue(event.PatientID),
		SessionID: sanitizeLogValue(event.SessionID),
		IP:        sanitizeLogValue(event.IP),
		Location:  sanitizeLogValue(GetIPLocation(event.IP).String()),
		UserAgent: sanitizeLogValue(event.UserAgent),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}
	if err := auditDB.Create(&record).Error; err != nil {
		auditLogger.WithError(err).Warn("Failed to persist audit event")
	}
}

// LogRateLimitExceeded records a request rejected by the rate limiter.
func LogRateLimitExceeded(ip, sessionID, endpoint string) {
	LogAuditEvent(AuditEvent{
		Action:    ActionRateLimited,
		Result:    "rejected",
		SessionID: sessionID,
		IP:        ip,
		Message:   "Rate limit exceeded for endpoint: " + endpoint,
	})
}
