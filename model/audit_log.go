package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is a persisted record of one console action. Patient names and
// emails are never stored here, only the opaque patient id.
type AuditLog struct {
	gorm.Model
	Action    string `json:"action" gorm:"column:action;type:varchar(64);index"`
	Result    string `json:"result" gorm:"column:result;type:varchar(32)"`
	PatientID string `json:"patient_id" gorm:"column:patient_id;type:varchar(64);index"`
	SessionID string `json:"session_id" gorm:"column:session_id;type:varchar(64);index"`
	IP        string `json:"ip" gorm:"column:ip;type:varchar(45)"`
	// Location stores city and country in the format "City/Country" when available.
	Location  string         `json:"location" gorm:"column:location;type:varchar(255)"`
	UserAgent string         `json:"user_agent" gorm:"column:user_agent;type:varchar(512)"`
	Message   string         `json:"message" gorm:"column:message;type:text"`
	Details   datatypes.JSON `json:"details" gorm:"column:details;type:json"`
}
