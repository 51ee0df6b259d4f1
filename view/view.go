// Package view renders patient records and the console page. Every function
// maps data to markup and has no other effect; html/template escapes all
// patient-supplied strings for the context they are written into.
package view

import (
	"errors"
	"time"
)

// Severity styles a notification banner.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// NotificationLifetime is how long a banner stays on the page.
const NotificationLifetime = 5 * time.Second

// Notification is one banner in the notifications area.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether n should no longer be shown at now.
func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// Page element identifiers shared by the templates, the controller and the
// HTTP handlers.
const (
	ContainerPatients = "patientsList"
	ContainerSearch   = "searchResult"

	FormCreate = "createForm"
	FormSearch = "searchForm"
	FormUpdate = "updateForm"
	FormDelete = "deleteForm"

	FieldCreateName  = "createName"
	FieldCreateEmail = "createEmail"
	FieldSearchID    = "searchId"
	FieldUpdateID    = "updateId"
	FieldUpdateName  = "updateName"
	FieldUpdateEmail = "updateEmail"
	FieldDeleteID    = "deleteId"

	ControlCreate  = "createBtn"
	ControlSearch  = "searchBtn"
	ControlUpdate  = "updateBtn"
	ControlDelete  = "deleteBtn"
	ControlRefresh = "refreshBtn"
)

// BusyLabel replaces a control's label while its action is in flight.
const BusyLabel = "Processing..."

// ConfirmDeleteMessage is shown by the confirmation dialog before any delete.
const ConfirmDeleteMessage = "Are you sure you want to delete this patient?"

// ErrControlBusy is returned when a control is already marked busy.
var ErrControlBusy = errors.New("control is busy")

var controlLabels = map[string]string{
	ControlCreate:  "Create patient",
	ControlSearch:  "Search",
	ControlUpdate:  "Update patient",
	ControlDelete:  "Delete patient",
	ControlRefresh: "Refresh",
}

// Controls lists every control that can be marked busy.
func Controls() []string {
	return []string{ControlCreate, ControlSearch, ControlUpdate, ControlDelete, ControlRefresh}
}

// DefaultLabel returns the idle label of control.
func DefaultLabel(control string) string {
	return controlLabels[control]
}

var formFields = map[string][]string{
	FormCreate: {FieldCreateName, FieldCreateEmail},
	FormSearch: {FieldSearchID},
	FormUpdate: {FieldUpdateID, FieldUpdateName, FieldUpdateEmail},
	FormDelete: {FieldDeleteID},
}

// FormFields lists the input names of form. Unknown forms have none.
func FormFields(form string) []string {
	return formFields[form]
}
