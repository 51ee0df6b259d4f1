package view

import (
	"html/template"
	"time"
)

// PageData is everything the console template needs for one response.
type PageData struct {
	AppName       string
	PatientsList  template.HTML
	SearchResult  template.HTML
	Forms         map[string]map[string]string
	Busy          map[string]bool
	Notifications []NotificationView
}

// Button is the rendered state of a control.
type Button struct {
	Label    string
	Disabled bool
}

// NotificationView is a Notification with the time it has left on the page.
type NotificationView struct {
	Notification
	RemainingMS int64
}

func newNotificationView(n Notification, now time.Time) NotificationView {
	remaining := n.ExpiresAt.Sub(now).Milliseconds()
	if remaining < 0 {
		remaining = 0
	}
	return NotificationView{Notification: n, RemainingMS: remaining}
}

// NewPageData builds the page model from stored containers, form values,
// busy controls and notifications. Expired notifications are dropped.
func NewPageData(appName string, containers map[string]template.HTML, forms map[string]map[string]string, busy map[string]bool, notes []Notification, now time.Time) PageData {
	data := PageData{
		AppName:      appName,
		PatientsList: containers[ContainerPatients],
		SearchResult: containers[ContainerSearch],
		Forms:        forms,
		Busy:         busy,
	}
	for _, n := range notes {
		if n.Expired(now) {
			continue
		}
		data.Notifications = append(data.Notifications, newNotificationView(n, now))
	}
	return data
}

// Value returns the current value of field in form.
func (p PageData) Value(form, field string) string {
	return p.Forms[form][field]
}

// Button returns the label and enabled state of control.
func (p PageData) Button(control string) Button {
	if p.Busy[control] {
		return Button{Label: BusyLabel, Disabled: true}
	}
	return Button{Label: DefaultLabel(control)}
}
