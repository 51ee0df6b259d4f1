// Package session keeps the state of each browser's console page between
// requests: rendered containers, form values, the cards behind the last
// rendered list, busy controls and live notifications.
package session

import (
	"context"
	"html/template"
	"time"

	"github.com/ariebrainware/patient-console/model"
	"github.com/ariebrainware/patient-console/view"
)

// Document is the page state of one session.
type Document struct {
	Containers    map[string]template.HTML
	Forms         map[string]map[string]string
	Cards         []model.Patient
	Busy          map[string]bool
	Notifications []view.Notification
	// Pending is set by a submitted action and cleared by the page load
	// that follows its redirect.
	Pending bool
}

// Card returns the listed patient with id.
func (d *Document) Card(id string) (model.Patient, bool) {
	for _, p := range d.Cards {
		if p.ID == id {
			return p, true
		}
	}
	return model.Patient{}, false
}

// Patch is the set of changes one request makes to a Document. Each
// container and form is replaced as a whole, so concurrent requests
// resolve last-write-wins per field. A nil form entry resets that form.
type Patch struct {
	Containers    map[string]template.HTML
	Forms         map[string]map[string]string
	Cards         []model.Patient
	CardsSet      bool
	Notifications []view.Notification
	// Pending marks (true) or clears (false) the document's pending flag.
	Pending *bool
}

// Empty reports whether applying p would change nothing.
func (p *Patch) Empty() bool {
	return len(p.Containers) == 0 && len(p.Forms) == 0 && !p.CardsSet && len(p.Notifications) == 0 && p.Pending == nil
}

// Store persists Documents keyed by session id.
type Store interface {
	// Load returns the current document; an unknown session yields an empty one.
	Load(ctx context.Context, sid string) (*Document, error)
	// Apply commits patch to the session's document.
	Apply(ctx context.Context, sid string, patch *Patch) error
	// Acquire marks control busy. It reports false when the control already is.
	Acquire(ctx context.Context, sid, control string) (bool, error)
	// Release clears the busy mark of control.
	Release(ctx context.Context, sid, control string) error
}

// DefaultBusyTTL bounds how long a control stays busy when the request
// holding it never releases it.
const DefaultBusyTTL = 2 * time.Minute

func newDocument() *Document {
	return &Document{
		Containers: map[string]template.HTML{},
		Forms:      map[string]map[string]string{},
		Busy:       map[string]bool{},
	}
}

func applyPatch(doc *Document, patch *Patch) {
	for id, html := range patch.Containers {
		doc.Containers[id] = html
	}
	for form, values := range patch.Forms {
		if values == nil {
			delete(doc.Forms, form)
			continue
		}
		doc.Forms[form] = copyValues(values)
	}
	if patch.CardsSet {
		doc.Cards = append([]model.Patient(nil), patch.Cards...)
	}
	doc.Notifications = append(doc.Notifications, patch.Notifications...)
	if patch.Pending != nil {
		doc.Pending = *patch.Pending
	}
}

func copyValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
