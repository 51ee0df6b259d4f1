package session

import (
	"context"
	"html/template"
	"net/url"
	"time"

	"github.com/ariebrainware/patient-console/model"
	"github.com/ariebrainware/patient-console/view"
	"github.com/google/uuid"
)

// Page is the document surface for one request. Reads come from the
// submitted form; writes are collected in a Patch and committed once the
// action is done. Busy marks go straight to the store so other requests
// see them while the action runs.
type Page struct {
	store  Store
	sid    string
	values url.Values
	patch  Patch
	anchor string
	now    func() time.Time
	newID  func() string
}

// PageOption configures a Page.
type PageOption func(*Page)

// WithClock replaces the clock used to stamp notifications.
func WithClock(now func() time.Time) PageOption {
	return func(p *Page) {
		p.now = now
	}
}

// WithIDs replaces the notification id generator.
func WithIDs(newID func() string) PageOption {
	return func(p *Page) {
		p.newID = newID
	}
}

// NewPage returns a Page for session sid. The submitted values of form are
// kept on the page unless the action resets or refills that form.
func NewPage(store Store, sid, form string, values url.Values, opts ...PageOption) *Page {
	p := &Page{
		store:  store,
		sid:    sid,
		values: values,
		patch: Patch{
			Containers: map[string]template.HTML{},
			Forms:      map[string]map[string]string{},
		},
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	if fields := view.FormFields(form); len(fields) > 0 {
		submitted := make(map[string]string, len(fields))
		for _, f := range fields {
			submitted[f] = values.Get(f)
		}
		p.patch.Forms[form] = submitted
	}
	return p
}

// Value returns the submitted value of field. Every field name is unique
// across the page, so form only documents where the field lives.
func (p *Page) Value(_ string, field string) string {
	return p.values.Get(field)
}

// Fill sets the fields of form.
func (p *Page) Fill(form string, values map[string]string) {
	p.patch.Forms[form] = copyValues(values)
}

// Reset clears every field of form. Resetting an empty form is a no-op.
func (p *Page) Reset(form string) {
	p.patch.Forms[form] = nil
}

// Replace sets the whole content of container.
func (p *Page) Replace(container string, html template.HTML) {
	p.patch.Containers[container] = html
}

// Notify appends a banner that disappears after view.NotificationLifetime.
func (p *Page) Notify(message string, severity view.Severity) {
	p.patch.Notifications = append(p.patch.Notifications, view.Notification{
		ID:        p.newID(),
		Message:   message,
		Severity:  severity,
		ExpiresAt: p.now().Add(view.NotificationLifetime),
	})
}

// Confirm reports whether the user accepted the confirmation dialog for
// this submission. The dialog text is rendered with the form.
func (p *Page) Confirm(_ string) bool {
	return p.values.Get("confirmed") == "true"
}

// ScrollTo asks the browser to bring element into view after the redirect.
func (p *Page) ScrollTo(element string) {
	p.anchor = element
}

// Anchor returns the URL fragment for the redirect, or "".
func (p *Page) Anchor() string {
	if p.anchor == "" {
		return ""
	}
	return "#" + p.anchor
}

// RememberCards records the patients behind the rendered list so card
// actions can look them up by id.
func (p *Page) RememberCards(patients []model.Patient) {
	p.patch.Cards = append([]model.Patient(nil), patients...)
	p.patch.CardsSet = true
}

// Card returns the listed patient with id.
func (p *Page) Card(ctx context.Context, id string) (model.Patient, bool, error) {
	if p.patch.CardsSet {
		doc := Document{Cards: p.patch.Cards}
		patient, ok := doc.Card(id)
		return patient, ok, nil
	}
	doc, err := p.store.Load(ctx, p.sid)
	if err != nil {
		return model.Patient{}, false, err
	}
	patient, ok := doc.Card(id)
	return patient, ok, nil
}

// SetBusy marks control busy and returns the label it had. It fails with
// view.ErrControlBusy when the control is already busy.
func (p *Page) SetBusy(ctx context.Context, control string) (string, error) {
	ok, err := p.store.Acquire(ctx, p.sid, control)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", view.ErrControlBusy
	}
	return view.DefaultLabel(control), nil
}

// ClearBusy releases control. Its label is derived from the busy flag, so
// clearing the flag restores savedLabel.
func (p *Page) ClearBusy(ctx context.Context, control, _ string) error {
	return p.store.Release(ctx, p.sid, control)
}

// MarkPending flags the document so the page load after this request's
// redirect shows the stored state instead of listing again.
func (p *Page) MarkPending() {
	pending := true
	p.patch.Pending = &pending
}

// ClearPending drops the flag set by MarkPending.
func ClearPending(ctx context.Context, store Store, sid string) error {
	settled := false
	return store.Apply(ctx, sid, &Patch{Pending: &settled})
}

// Commit applies the collected changes to the store.
func (p *Page) Commit(ctx context.Context) error {
	return p.store.Apply(ctx, p.sid, &p.patch)
}

// Patch exposes the pending changes.
func (p *Page) Patch() *Patch {
	return &p.patch
}
