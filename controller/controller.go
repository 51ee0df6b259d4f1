// Package controller runs the console's user actions: read the submitted
// form, call the patient service, render the outcome and notify the user.
// Every action handles its own failures, so none of them returns an error.
package controller

import (
	"context"
	"errors"
	"html/template"

	"github.com/ariebrainware/patient-console/model"
	"github.com/ariebrainware/patient-console/view"
	"github.com/sirupsen/logrus"
)

// Page is the document surface an action reads from and writes to.
type Page interface {
	Value(form, field string) string
	Fill(form string, values map[string]string)
	Reset(form string)
	Replace(container string, html template.HTML)
	Notify(message string, severity view.Severity)
	Confirm(message string) bool
	ScrollTo(element string)
	RememberCards(patients []model.Patient)
	Card(ctx context.Context, id string) (model.Patient, bool, error)
	SetBusy(ctx context.Context, control string) (string, error)
	ClearBusy(ctx context.Context, control, savedLabel string) error
}

// Patients is the remote patient service.
type Patients interface {
	List(ctx context.Context) ([]model.Patient, error)
	Get(ctx context.Context, id string) (*model.Patient, error)
	Create(ctx context.Context, input model.PatientInput) (*model.Patient, error)
	Update(ctx context.Context, id string, input model.PatientInput) (*model.Patient, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Result is the outcome of an action.
type Result string

const (
	ResultOK         Result = "ok"
	ResultFailed     Result = "failed"
	ResultDeclined   Result = "declined"
	ResultNotApplied Result = "not_applied"
	ResultNotFound   Result = "not_found"
	ResultBusy       Result = "busy"
)

// User-facing messages.
const (
	MsgLoadFailed    = "Error loading patients: "
	MsgCreated       = "Patient created successfully"
	MsgCreateFailed  = "Error creating patient: "
	MsgSearchFailed  = "Error searching patient: "
	MsgUpdated       = "Patient updated successfully"
	MsgUpdateFailed  = "Error updating patient: "
	MsgDeleted       = "Patient deleted successfully"
	MsgNotDeleted    = "Could not delete patient"
	MsgDeleteFailed  = "Error deleting patient: "
	MsgUnknownCard   = "That patient is no longer in the list, refresh and try again"
	MsgStillRunning  = "The previous request is still being processed"
	MsgPageStateFail = "Error updating the page: "
)

// Controller binds the patient service to the view.
type Controller struct {
	patients Patients
	view     *view.Renderer
	log      *logrus.Logger
}

// New returns a Controller. A nil logger uses the logrus standard logger.
func New(patients Patients, renderer *view.Renderer, log *logrus.Logger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{patients: patients, view: renderer, log: log}
}

// List fetches every patient and replaces the list container. On failure
// the container keeps its previous content.
func (c *Controller) List(ctx context.Context, page Page) Result {
	patients, err := c.patients.List(ctx)
	if err != nil {
		return c.fail(page, "list", MsgLoadFailed, err)
	}
	html, err := c.view.RenderList(patients)
	if err != nil {
		return c.fail(page, "list", MsgLoadFailed, err)
	}
	page.Replace(view.ContainerPatients, html)
	page.RememberCards(patients)
	return ResultOK
}

// Refresh reloads the list on behalf of the refresh button.
func (c *Controller) Refresh(ctx context.Context, page Page) Result {
	return c.withBusy(ctx, page, view.ControlRefresh, func() Result {
		return c.List(ctx, page)
	})
}

// Create registers the patient described by the create form.
func (c *Controller) Create(ctx context.Context, page Page) Result {
	return c.withBusy(ctx, page, view.ControlCreate, func() Result {
		input := model.PatientInput{
			Name:  page.Value(view.FormCreate, view.FieldCreateName),
			Email: page.Value(view.FormCreate, view.FieldCreateEmail),
		}
		if _, err := c.patients.Create(ctx, input); err != nil {
			return c.fail(page, "create", MsgCreateFailed, err)
		}
		page.Notify(MsgCreated, view.SeveritySuccess)
		page.Reset(view.FormCreate)
		c.List(ctx, page)
		return ResultOK
	})
}

// Search looks up the id in the search form and renders the result. A
// failed lookup renders the not-found message as well as notifying.
func (c *Controller) Search(ctx context.Context, page Page) Result {
	return c.withBusy(ctx, page, view.ControlSearch, func() Result {
		id := page.Value(view.FormSearch, view.FieldSearchID)
		patient, err := c.patients.Get(ctx, id)
		if err != nil {
			_ = c.renderSingle(page, nil)
			return c.fail(page, "search", MsgSearchFailed, err)
		}
		if err := c.renderSingle(page, patient); err != nil {
			return c.fail(page, "search", MsgSearchFailed, err)
		}
		if patient == nil {
			return ResultNotFound
		}
		return ResultOK
	})
}

// Update saves the update form. On failure the form keeps its values.
func (c *Controller) Update(ctx context.Context, page Page) Result {
	return c.withBusy(ctx, page, view.ControlUpdate, func() Result {
		id := page.Value(view.FormUpdate, view.FieldUpdateID)
		input := model.PatientInput{
			Name:  page.Value(view.FormUpdate, view.FieldUpdateName),
			Email: page.Value(view.FormUpdate, view.FieldUpdateEmail),
		}
		if _, err := c.patients.Update(ctx, id, input); err != nil {
			return c.fail(page, "update", MsgUpdateFailed, err)
		}
		page.Notify(MsgUpdated, view.SeveritySuccess)
		page.Reset(view.FormUpdate)
		c.List(ctx, page)
		return ResultOK
	})
}

// Delete removes the patient named in the delete form once the user confirms.
func (c *Controller) Delete(ctx context.Context, page Page) Result {
	return c.withBusy(ctx, page, view.ControlDelete, func() Result {
		if !page.Confirm(view.ConfirmDeleteMessage) {
			return ResultDeclined
		}
		return c.remove(ctx, page, page.Value(view.FormDelete, view.FieldDeleteID), view.FormDelete)
	})
}

// DeleteCard removes the patient of a listed card once the user confirms.
// No form is touched.
func (c *Controller) DeleteCard(ctx context.Context, page Page, id string) Result {
	if !page.Confirm(view.ConfirmDeleteMessage) {
		return ResultDeclined
	}
	return c.remove(ctx, page, id, "")
}

// Edit copies a listed patient into the update form and scrolls to it.
func (c *Controller) Edit(ctx context.Context, page Page, id string) Result {
	patient, ok, err := page.Card(ctx, id)
	if err != nil {
		return c.fail(page, "edit", MsgPageStateFail, err)
	}
	if !ok {
		page.Notify(MsgUnknownCard, view.SeverityWarning)
		return ResultNotFound
	}
	page.Fill(view.FormUpdate, map[string]string{
		view.FieldUpdateID:    patient.ID,
		view.FieldUpdateName:  patient.Name,
		view.FieldUpdateEmail: patient.Email,
	})
	page.ScrollTo(view.FormUpdate)
	return ResultOK
}

func (c *Controller) remove(ctx context.Context, page Page, id, form string) Result {
	deleted, err := c.patients.Delete(ctx, id)
	if err != nil {
		return c.fail(page, "delete", MsgDeleteFailed, err)
	}
	if !deleted {
		page.Notify(MsgNotDeleted, view.SeverityError)
		return ResultNotApplied
	}
	page.Notify(MsgDeleted, view.SeveritySuccess)
	if form != "" {
		page.Reset(form)
	}
	c.List(ctx, page)
	return ResultOK
}

func (c *Controller) renderSingle(page Page, patient *model.Patient) error {
	html, err := c.view.RenderSingle(patient)
	if err != nil {
		return err
	}
	page.Replace(view.ContainerSearch, html)
	return nil
}

// withBusy marks control busy for the duration of fn and releases it on
// every exit path. A control that is already busy rejects the submission.
func (c *Controller) withBusy(ctx context.Context, page Page, control string, fn func() Result) Result {
	saved, err := page.SetBusy(ctx, control)
	if errors.Is(err, view.ErrControlBusy) {
		page.Notify(MsgStillRunning, view.SeverityWarning)
		return ResultBusy
	}
	if err != nil {
		return c.fail(page, control, MsgPageStateFail, err)
	}
	defer func() {
		if err := page.ClearBusy(ctx, control, saved); err != nil {
			c.log.WithError(err).WithField("control", control).Error("Failed to release control")
		}
	}()
	return fn()
}

func (c *Controller) fail(page Page, action, prefix string, err error) Result {
	c.log.WithError(err).WithField("action", action).Debug("Action failed")
	page.Notify(prefix+err.Error(), view.SeverityError)
	return ResultFailed
}
