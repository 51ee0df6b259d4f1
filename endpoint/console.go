package endpoint

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ariebrainware/patient-console/controller"
	"github.com/ariebrainware/patient-console/middleware"
	"github.com/ariebrainware/patient-console/session"
	"github.com/ariebrainware/patient-console/util"
	"github.com/ariebrainware/patient-console/view"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var _ controller.Page = (*session.Page)(nil)

// Handler serves the patient console. Every form posts to its own route,
// the matching controller action runs against the session's page, and the
// browser is redirected back to the console.
type Handler struct {
	ctrl     *controller.Controller
	store    session.Store
	appName  string
	log      *logrus.Logger
	now      func() time.Time
	pageOpts []session.PageOption
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithPageOptions passes opts to every page the handler creates.
func WithPageOptions(opts ...session.PageOption) HandlerOption {
	return func(h *Handler) {
		h.pageOpts = append(h.pageOpts, opts...)
	}
}

// WithNow replaces the clock used to drop expired notifications.
func WithNow(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.now = now
	}
}

// NewHandler returns a Handler running ctrl against pages kept in store.
func NewHandler(ctrl *controller.Controller, store session.Store, appName string, log *logrus.Logger, opts ...HandlerOption) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &Handler{
		ctrl:    ctrl,
		store:   store,
		appName: appName,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type action func(ctx context.Context, page controller.Page) controller.Result

// Index renders the console. A plain visit loads the patient list; the
// load that follows an action's redirect shows what the action left on
// the page, since actions that change the list already reload it.
func (h *Handler) Index(c *gin.Context) {
	sid, _ := middleware.GetSessionID(c)
	ctx := context.WithoutCancel(c.Request.Context())

	doc, err := h.store.Load(ctx, sid)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Could not load the console, please try again.", Err: err})
		return
	}

	if doc.Pending {
		if err := session.ClearPending(ctx, h.store, sid); err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Could not load the console, please try again.", Err: err})
			return
		}
	} else {
		page := session.NewPage(h.store, sid, "", nil, h.pageOpts...)
		result := h.ctrl.List(ctx, page)
		if err := page.Commit(ctx); err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Could not load the console, please try again.", Err: err})
			return
		}
		if doc, err = h.store.Load(ctx, sid); err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Could not load the console, please try again.", Err: err})
			return
		}
		h.audit(c, util.ActionPageLoad, result, "")
	}

	data := view.NewPageData(h.appName, doc.Containers, doc.Forms, doc.Busy, doc.Notifications, h.now())
	c.HTML(http.StatusOK, view.PageTemplate, data)
}

// Refresh reloads the patient list.
func (h *Handler) Refresh(c *gin.Context) {
	h.run(c, util.ActionRefresh, "", "", h.ctrl.Refresh)
}

// Create submits the create form.
func (h *Handler) Create(c *gin.Context) {
	h.run(c, util.ActionCreate, view.FormCreate, "", h.ctrl.Create)
}

// Search submits the search form.
func (h *Handler) Search(c *gin.Context) {
	h.run(c, util.ActionSearch, view.FormSearch, view.FieldSearchID, h.ctrl.Search)
}

// Update submits the update form.
func (h *Handler) Update(c *gin.Context) {
	h.run(c, util.ActionUpdate, view.FormUpdate, view.FieldUpdateID, h.ctrl.Update)
}

// Delete submits the delete form.
func (h *Handler) Delete(c *gin.Context) {
	h.run(c, util.ActionDelete, view.FormDelete, view.FieldDeleteID, h.ctrl.Delete)
}

// EditCard copies a listed patient into the update form.
func (h *Handler) EditCard(c *gin.Context) {
	h.run(c, util.ActionCardEdit, "", cardIDField, func(ctx context.Context, page controller.Page) controller.Result {
		return h.ctrl.Edit(ctx, page, c.PostForm(cardIDField))
	})
}

// DeleteCard deletes a listed patient.
func (h *Handler) DeleteCard(c *gin.Context) {
	h.run(c, util.ActionCardDelete, "", cardIDField, func(ctx context.Context, page controller.Page) controller.Result {
		return h.ctrl.DeleteCard(ctx, page, c.PostForm(cardIDField))
	})
}

// Health reports that the console is serving.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// NotFound renders the error page for unknown paths.
func (h *Handler) NotFound(c *gin.Context) {
	util.CallErrorNotFound(c, util.APIErrorParams{
		Msg: "The page you are looking for does not exist.",
		Err: fmt.Errorf("no route for %s %s", c.Request.Method, c.Request.URL.Path),
	})
}

// cardIDField is the hidden input carrying the patient id of a card.
const cardIDField = "id"

// run executes act against the session page and redirects to the console.
// The action outlives the request so a closed tab does not abandon a
// mutation halfway.
func (h *Handler) run(c *gin.Context, name util.AuditAction, form, idField string, act action) {
	if err := c.Request.ParseForm(); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "The submitted form could not be read.", Err: err})
		return
	}
	sid, _ := middleware.GetSessionID(c)
	ctx := context.WithoutCancel(c.Request.Context())

	page := session.NewPage(h.store, sid, form, c.Request.PostForm, h.pageOpts...)
	result := act(ctx, page)
	page.MarkPending()
	if err := page.Commit(ctx); err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Could not save the console state, please try again.", Err: err})
		return
	}

	var patientID string
	if idField != "" {
		patientID = c.Request.PostForm.Get(idField)
	}
	h.audit(c, name, result, patientID)

	c.Redirect(http.StatusSeeOther, "/"+page.Anchor())
}

func (h *Handler) audit(c *gin.Context, name util.AuditAction, result controller.Result, patientID string) {
	sid, _ := middleware.GetSessionID(c)
	util.LogAuditEvent(util.AuditEvent{
		Action:    name,
		Result:    string(result),
		PatientID: patientID,
		SessionID: sid,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path),
		Details: map[string]interface{}{
			"request_id": middleware.GetRequestID(c),
		},
	})
}
