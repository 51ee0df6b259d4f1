package util

import (
	"net/http"
	"sync"

	"github.com/ariebrainware/patient-console/view"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// APIErrorParams describes a failed request. Msg is shown to the user; Err
// is logged only.
type APIErrorParams struct {
	Msg string
	Err error
}

var (
	errorRenderer     *view.Renderer
	errorRendererOnce sync.Once
)

func renderer() *view.Renderer {
	errorRendererOnce.Do(func() {
		errorRenderer = view.MustRenderer()
	})
	return errorRenderer
}

func callError(c *gin.Context, status int, params APIErrorParams) {
	entry := auditLogger.WithFields(logrus.Fields{
		"status": status,
		"path":   c.Request.URL.Path,
	})
	if params.Err != nil {
		entry = entry.WithError(params.Err)
	}
	entry.Warn(params.Msg)

	html, err := renderer().RenderError(view.ErrorPage{
		Status:  status,
		Title:   http.StatusText(status),
		Message: params.Msg,
	})
	if err != nil {
		c.String(status, "%s", params.Msg)
		c.Abort()
		return
	}
	c.Data(status, "text/html; charset=utf-8", []byte(html))
	c.Abort()
}

// CallErrorNotFound responds with a 404 page
func CallErrorNotFound(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusNotFound, params)
}

// CallUserError is for return error from user side
func CallUserError(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusBadRequest, params)
}

// CallServerError responds with a 500 page
func CallServerError(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusInternalServerError, params)
}

// CallTooManyRequests responds with a 429 page
func CallTooManyRequests(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusTooManyRequests, params)
}
