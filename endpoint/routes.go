package endpoint

import (
	"net/http"

	"github.com/ariebrainware/patient-console/view"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the console on r. guards run before every form
// submission, typically the rate limiter.
func (h *Handler) RegisterRoutes(r *gin.Engine, renderer *view.Renderer, guards ...gin.HandlerFunc) {
	r.SetHTMLTemplate(renderer.Templates())
	r.StaticFS("/static", http.FS(view.StaticFS()))

	r.GET("/", h.Index)
	r.GET("/healthz", h.Health)

	patients := r.Group("/patients", guards...)
	patients.POST("/refresh", h.Refresh)
	patients.POST("/create", h.Create)
	patients.POST("/search", h.Search)
	patients.POST("/update", h.Update)
	patients.POST("/delete", h.Delete)
	patients.POST("/card/edit", h.EditCard)
	patients.POST("/card/delete", h.DeleteCard)

	r.NoRoute(h.NotFound)
}
