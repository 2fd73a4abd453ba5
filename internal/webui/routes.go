package webui

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"marguerite.stanford.edu/internal/app"
)

// WebUI serves the debugging pages.
type WebUI struct {
	*app.Application
}

func (webUI *WebUI) SetWebUIRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/debug/", webUI.debugIndexHandler)
}
