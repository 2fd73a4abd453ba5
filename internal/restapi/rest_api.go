package restapi

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"marguerite.stanford.edu/internal/app"
	"marguerite.stanford.edu/internal/logging"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second),
	}
}

// Handler is a router with every API route behind the middleware chain.
func (api *RestAPI) Handler() http.Handler {
	router := httprouter.New()
	api.SetRoutes(router)
	return api.WithMiddleware(router)
}

// WithMiddleware wraps next in request logging, security headers and compression.
func (api *RestAPI) WithMiddleware(next http.Handler) http.Handler {
	logger := logging.Component(api.Logger, "http_server")
	return NewRequestLoggingMiddleware(logger)(securityHeaders(CompressionMiddleware(next)))
}

// Stop releases the rate limiter's cleanup goroutine.
func (api *RestAPI) Stop() {
	api.rateLimiter.Stop()
}
