package app

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"marguerite.stanford.edu/internal/appconf"
)

func TestIsInvalidAPIKey(t *testing.T) {
	app := &Application{
		Config: appconf.Config{
			ApiKeys: []string{"key", "marguerite-ios"},
		},
	}

	t.Run("blank key is invalid", func(t *testing.T) {
		assert.True(t, app.IsInvalidAPIKey(""))
	})

	t.Run("configured keys are valid", func(t *testing.T) {
		assert.False(t, app.IsInvalidAPIKey("key"))
		assert.False(t, app.IsInvalidAPIKey("marguerite-ios"))
	})

	t.Run("unknown and prefix keys are invalid", func(t *testing.T) {
		assert.True(t, app.IsInvalidAPIKey("nope"))
		assert.True(t, app.IsInvalidAPIKey("ke"))
	})

	t.Run("from the request query", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/where/routes.json?key=key", nil)
		assert.False(t, app.RequestHasInvalidAPIKey(r))

		r = httptest.NewRequest("GET", "/api/where/routes.json", nil)
		assert.True(t, app.RequestHasInvalidAPIKey(r))
	})
}

func TestShutdownWithoutDependencies(t *testing.T) {
	app := &Application{}
	assert.NotPanics(t, app.Shutdown)
}
