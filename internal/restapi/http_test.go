package restapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"marguerite.stanford.edu/internal/app"
	"marguerite.stanford.edu/internal/appconf"
	"marguerite.stanford.edu/internal/gtfs"
	"marguerite.stanford.edu/internal/logging"
	"marguerite.stanford.edu/internal/models"
	"marguerite.stanford.edu/internal/realtime"
)

const vendorFeed = `<vehicle-locations>
  <vehicle gps-status="good" op-status="none" comm-status="good">
    <name>12</name><routeid>40</routeid><tripid>Y1</tripid>
    <latitude>37.4291</latitude><longitude>-122.1695</longitude><heading>180</heading>
  </vehicle>
  <vehicle gps-status="good" op-status="none" comm-status="good">
    <name>77</name><routeid>40</routeid><latitude>37.4270</latitude><longitude>-122.1700</longitude>
  </vehicle>
  <vehicle gps-status="good" op-status="none" comm-status="good">
    <name>88</name><routeid>40</routeid><latitude>37.4316</latitude><longitude>-122.1822</longitude>
  </vehicle>
</vehicle-locations>`

func testGtfsConfig(t *testing.T) gtfs.Config {
	t.Helper()
	return gtfs.Config{
		GtfsURL:      models.GetFixturePath(t, "marguerite.zip"),
		GTFSDataPath: ":memory:",
		Env:          appconf.Test,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// createTestApi creates a RestAPI over the fixture feed with realtime disabled.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	return createTestApiWithConfig(t, testGtfsConfig(t))
}

func createTestApiWithConfig(t *testing.T, gtfsConfig gtfs.Config) *RestAPI {
	t.Helper()

	gtfsManager, err := gtfs.InitGTFSManager(gtfsConfig)
	require.NoError(t, err)

	application := &app.Application{
		Config: appconf.Config{
			Env:       appconf.Test,
			ApiKeys:   []string{"TEST"},
			RateLimit: 1000,
		},
		GtfsConfig:  gtfsConfig,
		Logger:      gtfsConfig.Logger,
		GtfsManager: gtfsManager,
	}

	api := NewRestAPI(application)
	t.Cleanup(func() {
		api.Stop()
		application.Shutdown()
	})
	return api
}

// createRealtimeTestApi points the shuttle pipeline at fake vendor endpoints.
func createRealtimeTestApi(t *testing.T) *RestAPI {
	t.Helper()

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, vendorFeed)
	}))
	t.Cleanup(feed.Close)
	lookup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"DATA":[["12","32"],["88","32"]]}`)
	}))
	t.Cleanup(lookup.Close)

	config := testGtfsConfig(t)
	config.Realtime = realtime.Config{
		FeedURL:      feed.URL,
		LookupURL:    lookup.URL,
		PollInterval: time.Hour,
	}
	return createTestApiWithConfig(t, config)
}

// waitForShuttles blocks until a poll cycle has produced shuttles.
func waitForShuttles(t *testing.T, api *RestAPI) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(api.GtfsManager.Shuttles().CurrentShuttles()) > 0
	}, 5*time.Second, 10*time.Millisecond)
}

// serveAndRetrieveEndpoint sets up a test server, makes a request to the specified endpoint, and returns the response
// and decoded model.
func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*RestAPI, *http.Response, models.ResponseModel) {
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, endpoint)
	return api, resp, model
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	return serveApiAndRequest(t, api, http.MethodGet, endpoint)
}

func serveApiAndRequest(t *testing.T, api *RestAPI, method, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()

	server := httptest.NewServer(api.Handler())
	defer server.Close()

	req, err := http.NewRequest(method, server.URL+endpoint, strings.NewReader(""))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	var response models.ResponseModel
	err = json.NewDecoder(resp.Body).Decode(&response)
	require.NoError(t, err)

	return resp, response
}

// dataMap returns the response data as a JSON object.
func dataMap(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object, got %T", model.Data)
	return data
}

func listOf(t *testing.T, model models.ResponseModel) []interface{} {
	t.Helper()
	list, ok := dataMap(t, model)["list"].([]interface{})
	require.True(t, ok, "list should be an array")
	return list
}

func entryOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	entry, ok := dataMap(t, model)["entry"].(map[string]interface{})
	require.True(t, ok, "entry should be an object")
	return entry
}

func referencesOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	refs, ok := dataMap(t, model)["references"].(map[string]interface{})
	require.True(t, ok, "references should be an object")
	return refs
}
