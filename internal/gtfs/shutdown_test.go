package gtfs

import (
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marguerite.stanford.edu/internal/models"
	"marguerite.stanford.edu/internal/realtime"
)

func shutdownWithin(t *testing.T, manager *Manager, limit time.Duration) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		manager.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(limit):
		t.Fatal("Shutdown took too long")
	}
}

func TestManagerShutdown(t *testing.T) {
	manager, err := InitGTFSManager(testConfig(t))
	require.NoError(t, err)
	assert.NotEmpty(t, manager.Agencies())

	shutdownWithin(t, manager, 5*time.Second)
}

func TestManagerShutdownIdempotent(t *testing.T) {
	manager, err := InitGTFSManager(testConfig(t))
	require.NoError(t, err)

	manager.Shutdown()
	manager.Shutdown()
}

func TestManagerRealtimeWiring(t *testing.T) {
	t.Run("disabled without a lookup URL", func(t *testing.T) {
		config := testConfig(t)
		config.Realtime = realtime.DefaultConfig()

		manager := newTestManager(t, config)
		assert.Nil(t, manager.Shuttles())
	})

	t.Run("controller resolves routes from the catalog", func(t *testing.T) {
		feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<vehicle-locations>
  <vehicle gps-status="good" op-status="none" comm-status="good">
    <name>12</name><routeid>40</routeid><latitude>37.4291</latitude><longitude>-122.1695</longitude>
  </vehicle>
</vehicle-locations>`))
		}))
		defer feed.Close()
		lookup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"DATA":[["12","32"]]}`))
		}))
		defer lookup.Close()

		config := testConfig(t)
		config.Realtime = realtime.Config{
			FeedURL:      feed.URL,
			LookupURL:    lookup.URL,
			PollInterval: time.Hour,
		}
		manager, err := InitGTFSManager(config)
		require.NoError(t, err)

		controller := manager.Shuttles()
		require.NotNil(t, controller)
		assert.Equal(t, realtime.StateIdle, controller.State(), "polling waits for a viewer")

		events, _ := controller.Subscribe()
		controller.SetViewingLiveMap(true)

		deadline := time.After(5 * time.Second)
		for done := false; !done; {
			select {
			case ev, ok := <-events:
				require.True(t, ok)
				if ev.Type == realtime.EventPollingFailed {
					t.Fatalf("cycle failed: %s", ev.Message)
				}
				done = ev.Type == realtime.EventPollingSucceeded
			case <-deadline:
				t.Fatal("no successful cycle")
			}
		}

		shuttles := controller.CurrentShuttles()
		require.Len(t, shuttles, 1)
		assert.Equal(t, "Y: 12", shuttles[0].Title())
		assert.Equal(t, "FFD200", shuttles[0].Route.Color)

		shutdownWithin(t, manager, 5*time.Second)
		assert.Equal(t, realtime.StateIdle, controller.State())
	})
}

func TestManagerStaticRefresh(t *testing.T) {
	zip, err := os.ReadFile(models.GetFixturePath(t, "marguerite.zip"))
	require.NoError(t, err)

	var downloads atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		_, _ = w.Write(zip)
	}))
	defer server.Close()

	config := testConfig(t)
	config.GtfsURL = server.URL + "/marguerite.zip"
	config.StaticRefreshInterval = 20 * time.Millisecond

	manager, err := InitGTFSManager(config)
	require.NoError(t, err)
	initialLoad := manager.LastUpdated()

	assert.Eventually(t, func() bool {
		return downloads.Load() >= 3 && manager.LastUpdated().After(initialLoad)
	}, 5*time.Second, 10*time.Millisecond)

	assert.Len(t, manager.Routes(), 6, "unchanged data keeps the catalog intact")
	shutdownWithin(t, manager, 5*time.Second)
}

func TestConcurrentCatalogAccess(t *testing.T) {
	manager := newTestManager(t, testConfig(t))

	var wg sync.WaitGroup
	done := make(chan struct{})

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					assert.Len(t, manager.Routes(), 6)
					_, ok := manager.RouteByID("40")
					assert.True(t, ok)
					assert.Len(t, manager.ClosestStops(37.43, -122.17, 3), 3)
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		c := manager.currentCatalog()
		manager.setCatalog(c)
		time.Sleep(time.Millisecond)
	}
	close(done)
	wg.Wait()
}
