package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marguerite.stanford.edu/internal/publisher"
	"marguerite.stanford.edu/internal/realtime"
)

var (
	_ realtime.MetricsRecorder   = (*Collector)(nil)
	_ publisher.PublisherMetrics = (*Collector)(nil)
)

func TestCollector_Recording(t *testing.T) {
	c := NewCollector(15 * time.Second)

	t.Run("poll interval gauge", func(t *testing.T) {
		assert.Equal(t, 15.0, testutil.ToFloat64(c.PollInterval))
	})

	t.Run("cycles by result", func(t *testing.T) {
		c.RecordCycle("succeeded", 120*time.Millisecond)
		c.RecordCycle("succeeded", 80*time.Millisecond)
		c.RecordCycle("failed", time.Second)

		assert.Equal(t, 2.0, testutil.ToFloat64(c.PollCycles.WithLabelValues("succeeded")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.PollCycles.WithLabelValues("failed")))
		assert.Equal(t, 1, testutil.CollectAndCount(c.CycleDuration))
	})

	t.Run("dropped records ignore empty counts", func(t *testing.T) {
		c.RecordDropped("depot", 3)
		c.RecordDropped("depot", 0)
		c.RecordDropped("bad_gps", 1)

		assert.Equal(t, 3.0, testutil.ToFloat64(c.DroppedRecords.WithLabelValues("depot")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.DroppedRecords.WithLabelValues("bad_gps")))
	})

	t.Run("retries and active shuttles", func(t *testing.T) {
		c.RecordRetry()
		c.SetActiveShuttles(7)
		c.SetActiveShuttles(4)

		assert.Equal(t, 1.0, testutil.ToFloat64(c.PollRetries))
		assert.Equal(t, 4.0, testutil.ToFloat64(c.ActiveShuttles))
	})

	t.Run("nats", func(t *testing.T) {
		c.NATSSetConnected(true)
		assert.Equal(t, 1.0, testutil.ToFloat64(c.NATSConnected))
		c.NATSSetConnected(false)
		assert.Equal(t, 0.0, testutil.ToFloat64(c.NATSConnected))

		c.NATSPublishedInc()
		c.NATSPublishErrInc()
		c.PublishObserve(time.Millisecond)
		assert.Equal(t, 1.0, testutil.ToFloat64(c.NATSPublished))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.NATSPublishErrs))
	})
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(time.Minute)
	c.RecordCycle("succeeded", time.Millisecond)

	server := httptest.NewServer(c.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `marguerite_poll_cycles_total{result="succeeded"} 1`)
	assert.Contains(t, string(body), "marguerite_poll_interval_seconds 60")
	assert.NotContains(t, string(body), "go_goroutines", "private registry has no default collectors")
}
