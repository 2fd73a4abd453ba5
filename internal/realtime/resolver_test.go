package realtime

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupIDs(t *testing.T) {
	records := []VehicleRecord{
		{VehicleID: "12", RouteID: "40"},
		{VehicleID: "31", RouteID: "8888"},
		{VehicleID: "12", RouteID: "40"},
		{VehicleID: "8888", RouteID: "2"},
	}

	assert.Equal(t, []string{"12", "8888", "12", "8888"}, LookupIDs(records))
	assert.Empty(t, LookupIDs(nil))
}

func TestParseMappingResponse(t *testing.T) {
	table := defaultTables(t).FareboxTable()

	t.Run("strings and numbers", func(t *testing.T) {
		mapping, err := ParseMappingResponse([]byte(`{"DATA":[["12","32"],[13,2],["14",70],["15","abc"],["16",1234]]}`), table)
		require.NoError(t, err)

		routeID, ok := mapping.PublishedRouteID("12")
		assert.True(t, ok)
		assert.Equal(t, "40", routeID)

		routeID, ok = mapping.PublishedRouteID("13")
		assert.True(t, ok)
		assert.Equal(t, "2", routeID)

		for _, id := range []string{"14", "15", "16"} {
			_, ok := mapping.PublishedRouteID(id)
			assert.False(t, ok, "vehicle %s has no published route", id)
		}
		assert.Equal(t, 2, mapping.Len())
	})

	t.Run("pairs of the wrong length are skipped", func(t *testing.T) {
		mapping, err := ParseMappingResponse([]byte(`{"DATA":[["12"],["13","2","x"],[],["14","3"]]}`), table)
		require.NoError(t, err)
		assert.Equal(t, 1, mapping.Len())
		routeID, _ := mapping.PublishedRouteID("14")
		assert.Equal(t, "3", routeID)
	})

	t.Run("non-scalar elements are skipped", func(t *testing.T) {
		mapping, err := ParseMappingResponse([]byte(`{"DATA":[[{"id":1},"2"],["13",null]]}`), table)
		require.NoError(t, err)
		assert.Equal(t, 0, mapping.Len())
	})

	t.Run("empty data", func(t *testing.T) {
		mapping, err := ParseMappingResponse([]byte(`{"DATA":[]}`), table)
		require.NoError(t, err)
		assert.Equal(t, 0, mapping.Len())
	})

	malformed := map[string]string{
		"missing DATA":      `{"COLUMNS":["NAME"]}`,
		"DATA not an array": `{"DATA":"12,32"}`,
		"pairs not arrays":  `{"DATA":["12","32"]}`,
		"not json":          `<html>error</html>`,
		"empty body":        ``,
	}
	for name, body := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMappingResponse([]byte(body), table)
			assert.ErrorIs(t, err, ErrMalformedMappingResponse)
		})
	}
}

func TestMappingRouteFor(t *testing.T) {
	mapping := NewMapping()
	mapping.Set("12", "40")
	mapping.Set("8888", "40")

	routeID, ok := mapping.RouteFor(VehicleRecord{VehicleID: "12", RouteID: "32"})
	assert.True(t, ok)
	assert.Equal(t, "40", routeID)

	routeID, ok = mapping.RouteFor(VehicleRecord{VehicleID: "31", RouteID: QuirkRouteID})
	assert.True(t, ok, "quirk records fall back to the id they were sent under")
	assert.Equal(t, "40", routeID)

	_, ok = mapping.RouteFor(VehicleRecord{VehicleID: "31", RouteID: "2"})
	assert.False(t, ok)
}

func TestRouteResolver(t *testing.T) {
	table := defaultTables(t).FareboxTable()

	t.Run("posts comma-joined lookup ids", func(t *testing.T) {
		var gotName, gotContentType string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			gotContentType = r.Header.Get("Content-Type")
			assert.NoError(t, r.ParseForm())
			gotName = r.PostFormValue("name")
			_, _ = w.Write([]byte(`{"DATA":[["12","32"],["8888","8888"]]}`))
		}))
		defer server.Close()

		resolver := NewRouteResolver(server.URL, server.Client(), table, nil)
		mapping, err := resolver.Resolve(context.Background(), []VehicleRecord{
			{VehicleID: "12", RouteID: "40"},
			{VehicleID: "31", RouteID: "8888"},
		})
		require.NoError(t, err)

		assert.Equal(t, "12,8888", gotName)
		assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)

		routeID, ok := mapping.RouteFor(VehicleRecord{VehicleID: "31", RouteID: "8888"})
		assert.True(t, ok)
		assert.Equal(t, "40", routeID)
	})

	t.Run("empty input issues no request", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		mapping, err := NewRouteResolver(server.URL, server.Client(), table, nil).Resolve(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, 0, mapping.Len())
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("server error is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := NewRouteResolver(server.URL, server.Client(), table, nil).
			Resolve(context.Background(), []VehicleRecord{{VehicleID: "12"}})
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("unexpected body is a malformed mapping response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ERROR":"bad request"}`))
		}))
		defer server.Close()

		_, err := NewRouteResolver(server.URL, server.Client(), table, nil).
			Resolve(context.Background(), []VehicleRecord{{VehicleID: "12"}})
		assert.ErrorIs(t, err, ErrMalformedMappingResponse)
		assert.Equal(t, ClassificationBadData, Classify(err))
	})
	t.Run("oversized body is a malformed mapping response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"DATA":[["12","32"],`))
			_, _ = w.Write(bytes.Repeat([]byte(`["1","2"],`), maxResponseBytes/10+1))
		}))
		defer server.Close()

		_, err := NewRouteResolver(server.URL, server.Client(), table, nil).
			Resolve(context.Background(), []VehicleRecord{{VehicleID: "12"}})
		assert.ErrorIs(t, err, ErrMalformedMappingResponse)
		assert.ErrorIs(t, err, errResponseTooLarge)
	})
}
