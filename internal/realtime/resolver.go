package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"marguerite.stanford.edu/internal/logging"
)

// Mapping is the result of one resolve call: lookup id to published route id.
// Vehicles whose farebox code has no published route are absent.
type Mapping struct {
	routes map[string]string
}

func NewMapping() Mapping {
	return Mapping{routes: map[string]string{}}
}

func (m Mapping) Set(lookupID, publishedRouteID string) {
	m.routes[lookupID] = publishedRouteID
}

// PublishedRouteID returns the published route for a lookup id.
func (m Mapping) PublishedRouteID(lookupID string) (string, bool) {
	routeID, ok := m.routes[lookupID]
	return routeID, ok
}

// RouteFor finds the published route of a record by its vehicle id, falling
// back to the id it was sent under.
func (m Mapping) RouteFor(record VehicleRecord) (string, bool) {
	if routeID, ok := m.routes[record.VehicleID]; ok {
		return routeID, true
	}
	if lookupID := record.LookupID(); lookupID != record.VehicleID {
		return m.PublishedRouteID(lookupID)
	}
	return "", false
}

func (m Mapping) Len() int { return len(m.routes) }

// LookupIDs returns the ids sent to the mapping service, in record order.
func LookupIDs(records []VehicleRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.LookupID())
	}
	return ids
}

type mappingResponse struct {
	Data *[][]json.RawMessage `json:"DATA"`
}

// ParseMappingResponse decodes {"DATA":[[vehicleId, fareboxId], ...]} and
// translates each farebox code with table. Pairs that are not of length two
// are skipped.
func ParseMappingResponse(body []byte, table FareboxTable) (Mapping, error) {
	var resp mappingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Mapping{}, newMalformedMappingError(err)
	}
	if resp.Data == nil {
		return Mapping{}, newMalformedMappingError(errors.New("missing DATA field"))
	}

	mapping := NewMapping()
	for _, pair := range *resp.Data {
		if len(pair) != 2 {
			continue
		}
		vehicleID, ok := scalarString(pair[0])
		if !ok {
			continue
		}
		farebox, ok := scalarString(pair[1])
		if !ok {
			continue
		}
		if routeID, ok := table.PublishedRouteID(farebox); ok {
			mapping.Set(vehicleID, routeID)
		}
	}
	return mapping, nil
}

// scalarString reads a JSON string or number as its textual form.
func scalarString(raw json.RawMessage) (string, bool) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), true
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err == nil {
		return n.String(), true
	}
	return "", false
}

// RouteResolver asks the vendor mapping service which farebox route each
// vehicle is signed on.
type RouteResolver struct {
	url    string
	client *http.Client
	table  FareboxTable
	logger *slog.Logger
}

func NewRouteResolver(url string, client *http.Client, table FareboxTable, logger *slog.Logger) *RouteResolver {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RouteResolver{
		url:    url,
		client: client,
		table:  table,
		logger: logging.Component(logger, "route_resolver"),
	}
}

// Resolve issues a single POST for all records. An empty record list
// resolves to an empty mapping without a request.
func (r *RouteResolver) Resolve(ctx context.Context, records []VehicleRecord) (Mapping, error) {
	if len(records) == 0 {
		return NewMapping(), nil
	}

	form := url.Values{}
	form.Set("name", strings.Join(LookupIDs(records), ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, strings.NewReader(form.Encode()))
	if err != nil {
		return Mapping{}, newTransportError("resolve", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Mapping{}, newTransportError("resolve", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, r.logger, "mapping_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Mapping{}, newTransportError("resolve", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := readResponseBody(resp.Body)
	if errors.Is(err, errResponseTooLarge) {
		return Mapping{}, newMalformedMappingError(err)
	}
	if err != nil {
		return Mapping{}, newTransportError("resolve", err)
	}

	mapping, err := ParseMappingResponse(body, r.table)
	if err != nil {
		return Mapping{}, err
	}

	r.logger.Debug("vehicle_routes_resolved",
		slog.Int("requested", len(records)),
		slog.Int("mapped", mapping.Len()))

	return mapping, nil
}
