package realtime

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marguerite.stanford.edu/internal/logging"
	"marguerite.stanford.edu/internal/models"
	"marguerite.stanford.edu/internal/utils"
)

// QuirkRouteID is the vendor route id whose vehicles are looked up under the
// literal id "8888" instead of their own vehicle id.
const QuirkRouteID = "8888"

const goodGPSStatus = "good"

// VehicleRecord is one usable vehicle from the feed.
type VehicleRecord struct {
	VehicleID  string
	RouteID    string
	TripID     string
	Location   models.Location
	Heading    *float64
	Speed      *float64
	ReportedAt time.Time
}

// LookupID is the id sent to the mapping service for this record.
func (r VehicleRecord) LookupID() string {
	if r.RouteID == QuirkRouteID {
		return QuirkRouteID
	}
	return r.VehicleID
}

type feedDocument struct {
	XMLName  xml.Name
	Vehicles []feedVehicle `xml:"vehicle"`
}

type feedVehicle struct {
	GPSStatus  string `xml:"gps-status,attr"`
	OpStatus   string `xml:"op-status,attr"`
	CommStatus string `xml:"comm-status,attr"`
	Name       string `xml:"name"`
	RouteID    string `xml:"routeid"`
	TripID     string `xml:"tripid"`
	Latitude   string `xml:"latitude"`
	Longitude  string `xml:"longitude"`
	Heading    string `xml:"heading"`
	Speed      string `xml:"speed"`
	Time       string `xml:"time"`
}

// FeedStats counts what happened to the vehicles of one document.
type FeedStats struct {
	Vehicles  int
	BadGPS    int
	Malformed int
	InDepot   int
}

// ParseFeed decodes a vehicle feed document. Vehicles without a good GPS fix
// are skipped, as are vehicles with a missing name or unusable coordinates.
// A document that is not well-formed or has no vehicle elements is an error.
func ParseFeed(r io.Reader) ([]VehicleRecord, FeedStats, error) {
	var stats FeedStats
	var doc feedDocument
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = passThroughCharset
	if err := decoder.Decode(&doc); err != nil {
		return nil, stats, newMalformedFeedError(err)
	}

	stats.Vehicles = len(doc.Vehicles)
	if stats.Vehicles == 0 {
		return nil, stats, newMalformedFeedError(errors.New("document has no vehicle elements"))
	}

	records := make([]VehicleRecord, 0, len(doc.Vehicles))
	for _, v := range doc.Vehicles {
		if strings.TrimSpace(v.GPSStatus) != goodGPSStatus {
			stats.BadGPS++
			continue
		}
		record, ok := v.record()
		if !ok {
			stats.Malformed++
			continue
		}
		records = append(records, record)
	}

	return records, stats, nil
}

// The feed only carries ASCII payloads, so single-byte declared charsets are
// read as is.
func passThroughCharset(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "us-ascii", "ascii", "iso-8859-1", "latin1", "windows-1252":
		return input, nil
	}
	return nil, fmt.Errorf("unsupported charset %q", charset)
}

func (v feedVehicle) record() (VehicleRecord, bool) {
	name := strings.TrimSpace(v.Name)
	if name == "" {
		return VehicleRecord{}, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(v.Latitude), 64)
	if err != nil || !utils.IsFinite(lat) || lat < -90 || lat > 90 {
		return VehicleRecord{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(v.Longitude), 64)
	if err != nil || !utils.IsFinite(lon) || lon < -180 || lon > 180 {
		return VehicleRecord{}, false
	}

	return VehicleRecord{
		VehicleID:  name,
		RouteID:    strings.TrimSpace(v.RouteID),
		TripID:     strings.TrimSpace(v.TripID),
		Location:   models.Location{Lat: lat, Lon: lon},
		Heading:    optionalHeading(v.Heading),
		Speed:      optionalFloat(v.Speed),
		ReportedAt: parseReportTime(v.Time),
	}, true
}

// optionalFloat parses a finite number. NaN and infinities read as absent.
func optionalFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !utils.IsFinite(f) {
		return nil
	}
	return &f
}

// optionalHeading is optionalFloat folded into [0, 360).
func optionalHeading(s string) *float64 {
	f := optionalFloat(s)
	if f == nil {
		return nil
	}
	h := utils.NormalizeHeading(*f)
	return &h
}

var reportTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
}

// parseReportTime accepts epoch seconds or milliseconds and a few timestamp
// layouts. Unparseable values yield the zero time.
func parseReportTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n)
		}
		return time.Unix(n, 0)
	}
	for _, layout := range reportTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FilterDepot drops records located strictly inside the depot polygon.
func FilterDepot(records []VehicleRecord, depot models.Polygon) ([]VehicleRecord, int) {
	kept := records[:0:0]
	dropped := 0
	for _, r := range records {
		if depot.Contains(r.Location) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}

// FeedFetcher downloads the vendor vehicle feed.
type FeedFetcher struct {
	url     string
	client  *http.Client
	depot   models.Polygon
	logger  *slog.Logger
	metrics MetricsRecorder
}

func NewFeedFetcher(url string, client *http.Client, depot models.Polygon, logger *slog.Logger, metrics MetricsRecorder) *FeedFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &FeedFetcher{
		url:     url,
		client:  client,
		depot:   depot,
		logger:  logging.Component(logger, "vehicle_feed_fetcher"),
		metrics: metrics,
	}
}

// maxResponseBytes caps the feed and lookup bodies read into memory.
const maxResponseBytes = 4 << 20

var errResponseTooLarge = fmt.Errorf("response body exceeds %d bytes", maxResponseBytes)

func readResponseBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseBytes {
		return nil, errResponseTooLarge
	}
	return body, nil
}

// Fetch performs one GET of the feed and returns the usable records outside
// the depot. It never retries.
func (f *FeedFetcher) Fetch(ctx context.Context) ([]VehicleRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, newTransportError("fetch", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newTransportError("fetch", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, f.logger, "feed_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newTransportError("fetch", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := readResponseBody(resp.Body)
	if errors.Is(err, errResponseTooLarge) {
		return nil, newMalformedFeedError(err)
	}
	if err != nil {
		return nil, newTransportError("fetch", err)
	}

	records, stats, err := ParseFeed(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	records, stats.InDepot = FilterDepot(records, f.depot)

	f.metrics.RecordDropped("bad_gps", stats.BadGPS)
	f.metrics.RecordDropped("malformed", stats.Malformed)
	f.metrics.RecordDropped("depot", stats.InDepot)

	f.logger.Debug("vehicle_feed_fetched",
		slog.Int("vehicles", stats.Vehicles),
		slog.Int("usable", len(records)),
		slog.Int("bad_gps", stats.BadGPS),
		slog.Int("malformed", stats.Malformed),
		slog.Int("in_depot", stats.InDepot))

	return records, nil
}
