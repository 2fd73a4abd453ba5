package realtime

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"marguerite.stanford.edu/internal/models"
)

//go:embed data/marguerite.yaml
var defaultTablesYAML []byte

type depotVertex struct {
	Lat float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `yaml:"lon" validate:"gte=-180,lte=180"`
}

// StaticTables is the vendor configuration of the pipeline: the farebox
// translation table and the depot polygon.
type StaticTables struct {
	Farebox  map[string]string `yaml:"farebox" validate:"required,min=1,dive,keys,numeric,endkeys,required"`
	Unmapped []string          `yaml:"unmapped" validate:"dive,numeric"`
	Depot    []depotVertex     `yaml:"depot" validate:"min=3,dive"`
}

// LoadStaticTables reads tables from path, or the bundled defaults when path is empty.
func LoadStaticTables(path string) (*StaticTables, error) {
	data := defaultTablesYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading static tables: %w", err)
		}
		data = b
	}
	return ParseStaticTables(data)
}

func ParseStaticTables(data []byte) (*StaticTables, error) {
	var tables StaticTables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("decoding static tables: %w", err)
	}

	v := validator.New()
	if err := v.Struct(tables); err != nil {
		return nil, fmt.Errorf("invalid static tables: %w", err)
	}

	for _, code := range tables.Unmapped {
		if _, ok := tables.Farebox[code]; ok {
			return nil, fmt.Errorf("invalid static tables: farebox code %s is both mapped and unmapped", code)
		}
	}

	return &tables, nil
}

// DepotPolygon returns the depot boundary.
func (t *StaticTables) DepotPolygon() models.Polygon {
	polygon := make(models.Polygon, len(t.Depot))
	for i, v := range t.Depot {
		polygon[i] = models.Location{Lat: v.Lat, Lon: v.Lon}
	}
	return polygon
}

// FareboxTable builds the lookup used by the resolver.
func (t *StaticTables) FareboxTable() FareboxTable {
	table := FareboxTable{
		routes:   make(map[int]string, len(t.Farebox)),
		unmapped: make(map[int]struct{}, len(t.Unmapped)),
	}
	for code, routeID := range t.Farebox {
		n, _ := strconv.Atoi(code)
		table.routes[n] = routeID
	}
	for _, code := range t.Unmapped {
		n, _ := strconv.Atoi(code)
		table.unmapped[n] = struct{}{}
	}
	return table
}

// FareboxTable translates vendor farebox route codes into published route ids.
// It is immutable once built.
type FareboxTable struct {
	routes   map[int]string
	unmapped map[int]struct{}
}

// PublishedRouteID returns the published route for a farebox code. Codes that
// are non-numeric, explicitly unmapped, or unknown report false.
func (t FareboxTable) PublishedRouteID(farebox string) (string, bool) {
	code, err := strconv.Atoi(strings.TrimSpace(farebox))
	if err != nil {
		return "", false
	}
	if _, ok := t.unmapped[code]; ok {
		return "", false
	}
	routeID, ok := t.routes[code]
	return routeID, ok
}

// IsExplicitlyUnmapped reports whether code is a known non-passenger code.
func (t FareboxTable) IsExplicitlyUnmapped(farebox string) bool {
	code, err := strconv.Atoi(strings.TrimSpace(farebox))
	if err != nil {
		return false
	}
	_, ok := t.unmapped[code]
	return ok
}

func (t FareboxTable) Len() int { return len(t.routes) }
