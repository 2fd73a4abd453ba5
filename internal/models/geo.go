package models

// Location is a WGS84 coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Edge struct {
	A Location
	B Location
}

func NewEdge(a, b Location) Edge {
	return Edge{A: a, B: b}
}

// Polygon is a closed ring of vertices; the last vertex connects back to the first.
type Polygon []Location

func (p Polygon) Edges() []Edge {
	if len(p) < 2 {
		return nil
	}
	edges := make([]Edge, 0, len(p))
	for i := range p {
		edges = append(edges, NewEdge(p[i], p[(i+1)%len(p)]))
	}
	return edges
}

// Contains reports whether pt lies inside the polygon using even-odd ray
// casting along the longitude axis. Points exactly on an edge may land on
// either side.
func (p Polygon) Contains(pt Location) bool {
	if len(p) < 3 {
		return false
	}

	inside := false
	for _, e := range p.Edges() {
		if (e.A.Lat > pt.Lat) == (e.B.Lat > pt.Lat) {
			continue
		}
		crossLon := e.A.Lon + (pt.Lat-e.A.Lat)*(e.B.Lon-e.A.Lon)/(e.B.Lat-e.A.Lat)
		if pt.Lon < crossLon {
			inside = !inside
		}
	}
	return inside
}
