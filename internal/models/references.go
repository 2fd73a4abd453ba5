package models

// ReferencesModel carries the agencies, routes and stops referenced by a response entry.
type ReferencesModel struct {
	Agencies []AgencyReference `json:"agencies"`
	Routes   []Route           `json:"routes"`
	Stops    []Stop            `json:"stops"`
}

// NewEmptyReferences creates a new empty References model with initialized empty slices
func NewEmptyReferences() ReferencesModel {
	return ReferencesModel{
		Agencies: []AgencyReference{},
		Routes:   []Route{},
		Stops:    []Stop{},
	}
}

// AddRoute appends r unless a route with the same ID is already referenced.
func (refs *ReferencesModel) AddRoute(r Route) {
	for _, existing := range refs.Routes {
		if existing.ID == r.ID {
			return
		}
	}
	refs.Routes = append(refs.Routes, r)
}
