package models

// Route is a published Marguerite line as loaded from the static feed.
type Route struct {
	ID        string `json:"id"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName,omitempty"`
	Color     string `json:"color"`
	TextColor string `json:"textColor"`
	URL       string `json:"url"`
}

// Long names of this length or shorter just repeat the short name.
const minLongNameLength = 4

// NewRoute applies the Marguerite naming rules to a raw routes.txt row.
func NewRoute(id, shortName, longName, color, textColor, url string) Route {
	route := Route{
		ID:        id,
		ShortName: shortName,
		Color:     color,
		TextColor: textColor,
		URL:       url,
	}

	if len(longName) >= minLongNameLength {
		route.LongName = longName
	}

	switch longName {
	case "Va Tram":
		route.ShortName = "VA"
	case "Mc Holiday":
		route.ShortName = "MCH"
		route.LongName = "MC Holiday"
	}

	return route
}

// DisplayName is the long name when present, otherwise the short name.
func (r Route) DisplayName() string {
	if r.LongName != "" {
		return r.LongName
	}
	return r.ShortName
}
