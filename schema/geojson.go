package schema

const (
	FeatureCollectionType = "FeatureCollection"
	FeatureType           = "Feature"
	LineStringType        = "LineString"
)

// Geometry - generic geojson geometry, used for boundaries
type Geometry struct {
	Type        string      `json:"type" bson:"type"`
	Coordinates interface{} `json:"coordinates" bson:"coordinates"`
}

// RouteGeometry is the polyline drawn by a respondent. Every position is
// [longitude, latitude] with an optional altitude.
type RouteGeometry struct {
	Type        string      `json:"type" bson:"type"`
	Coordinates [][]float64 `json:"coordinates" bson:"coordinates"`
}

// Start returns the first position of the route as a location.
func (r RouteGeometry) Start() Location {
	if len(r.Coordinates) == 0 {
		return Location{}
	}
	return positionToLocation(r.Coordinates[0])
}

// End returns the last position of the route as a location.
func (r RouteGeometry) End() Location {
	if len(r.Coordinates) == 0 {
		return Location{}
	}
	return positionToLocation(r.Coordinates[len(r.Coordinates)-1])
}

func positionToLocation(p []float64) Location {
	if len(p) < 2 {
		return Location{}
	}
	return Location{Longitude: p[0], Latitude: p[1]}
}

// FeatureProperties are the properties attached to a route feature
type FeatureProperties struct {
	SurveyID    string `json:"survey_id" bson:"survey_id"`
	Timestamp   string `json:"timestamp" bson:"timestamp"`
	Origin      string `json:"origin,omitempty" bson:"origin,omitempty"`
	Destination string `json:"destination,omitempty" bson:"destination,omitempty"`
}

type Feature struct {
	Type       string            `json:"type" bson:"type"`
	Geometry   RouteGeometry     `json:"geometry" bson:"geometry"`
	Properties FeatureProperties `json:"properties" bson:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type" bson:"type"`
	Features []Feature `json:"features" bson:"features"`
}

type AddressComponent struct {
	Country string `json:"country" bson:"country"`
	State   string `json:"state" bson:"state"`
	County  string `json:"county" bson:"county"`
}

// Location - a resolved point on the map
type Location struct {
	Latitude         float64 `json:"latitude" bson:"latitude"`
	Longitude        float64 `json:"longitude" bson:"longitude"`
	Address          string  `json:"address,omitempty" bson:"address,omitempty"`
	AddressComponent `bson:",inline"`
}

// PlaceName returns the most specific known name of the location
func (l Location) PlaceName() string {
	switch {
	case l.County != "" && l.Country != "":
		return l.County + ", " + l.Country
	case l.County != "":
		return l.County
	case l.State != "" && l.Country != "":
		return l.State + ", " + l.Country
	case l.Country != "":
		return l.Country
	}
	return l.Address
}
