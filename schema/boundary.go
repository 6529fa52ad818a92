package schema

const (
	BoundaryCollection = "boundary"
)

// Boundary - an administrative area used to name route endpoints
type Boundary struct {
	Country  string   `bson:"country"`
	State    string   `bson:"state"`
	County   string   `bson:"county"`
	Geometry Geometry `bson:"geometry"`
}
