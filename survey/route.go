package survey

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/citilab/route-survey/schema"
)

var (
	ErrNoRouteDrawn        = errors.New("no route drawn")
	ErrUnsupportedGeometry = errors.New("unsupported route geometry")
)

// RouteLabels - place names of the route endpoints
type RouteLabels struct {
	Origin      string
	Destination string
}

// RouteLabeler - names the endpoints of a route
type RouteLabeler interface {
	Label(ctx context.Context, route schema.RouteGeometry) (RouteLabels, error)
}

type drawing struct {
	Type        string          `json:"type"`
	Geometry    json.RawMessage `json:"geometry"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ParseRoute reads the last drawing of the map. It accepts a drawn feature
// or a bare geometry; either must be a line of at least two positions.
func ParseRoute(raw json.RawMessage) (schema.RouteGeometry, error) {
	if isEmpty(raw) {
		return schema.RouteGeometry{}, ErrNoRouteDrawn
	}

	var d drawing
	if err := json.Unmarshal(raw, &d); err != nil {
		return schema.RouteGeometry{}, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, err)
	}

	if d.Type == schema.FeatureType || len(d.Geometry) > 0 {
		if d.Type != "" && d.Type != schema.FeatureType {
			return schema.RouteGeometry{}, fmt.Errorf("%w: %s with a geometry", ErrUnsupportedGeometry, d.Type)
		}
		return ParseRoute(d.Geometry)
	}

	if d.Type == "" && isEmpty(d.Coordinates) {
		return schema.RouteGeometry{}, ErrNoRouteDrawn
	}
	if d.Type != schema.LineStringType {
		return schema.RouteGeometry{}, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, d.Type)
	}

	if isEmpty(d.Coordinates) {
		return schema.RouteGeometry{}, ErrNoRouteDrawn
	}

	var coordinates [][]float64
	if err := json.Unmarshal(d.Coordinates, &coordinates); err != nil {
		return schema.RouteGeometry{}, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, err)
	}
	if len(coordinates) == 0 {
		return schema.RouteGeometry{}, ErrNoRouteDrawn
	}
	if len(coordinates) < 2 {
		return schema.RouteGeometry{}, fmt.Errorf("%w: a line needs two positions", ErrUnsupportedGeometry)
	}
	for i, p := range coordinates {
		if len(p) < 2 || len(p) > 3 {
			return schema.RouteGeometry{}, fmt.Errorf("%w: position %d has %d values", ErrUnsupportedGeometry, i, len(p))
		}
		if p[0] < -180 || p[0] > 180 || p[1] < -90 || p[1] > 90 {
			return schema.RouteGeometry{}, fmt.Errorf("%w: position %d out of range", ErrUnsupportedGeometry, i)
		}
	}

	return schema.RouteGeometry{
		Type:        schema.LineStringType,
		Coordinates: coordinates,
	}, nil
}

func isEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("{}"))
}

// AttachRoute wraps the route as the single feature of a collection, tagged
// with the record id and timestamp.
func AttachRoute(record schema.SurveyRecord, route schema.RouteGeometry, labels RouteLabels) schema.FeatureCollection {
	return schema.FeatureCollection{
		Type: schema.FeatureCollectionType,
		Features: []schema.Feature{{
			Type:     schema.FeatureType,
			Geometry: route,
			Properties: schema.FeatureProperties{
				SurveyID:    record.SurveyID,
				Timestamp:   record.Timestamp,
				Origin:      labels.Origin,
				Destination: labels.Destination,
			},
		}},
	}
}
