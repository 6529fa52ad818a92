package geojson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/citilab/route-survey/schema"
)

type GeoFeature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   schema.Geometry        `json:"geometry"`
}

type GeoJSON struct {
	Name     string       `json:"name"`
	Features []GeoFeature `json:"features"`
}

// PropertyMapping tells which feature properties hold the names of a
// boundary. A fixed Country is used when CountryProperty is empty.
type PropertyMapping struct {
	Country         string
	CountryProperty string
	StateProperty   string
	CountyProperty  string
}

func property(f GeoFeature, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	v, ok := f.Properties[key].(string)
	if !ok {
		return "", fmt.Errorf("invalid %s value, %+v", key, f.Properties[key])
	}
	return v, nil
}

// DecodeBoundaries reads the polygons of a feature collection as
// boundaries
func DecodeBoundaries(r io.Reader, mapping PropertyMapping) ([]schema.Boundary, error) {
	var result GeoJSON
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, err
	}

	boundaries := make([]schema.Boundary, 0, len(result.Features))
	for i, f := range result.Features {
		switch f.Geometry.Type {
		case "Polygon", "MultiPolygon":
		default:
			return nil, fmt.Errorf("feature %d: %s is not an area", i, f.Geometry.Type)
		}

		country := mapping.Country
		if mapping.CountryProperty != "" {
			var err error
			if country, err = property(f, mapping.CountryProperty); err != nil {
				return nil, err
			}
		}
		state, err := property(f, mapping.StateProperty)
		if err != nil {
			return nil, err
		}
		county, err := property(f, mapping.CountyProperty)
		if err != nil {
			return nil, err
		}

		boundaries = append(boundaries, schema.Boundary{
			Country:  country,
			State:    state,
			County:   county,
			Geometry: f.Geometry,
		})
	}

	return boundaries, nil
}

// ImportBoundary inserts the boundaries of a feature collection into the
// boundary collection and returns how many were inserted
func ImportBoundary(ctx context.Context, client *mongo.Client, dbName string, r io.Reader, mapping PropertyMapping) (int, error) {
	boundaries, err := DecodeBoundaries(r, mapping)
	if err != nil {
		return 0, err
	}
	if len(boundaries) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, len(boundaries))
	for i, b := range boundaries {
		docs[i] = b
	}

	result, err := client.Database(dbName).Collection(schema.BoundaryCollection).InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"prefix":   "geojson",
		"database": dbName,
		"count":    len(result.InsertedIDs),
	}).Info("boundaries imported")

	return len(result.InsertedIDs), nil
}
