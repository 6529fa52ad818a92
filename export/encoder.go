package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/citilab/route-survey/schema"
)

const (
	ContentTypeCSV     = "text/csv"
	ContentTypeGeoJSON = "application/geo+json"
	ContentTypeZip     = "application/zip"
)

// File - a named artifact
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Row returns the csv header and the single data row of a record laid out
// by columns. The route is only read for the route_geojson column.
func Row(record schema.SurveyRecord, route schema.RouteGeometry, columns []schema.Column) ([]string, []string, error) {
	header := make([]string, 0, len(columns))
	row := make([]string, 0, len(columns))

	for _, c := range columns {
		header = append(header, c.Header)

		if c.Field == schema.FieldRouteGeoJSON {
			b, err := json.Marshal(route)
			if err != nil {
				return nil, nil, err
			}
			row = append(row, string(b))
			continue
		}

		v, ok := record.Value(c.Field)
		if !ok {
			return nil, nil, fmt.Errorf("unknown record field %q", c.Field)
		}
		row = append(row, v)
	}

	return header, row, nil
}

// EncodeCSV writes a header line and one data line, without an index column
func EncodeCSV(header, row []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.Write(row); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeGeoJSON renders the collection with a 2-space indent
func EncodeGeoJSON(fc schema.FeatureCollection) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return nil, err
	}
	// Encode terminates the document with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// BundleZip deflates the files into one archive in the given order. Every
// member carries the same modification time so the output only depends on
// its inputs.
func BundleZip(modified time.Time, files ...File) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
