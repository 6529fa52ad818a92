package export

import (
	"errors"
	"fmt"

	"github.com/citilab/route-survey/schema"
)

var ErrUnknownDownload = errors.New("unknown download kind")

// Bundle - the artifacts derived from one record and its route
type Bundle struct {
	SurveyID string
	Header   []string
	Row      []string
	CSV      []byte
	GeoJSON  []byte
	Zip      []byte
}

// Build encodes a record and its feature collection. The collection must
// hold the route feature of the record.
func Build(record schema.SurveyRecord, fc schema.FeatureCollection, columns []schema.Column) (*Bundle, error) {
	if len(fc.Features) != 1 {
		return nil, fmt.Errorf("expected one route feature, got %d", len(fc.Features))
	}

	header, row, err := Row(record, fc.Features[0].Geometry, columns)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		SurveyID: record.SurveyID,
		Header:   header,
		Row:      row,
	}

	if b.CSV, err = EncodeCSV(header, row); err != nil {
		return nil, err
	}
	if b.GeoJSON, err = EncodeGeoJSON(fc); err != nil {
		return nil, err
	}

	modified, err := schema.ParseTimestamp(record.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("record timestamp: %w", err)
	}
	if b.Zip, err = BundleZip(modified, b.Files()...); err != nil {
		return nil, err
	}

	return b, nil
}

// Files returns the csv and geojson artifacts in archive order
func (b *Bundle) Files() []File {
	return []File{
		{Name: b.SurveyID + ".csv", ContentType: ContentTypeCSV, Data: b.CSV},
		{Name: b.SurveyID + ".geojson", ContentType: ContentTypeGeoJSON, Data: b.GeoJSON},
	}
}

// ZipFile returns the archive as offered for download
func (b *Bundle) ZipFile() File {
	return File{Name: b.SurveyID + "_files.zip", ContentType: ContentTypeZip, Data: b.Zip}
}

// Download returns the artifact of the given kind
func (b *Bundle) Download(kind string) (File, error) {
	files := b.Files()
	switch kind {
	case schema.DownloadZip:
		return b.ZipFile(), nil
	case schema.DownloadCSV:
		return files[0], nil
	case schema.DownloadGeoJSON:
		return files[1], nil
	}
	return File{}, fmt.Errorf("%w: %s", ErrUnknownDownload, kind)
}
