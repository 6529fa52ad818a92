package schema

import (
	"fmt"
	"strings"

	"github.com/citilab/route-survey/consts"
)

// Download kinds
const (
	DownloadZip     = "zip"
	DownloadCSV     = "csv"
	DownloadGeoJSON = "geojson"
)

// MapView - initial viewport of the drawing map
type MapView struct {
	CenterLat float64 `json:"center_lat" mapstructure:"center_lat"`
	CenterLon float64 `json:"center_lon" mapstructure:"center_lon"`
	OffsetDeg float64 `json:"offset_deg" mapstructure:"offset_deg"`
	Zoom      int     `json:"zoom" mapstructure:"zoom"`
}

// Bounds returns the south-west and north-east corners as [lat, lon]
func (m MapView) Bounds() (sw, ne [2]float64) {
	sw = [2]float64{m.CenterLat - m.OffsetDeg, m.CenterLon - m.OffsetDeg}
	ne = [2]float64{m.CenterLat + m.OffsetDeg, m.CenterLon + m.OffsetDeg}
	return
}

// FormOptions - the accepted answers per field; empty means free text
type FormOptions struct {
	Gender        []string `json:"gender" mapstructure:"gender"`
	Income        []string `json:"income" mapstructure:"income"`
	TripType      []string `json:"trip_type" mapstructure:"trip_type"`
	TripMonth     []string `json:"trip_month" mapstructure:"trip_month"`
	TripFrequency []string `json:"trip_frequency" mapstructure:"trip_frequency"`
}

// Variant - one flavour of the survey page
type Variant struct {
	Name      string      `json:"name" mapstructure:"name"`
	Title     string      `json:"title" mapstructure:"title"`
	Map       MapView     `json:"map" mapstructure:"map"`
	Options   FormOptions `json:"options" mapstructure:"options"`
	Columns   []string    `json:"columns" mapstructure:"columns"`
	Downloads []string    `json:"downloads" mapstructure:"downloads"`
}

// Column - a csv column and the record field it is filled from
type Column struct {
	Header string
	Field  string
}

// ColumnLayout parses the configured columns. An entry is either a field
// name or "header:field".
func (v Variant) ColumnLayout() ([]Column, error) {
	entries := v.Columns
	if len(entries) == 0 {
		entries = RecordFields
	}

	layout := make([]Column, 0, len(entries))
	for _, e := range entries {
		header, field := e, e
		if i := strings.Index(e, ":"); i >= 0 {
			header, field = strings.TrimSpace(e[:i]), strings.TrimSpace(e[i+1:])
		}
		if header == "" || !knownField(field) {
			return nil, fmt.Errorf("variant %s: invalid column %q", v.Name, e)
		}
		layout = append(layout, Column{Header: header, Field: field})
	}
	return layout, nil
}

// DefaultDownload is the artifact offered when none is requested
func (v Variant) DefaultDownload() string {
	if len(v.Downloads) == 0 {
		return DownloadZip
	}
	return v.Downloads[0]
}

// Offers reports whether the variant offers a kind of download
func (v Variant) Offers(kind string) bool {
	if len(v.Downloads) == 0 {
		return kind == DownloadZip
	}
	return contains(v.Downloads, kind)
}

func knownField(field string) bool {
	return field == FieldRouteGeoJSON || contains(RecordFields, field)
}

// BuiltinVariants returns the survey pages shipped with the service
func BuiltinVariants() map[string]Variant {
	return map[string]Variant{
		consts.DefaultVariant: {
			Name:  consts.DefaultVariant,
			Title: "Bicycle OD Route Survey",
			Map: MapView{
				CenterLat: 13.730275905118468,
				CenterLon: 100.56987498465178,
				OffsetDeg: 0.01,
			},
			Options: FormOptions{
				Gender:    consts.Genders,
				Income:    consts.IncomeBrackets,
				TripType:  consts.TripTypes,
				TripMonth: consts.Months,
			},
			Columns:   RecordFields,
			Downloads: []string{DownloadZip, DownloadCSV, DownloadGeoJSON},
		},
		consts.AppendVariant: {
			Name:  consts.AppendVariant,
			Title: "Bicycle OD Route Survey",
			Map: MapView{
				CenterLat: 13.7563,
				CenterLon: 100.5018,
				Zoom:      12,
			},
			Options: FormOptions{
				Gender:        consts.AppendGenders,
				TripType:      consts.AppendTripTypes,
				TripFrequency: consts.AppendFrequencies,
			},
			Columns: []string{
				FieldTimestamp,
				"trip_purpose:" + FieldTripType,
				"frequency:" + FieldTripFrequency,
				FieldAge,
				FieldGender,
				FieldRouteGeoJSON,
			},
			Downloads: []string{DownloadCSV},
		},
	}
}
