package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/citilab/route-survey/consts"
)

const (
	SurveyCollection  = "survey"
	CounterCollection = "counters"
)

// Field names of a survey record, in csv header order
const (
	FieldSurveyID      = "survey_id"
	FieldTimestamp     = "timestamp"
	FieldGender        = "gender"
	FieldAge           = "age"
	FieldIncome        = "income"
	FieldHomeLocation  = "home_location"
	FieldTripType      = "trip_type"
	FieldTripMonth     = "trip_month"
	FieldTripFrequency = "trip_frequency"

	// FieldRouteGeoJSON is not part of the record; it carries the compact
	// route geometry in table layouts that want it.
	FieldRouteGeoJSON = "route_geojson"
)

var RecordFields = []string{
	FieldSurveyID,
	FieldTimestamp,
	FieldGender,
	FieldAge,
	FieldIncome,
	FieldHomeLocation,
	FieldTripType,
	FieldTripMonth,
	FieldTripFrequency,
}

var ErrInvalidField = errors.New("invalid survey field")

const timestampLayout = "2006-01-02T15:04:05"

// FormatTimestamp renders a local date time without offset, adding
// microseconds only when they are non-zero: 2025-01-02T03:04:00
func FormatTimestamp(t time.Time) string {
	s := t.Format(timestampLayout)
	if micro := t.Nanosecond() / 1000; micro != 0 {
		s += fmt.Sprintf(".%06d", micro)
	}
	return s
}

// ParseTimestamp reads a timestamp written by FormatTimestamp as UTC
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout+".999999", s)
}

// SurveyForm - answers submitted by a respondent
type SurveyForm struct {
	Gender        string `json:"gender" binding:"required"`
	Age           int    `json:"age" binding:"required"`
	Income        string `json:"income"`
	HomeLocation  string `json:"home_location"`
	TripType      string `json:"trip_type"`
	TripMonth     string `json:"trip_month"`
	TripFrequency string `json:"trip_frequency"`
}

// Normalize returns a copy of the form with free text trimmed
func (f SurveyForm) Normalize() SurveyForm {
	f.Gender = strings.TrimSpace(f.Gender)
	f.Income = strings.TrimSpace(f.Income)
	f.HomeLocation = strings.TrimSpace(f.HomeLocation)
	f.TripType = strings.TrimSpace(f.TripType)
	f.TripMonth = strings.TrimSpace(f.TripMonth)
	f.TripFrequency = strings.TrimSpace(f.TripFrequency)
	return f
}

// Validate checks the form against the option lists of a variant. A field
// whose option list is empty accepts free text.
func (f SurveyForm) Validate(v Variant) error {
	if f.Age < consts.MinAge || f.Age > consts.MaxAge {
		return fmt.Errorf("%w: %s %d out of range [%d,%d]", ErrInvalidField, FieldAge, f.Age, consts.MinAge, consts.MaxAge)
	}

	checks := []struct {
		field   string
		value   string
		options []string
	}{
		{FieldGender, f.Gender, v.Options.Gender},
		{FieldIncome, f.Income, v.Options.Income},
		{FieldTripType, f.TripType, v.Options.TripType},
		{FieldTripMonth, f.TripMonth, v.Options.TripMonth},
		{FieldTripFrequency, f.TripFrequency, v.Options.TripFrequency},
	}
	for _, c := range checks {
		if len(c.options) == 0 {
			continue
		}
		if !contains(c.options, c.value) {
			return fmt.Errorf("%w: %s %q is not one of %q", ErrInvalidField, c.field, c.value, c.options)
		}
	}

	return nil
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

// SurveyRecord - the answers of one submission with its id and timestamp.
// A record is never modified after it is built.
type SurveyRecord struct {
	SurveyID      string `json:"survey_id" bson:"survey_id"`
	Timestamp     string `json:"timestamp" bson:"timestamp"`
	Gender        string `json:"gender" bson:"gender"`
	Age           int    `json:"age" bson:"age"`
	Income        string `json:"income" bson:"income"`
	HomeLocation  string `json:"home_location" bson:"home_location"`
	TripType      string `json:"trip_type" bson:"trip_type"`
	TripMonth     string `json:"trip_month" bson:"trip_month"`
	TripFrequency string `json:"trip_frequency" bson:"trip_frequency"`
}

// Value returns the textual value of a record field
func (r SurveyRecord) Value(field string) (string, bool) {
	switch field {
	case FieldSurveyID:
		return r.SurveyID, true
	case FieldTimestamp:
		return r.Timestamp, true
	case FieldGender:
		return r.Gender, true
	case FieldAge:
		return strconv.Itoa(r.Age), true
	case FieldIncome:
		return r.Income, true
	case FieldHomeLocation:
		return r.HomeLocation, true
	case FieldTripType:
		return r.TripType, true
	case FieldTripMonth:
		return r.TripMonth, true
	case FieldTripFrequency:
		return r.TripFrequency, true
	}
	return "", false
}

// SurveySubmission - a record and its route as kept in mongo
type SurveySubmission struct {
	Record      SurveyRecord  `bson:"record"`
	Route       RouteGeometry `bson:"route"`
	Variant     string        `bson:"variant"`
	Origin      string        `bson:"origin,omitempty"`
	Destination string        `bson:"destination,omitempty"`
	Timestamp   int64         `bson:"ts"`
}
