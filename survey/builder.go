package survey

import (
	"context"

	"github.com/citilab/route-survey/schema"
)

// RecordBuilder turns validated answers into a survey record
type RecordBuilder struct {
	ids IDGenerator
}

func NewRecordBuilder(ids IDGenerator) *RecordBuilder {
	return &RecordBuilder{ids: ids}
}

// Build stamps the answers with the session time and a new survey id. The
// form must already be validated against the session variant.
func (b *RecordBuilder) Build(ctx context.Context, sess *Session, form schema.SurveyForm) (schema.SurveyRecord, error) {
	surveyID, err := b.ids.NewID(ctx, sess.Now)
	if err != nil {
		return schema.SurveyRecord{}, err
	}

	return schema.SurveyRecord{
		SurveyID:      surveyID,
		Timestamp:     schema.FormatTimestamp(sess.Now),
		Gender:        form.Gender,
		Age:           form.Age,
		Income:        form.Income,
		HomeLocation:  form.HomeLocation,
		TripType:      form.TripType,
		TripMonth:     form.TripMonth,
		TripFrequency: form.TripFrequency,
	}, nil
}
