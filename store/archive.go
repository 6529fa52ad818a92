package store

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/citilab/route-survey/schema"
)

// SurveyArchive - keeps submitted records and their routes
type SurveyArchive interface {
	Archive(ctx context.Context, submission schema.SurveySubmission) (string, error)
	ListSubmissions(ctx context.Context, surveyID string) ([]schema.SurveySubmission, error)
}

// Archive inserts a submission into the survey collection and returns the
// id of the new document
func (m *mongoDB) Archive(ctx context.Context, submission schema.SurveySubmission) (string, error) {
	c := m.client.Database(m.database).Collection(schema.SurveyCollection)

	result, err := c.InsertOne(ctx, submission)
	if err != nil {
		log.WithFields(log.Fields{
			"prefix":    mongoLogPrefix,
			"survey_id": submission.Record.SurveyID,
			"error":     err,
		}).Error("archive survey submission")
		return "", err
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Sprint(result.InsertedID), nil
	}
	return id.Hex(), nil
}

// ListSubmissions returns every archived submission of a survey id, oldest
// first. Under the minute id scheme there may be more than one.
func (m *mongoDB) ListSubmissions(ctx context.Context, surveyID string) ([]schema.SurveySubmission, error) {
	c := m.client.Database(m.database).Collection(schema.SurveyCollection)

	cur, err := c.Find(ctx, bson.M{"record.survey_id": surveyID}, options.Find().SetSort(bson.M{"ts": 1}))
	if err != nil {
		log.WithFields(log.Fields{
			"prefix":    mongoLogPrefix,
			"survey_id": surveyID,
			"error":     err,
		}).Error("list survey submissions")
		return nil, err
	}
	defer cur.Close(ctx)

	result := make([]schema.SurveySubmission, 0)
	for cur.Next(ctx) {
		var s schema.SurveySubmission
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	return result, cur.Err()
}
