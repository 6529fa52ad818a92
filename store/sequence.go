package store

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/citilab/route-survey/schema"
)

// SurveySequence - a counter per key shared by every process using the
// same database
type SurveySequence interface {
	Next(ctx context.Context, key string) (int64, error)
}

type counter struct {
	Key string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// Next increments the counter of a key, creating it at 1
func (m *mongoDB) Next(ctx context.Context, key string) (int64, error) {
	c := m.client.Database(m.database).Collection(schema.CounterCollection)

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result counter
	if err := c.FindOneAndUpdate(ctx, bson.M{"_id": key}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&result); err != nil {
		log.WithFields(log.Fields{
			"prefix": mongoLogPrefix,
			"key":    key,
			"error":  err,
		}).Error("increase survey counter")
		return 0, err
	}

	return result.Seq, nil
}
