package schema

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoDBIndexer struct {
	ctx      context.Context
	dbName   string
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDBIndexer(ctx context.Context, client *mongo.Client, dbName string) *MongoDBIndexer {
	return &MongoDBIndexer{
		ctx:      ctx,
		dbName:   dbName,
		Client:   client,
		Database: client.Database(dbName),
	}
}

func (m *MongoDBIndexer) createIndex(collection string, index mongo.IndexModel) error {
	c := m.Database.Collection(collection)
	_, err := c.Indexes().CreateOne(m.ctx, index)
	return err
}

func (m *MongoDBIndexer) IndexAll() error {
	if err := m.IndexSurveyCollection(); err != nil {
		return err
	}
	return m.IndexBoundaryCollection()
}

// IndexSurveyCollection - survey ids are not unique under the minute id
// scheme, so the id index is a plain one.
func (m *MongoDBIndexer) IndexSurveyCollection() error {
	if err := m.createIndex(SurveyCollection, mongo.IndexModel{
		Keys: bson.D{
			{Key: "record.survey_id", Value: 1},
			{Key: "ts", Value: 1},
		},
	}); err != nil {
		return err
	}

	return m.createIndex(SurveyCollection, mongo.IndexModel{
		Keys: bson.M{
			"route": "2dsphere",
		},
	})
}

func (m *MongoDBIndexer) IndexBoundaryCollection() error {
	return m.createIndex(BoundaryCollection, mongo.IndexModel{
		Keys: bson.M{
			"geometry": "2dsphere",
		},
	})
}
