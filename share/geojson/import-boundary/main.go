package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/citilab/route-survey/schema"
	"github.com/citilab/route-survey/share/geojson"
)

func init() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("survey")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func main() {
	var (
		file     string
		mapping  geojson.PropertyMapping
		truncate bool
	)
	flag.StringVar(&file, "f", "boundary.json", "geojson feature collection of boundaries")
	flag.StringVar(&mapping.Country, "country", "Thailand", "country of every boundary")
	flag.StringVar(&mapping.CountryProperty, "country-prop", "", "feature property holding the country")
	flag.StringVar(&mapping.StateProperty, "state-prop", "", "feature property holding the state or province")
	flag.StringVar(&mapping.CountyProperty, "county-prop", "name", "feature property holding the county or district")
	flag.BoolVar(&truncate, "truncate", false, "remove existing boundaries first")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(viper.GetString("mongo.conn")))
	if err != nil {
		log.WithError(err).Fatal("connect mongo")
	}
	defer client.Disconnect(context.Background())

	dbName := viper.GetString("mongo.database")

	if truncate {
		if _, err := client.Database(dbName).Collection(schema.BoundaryCollection).DeleteMany(ctx, bson.M{}); err != nil {
			log.WithError(err).Fatal("truncate boundaries")
		}
	}

	if err := schema.NewMongoDBIndexer(ctx, client, dbName).IndexBoundaryCollection(); err != nil {
		log.WithError(err).Fatal("index boundaries")
	}

	f, err := os.Open(file)
	if err != nil {
		log.WithError(err).Fatal("open boundary file")
	}
	defer f.Close()

	if _, err := geojson.ImportBoundary(ctx, client, dbName, f, mapping); err != nil {
		log.WithError(err).Fatal("import boundaries")
	}
}
