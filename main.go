package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"googlemaps.github.io/maps"

	"github.com/citilab/route-survey/api"
	"github.com/citilab/route-survey/consts"
	"github.com/citilab/route-survey/external/drive"
	"github.com/citilab/route-survey/geo"
	"github.com/citilab/route-survey/schema"
	"github.com/citilab/route-survey/sink"
	"github.com/citilab/route-survey/store"
	"github.com/citilab/route-survey/survey"
	"github.com/citilab/route-survey/utils"
)

var (
	server       *api.Server
	mongoStore   store.MongoStore
	sqliteTable  *store.SQLiteTable
	metricCloser io.Closer
)

func initLog() {
	logLevel, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(logLevel)
	}

	log.SetOutput(os.Stdout)

	log.SetFormatter(&prefixed.TextFormatter{
		ForceFormatting: true,
		FullTimestamp:   true,
	})
}

func loadConfig(file string) {
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment from .env")
	}

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("i18n.dir", "./i18n")
	viper.SetDefault("survey.variant", consts.DefaultVariant)
	viper.SetDefault("survey.id_scheme", survey.SchemeSequence)
	viper.SetDefault("table.enabled", true)
	viper.SetDefault("table.path", "od_survey_data.csv")
	viper.SetDefault("table.format", "csv")
	viper.SetDefault("cloud.timeout", time.Minute)
	viper.SetDefault("metrics.interval", time.Minute)

	// Config from file
	viper.SetConfigType("yaml")
	if file != "" {
		viper.SetConfigFile(file)
	}

	viper.AddConfigPath("/.config/")
	viper.AddConfigPath(".")
	err := viper.ReadInConfig()
	if err != nil {
		fmt.Println("No config file. Read config from env.")
		viper.AllowEmptyEnv(false)
	}

	// Config from env if possible
	viper.AutomaticEnv()
	viper.SetEnvPrefix("survey")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// loadVariant returns the active survey page. Configured variants replace
// the built-in ones of the same name.
func loadVariant() (schema.Variant, error) {
	variants := schema.BuiltinVariants()

	var configured map[string]schema.Variant
	if err := viper.UnmarshalKey("variants", &configured); err != nil {
		return schema.Variant{}, err
	}
	for name, v := range configured {
		if v.Name == "" {
			v.Name = name
		}
		variants[name] = v
	}

	name := viper.GetString("survey.variant")
	v, ok := variants[name]
	if !ok {
		return schema.Variant{}, fmt.Errorf("unknown survey variant %q", name)
	}
	if _, err := v.ColumnLayout(); err != nil {
		return schema.Variant{}, err
	}
	return v, nil
}

func initTable() (sink.Appender, error) {
	path := viper.GetString("table.path")
	switch format := viper.GetString("table.format"); format {
	case "csv":
		return store.NewCSVTable(path)
	case "sqlite":
		t, err := store.NewSQLiteTable(path, viper.GetString("table.name"))
		if err != nil {
			return nil, err
		}
		sqliteTable = t
		return t, nil
	default:
		return nil, fmt.Errorf("unknown table format %q", format)
	}
}

func initLabeler(mongoClient *mongo.Client) (survey.RouteLabeler, error) {
	var resolvers []geo.LocationResolver

	if viper.GetBool("geo.boundary") {
		if mongoClient == nil {
			return nil, fmt.Errorf("boundary lookup needs mongo enabled")
		}
		resolvers = append(resolvers, geo.NewMongodbLocationResolver(mongoClient, viper.GetString("mongo.database")))
	}

	if key := viper.GetString("geo.map_apikey"); key != "" {
		client, err := maps.NewClient(maps.WithAPIKey(key))
		if err != nil {
			return nil, err
		}
		resolvers = append(resolvers, geo.NewGeocodingLocationResolver(client, viper.GetString("geo.language")))
	}

	if len(resolvers) == 0 {
		return nil, fmt.Errorf("no location resolver configured")
	}

	return geo.NewRouteLabeler(geo.NewMultipleLocationResolver(resolvers...)), nil
}

func main() {
	var configFile string

	initialCtx, cancelInitialization := context.WithCancel(context.Background())

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Server is preparing to shutdown")

		if initialCtx != nil && cancelInitialization != nil {
			log.Info("Cancelling initialization")
			cancelInitialization()
			<-initialCtx.Done()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if server != nil {
			log.Info("Shutdown survey api server")
			if err := server.Shutdown(ctx); err != nil {
				log.Error("Server Shutdown:", err)
			}
		}

		if metricCloser != nil {
			if err := metricCloser.Close(); err != nil {
				log.Error(err)
			}
		}

		if sqliteTable != nil {
			log.Info("Shutting down table store")
			if err := sqliteTable.Close(); err != nil {
				log.Error(err)
			}
		}

		if mongoStore != nil {
			log.Info("Shutting down mongo store")
			mongoStore.Close()
		}

		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}()

	flag.StringVar(&configFile, "c", "./config.yaml", "[optional] path of configuration file")
	flag.Parse()

	loadConfig(configFile)

	initLog()

	// Sentry
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              viper.GetString("sentry.dsn"),
		AttachStacktrace: true,
		Environment:      viper.GetString("sentry.environment"),
		Dist:             viper.GetString("sentry.dist"),
	}); err != nil {
		log.Error(err)
	}
	log.WithField("prefix", "init").Info("Initialized sentry")

	if err := utils.InitI18NBundle(viper.GetString("i18n.dir")); err != nil {
		log.Panic(err)
	}
	log.WithField("prefix", "init").Info("Loaded i18n messages")

	location, err := utils.LoadTimezone(viper.GetString("survey.timezone"))
	if err != nil {
		log.Panic(err)
	}

	variant, err := loadVariant()
	if err != nil {
		log.Panic(err)
	}
	log.WithField("prefix", "init").Info("Survey variant: ", variant.Name)

	scope, closer := utils.NewMetricsScope("route_survey", viper.GetDuration("metrics.interval"))
	metricCloser = closer

	dispatchOpts := []sink.Option{
		sink.WithTimeout(viper.GetDuration("cloud.timeout")),
		sink.WithMetrics(scope),
	}

	// initialise mongodb connections
	var mongoClient *mongo.Client
	var sequencer survey.Sequencer
	if viper.GetBool("mongo.enabled") {
		opts := options.Client().ApplyURI(viper.GetString("mongo.conn"))
		opts.SetMaxPoolSize(viper.GetUint64("mongo.pool"))
		mongoClient, err = mongo.Connect(initialCtx, opts)
		if nil != err {
			log.Panicf("connect mongo database with error: %s", err)
		}

		if err := schema.NewMongoDBIndexer(initialCtx, mongoClient, viper.GetString("mongo.database")).IndexAll(); err != nil {
			log.Panicf("create mongo indexes with error: %s", err)
		}

		mongoStore = store.NewMongoStore(mongoClient, viper.GetString("mongo.database"))
		sequencer = mongoStore
		dispatchOpts = append(dispatchOpts, sink.WithArchive(mongoStore))
		log.WithField("prefix", "init").Info("Initialized mongo store")
	}

	if viper.GetBool("table.enabled") {
		table, err := initTable()
		if err != nil {
			log.Panic(err)
		}
		dispatchOpts = append(dispatchOpts, sink.WithTable(table))
		log.WithField("prefix", "init").Info("Initialized local table: ", viper.GetString("table.path"))
	}

	if viper.GetBool("cloud.enabled") {
		uploader, err := drive.New(initialCtx, drive.Config{
			ClientConfig:  viper.GetString("cloud.client_config"),
			Token:         viper.GetString("cloud.token"),
			Folder:        viper.GetString("cloud.folder"),
			TempDir:       viper.GetString("cloud.temp_dir"),
			CreateFolders: viper.GetBool("cloud.create_folders"),
		})
		if err != nil {
			log.WithField("prefix", "init").WithError(err).Error("cloud upload is unavailable")
			sentry.CaptureException(err)
			dispatchOpts = append(dispatchOpts, sink.WithCloud(sink.UnavailableUploader(err)))
		} else {
			dispatchOpts = append(dispatchOpts, sink.WithCloud(uploader))
			log.WithField("prefix", "init").Info("Initialized cloud upload to ", viper.GetString("cloud.folder"))
		}
	}

	var labeler survey.RouteLabeler
	if viper.GetBool("geo.enabled") {
		labeler, err = initLabeler(mongoClient)
		if err != nil {
			log.Panic(err)
		}
		log.WithField("prefix", "init").Info("Initialized route labeler")
	}

	ids, err := survey.NewIDGenerator(viper.GetString("survey.id_scheme"), sequencer)
	if err != nil {
		log.Panic(err)
	}

	service := survey.NewService(ids, labeler, sink.NewDispatcher(dispatchOpts...), scope)

	// Init http server
	var pinger store.Pinger
	if mongoStore != nil {
		pinger = mongoStore
	}
	server = api.NewServer(service, variant, location, pinger)
	log.WithField("prefix", "init").Info("Initialized http server")

	// Remove initial context
	initialCtx = nil
	cancelInitialization = nil

	log.Fatal(server.Run(":" + viper.GetString("server.port")))
}
