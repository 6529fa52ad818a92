package api

import (
	"context"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/citilab/route-survey/logmodule"
	"github.com/citilab/route-survey/schema"
	"github.com/citilab/route-survey/store"
	"github.com/citilab/route-survey/survey"
	"github.com/citilab/route-survey/utils"
)

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "gin")
}

// Submitter runs one survey submission
type Submitter interface {
	Submit(ctx context.Context, sess *survey.Session, sub survey.Submission) (*survey.Result, error)
}

// Server to run a http server instance
type Server struct {
	// Server instance
	server *http.Server

	// Survey
	service  Submitter
	variant  schema.Variant
	location *time.Location

	// Stores, nil when mongo is disabled
	mongoStore store.Pinger

	now func() time.Time
}

// NewServer new instance of server
func NewServer(
	service Submitter,
	variant schema.Variant,
	location *time.Location,
	mongoStore store.Pinger) *Server {
	if location == nil {
		location = time.Local
	}

	return &Server{
		service:    service,
		variant:    variant,
		location:   location,
		mongoStore: mongoStore,
		now:        time.Now,
	}
}

// Run to run the server
func (s *Server) Run(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.setupRouter(),
	}

	return s.server.ListenAndServe()
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         10 * time.Second,
	}))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept-Language"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Survey-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if origins := viper.GetStringSlice("server.cors.origins"); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowAllOrigins = true
	}

	r.Use(cors.New(corsConfig))

	apiRoute := r.Group("/api")
	apiRoute.Use(logmodule.Ginrus("API"))
	{
		apiRoute.GET("/survey/form", s.surveyForm)
		apiRoute.POST("/surveys",
			s.rateLimitMiddleware(viper.GetFloat64("server.rate_limit.rps"), viper.GetInt("server.rate_limit.burst")),
			s.submitSurvey)
	}

	r.GET("/healthz", s.healthz)

	return r
}

// Shutdown to shutdown the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// shouldInterupt sends error message and determine if it should interupt the current flow
func shouldInterupt(err error, c *gin.Context) bool {
	if err == nil {
		return false
	}

	log.Error(err)
	abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer)
	return true
}

func (s *Server) healthz(c *gin.Context) {
	// Ping db
	if s.mongoStore != nil {
		err := s.mongoStore.Ping()
		if shouldInterupt(err, c) {
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"version": viper.GetString("server.version"),
	})
}

func responseWithEncoding(c *gin.Context, code int, obj ErrorResponse) {
	acceptEncoding := c.GetHeader("Accept-Encoding")
	switch acceptEncoding {
	default:
		c.JSON(code, obj)
	}
}

func abortWithEncoding(c *gin.Context, code int, obj ErrorResponse, errors ...error) {
	for _, err := range errors {
		c.Error(err)
	}
	responseWithEncoding(c, code, obj)
	c.Abort()
}

// abortWithLocalizedError adds the respondent notice in the language the
// client accepts
func abortWithLocalizedError(c *gin.Context, code int, obj ErrorResponse, errors ...error) {
	if id, ok := errorNoticeMap[obj.Code]; ok {
		obj.Notice = utils.Localize(utils.NewLocalizer(c.GetHeader("Accept-Language")), id, nil)
	}
	abortWithEncoding(c, code, obj, errors...)
}
