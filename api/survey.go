package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/citilab/route-survey/consts"
	"github.com/citilab/route-survey/export"
	"github.com/citilab/route-survey/schema"
	"github.com/citilab/route-survey/sink"
	"github.com/citilab/route-survey/survey"
	"github.com/citilab/route-survey/utils"
)

type surveyRequest struct {
	schema.SurveyForm

	Drawing json.RawMessage `json:"drawing"`
	// name used by the map widget for the last drawn shape
	LastActiveDrawing json.RawMessage `json:"last_active_drawing"`
}

type downloadQuery struct {
	Attachment bool   `form:"attachment"`
	Format     string `form:"format"`
}

type fileResponse struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

func newFileResponse(f export.File) fileResponse {
	return fileResponse{Name: f.Name, ContentType: f.ContentType, Data: f.Data}
}

func (s *Server) surveyForm(c *gin.Context) {
	mapView := gin.H{
		"center": [2]float64{s.variant.Map.CenterLat, s.variant.Map.CenterLon},
		"zoom":   s.variant.Map.Zoom,
	}
	if s.variant.Map.OffsetDeg > 0 {
		sw, ne := s.variant.Map.Bounds()
		mapView["bounds"] = [][2]float64{sw, ne}
	}

	c.JSON(http.StatusOK, gin.H{
		"variant": s.variant.Name,
		"title":   s.variant.Title,
		"age": gin.H{
			"min": consts.MinAge,
			"max": consts.MaxAge,
		},
		"options":   s.variant.Options,
		"map":       mapView,
		"downloads": s.variant.Downloads,
	})
}

func (s *Server) submitSurvey(c *gin.Context) {
	var query downloadQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		abortWithLocalizedError(c, http.StatusBadRequest, errorInvalidParameters, err)
		return
	}
	if query.Format == "" {
		query.Format = s.variant.DefaultDownload()
	}
	if !s.variant.Offers(query.Format) {
		abortWithLocalizedError(c, http.StatusBadRequest, errorInvalidParameters, fmt.Errorf("download %q is not offered", query.Format))
		return
	}

	var params surveyRequest
	if err := c.ShouldBindJSON(&params); err != nil {
		abortWithLocalizedError(c, http.StatusBadRequest, errorInvalidParameters, err)
		return
	}

	drawing := params.Drawing
	if len(drawing) == 0 {
		drawing = params.LastActiveDrawing
	}

	localizer := utils.NewLocalizer(c.GetHeader("Accept-Language"))
	sess := survey.NewSession(s.variant, s.now().In(s.location), localizer)
	c.Set("request_id", sess.RequestID)

	result, err := s.service.Submit(c.Request.Context(), sess, survey.Submission{
		Form:    params.SurveyForm,
		Drawing: drawing,
	})
	switch {
	case err == nil:
	case errors.Is(err, schema.ErrInvalidField):
		abortWithLocalizedError(c, http.StatusBadRequest, errorInvalidParameters, err)
		return
	case errors.Is(err, survey.ErrNoRouteDrawn):
		abortWithLocalizedError(c, http.StatusUnprocessableEntity, errorNoRouteDrawn, err)
		return
	case errors.Is(err, survey.ErrUnsupportedGeometry):
		abortWithLocalizedError(c, http.StatusUnprocessableEntity, errorUnsupportedGeometry, err)
		return
	case errors.Is(err, sink.ErrAppendFailure):
		abortWithLocalizedError(c, http.StatusInternalServerError, errorAppendFailure, err)
		return
	default:
		sess.Log.WithError(err).Error("submit survey")
		abortWithLocalizedError(c, http.StatusInternalServerError, errorInternalServer, err)
		return
	}

	download, err := result.Bundle.Download(query.Format)
	if shouldInterupt(err, c) {
		return
	}

	if query.Attachment {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, download.Name))
		c.Header("X-Survey-ID", result.Record.SurveyID)
		c.Data(http.StatusOK, download.ContentType, download.Data)
		return
	}

	files := make([]fileResponse, 0, 2)
	for _, f := range result.Bundle.Files() {
		files = append(files, newFileResponse(f))
	}

	c.JSON(http.StatusOK, gin.H{
		"survey_id": result.Record.SurveyID,
		"timestamp": result.Record.Timestamp,
		"messages":  notices(localizer, result.Report),
		"files":     files,
		"download":  newFileResponse(download),
		"channels":  result.Report.Results,
	})
}

// notices tells the respondent what happened to the submission
func notices(localizer *i18n.Localizer, report sink.Report) []string {
	messages := []string{utils.Localize(localizer, "submission_ready", nil)}

	for _, r := range report.Results {
		var id string
		var data map[string]interface{}
		switch {
		case r.Channel == sink.ChannelTable && r.Status == sink.StatusOK:
			id = "table_saved"
		case r.Channel == sink.ChannelCloud && r.Status == sink.StatusOK:
			id = "upload_succeeded"
			data = map[string]interface{}{"Location": r.Location}
		case r.Channel == sink.ChannelCloud && r.Status == sink.StatusFailed:
			id = "upload_failed"
		case r.Channel == sink.ChannelArchive && r.Status == sink.StatusFailed:
			id = "archive_failed"
		default:
			continue
		}
		messages = append(messages, utils.Localize(localizer, id, data))
	}

	return messages
}
