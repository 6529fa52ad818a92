package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citilab/route-survey/consts"
	"github.com/citilab/route-survey/mocks"
	"github.com/citilab/route-survey/schema"
	"github.com/citilab/route-survey/sink"
	"github.com/citilab/route-survey/survey"
	"github.com/citilab/route-survey/utils"
)

const (
	scenarioID  = "250102_0304_SurveyNo_01"
	scenarioCSV = "survey_id,timestamp,gender,age,income,home_location,trip_type,trip_month,trip_frequency\n" +
		scenarioID + `,2025-01-02T03:04:00,F,29,"A: <10,000",Bangkok,School,Mar,2x/week` + "\n"
	scenarioBody = `{
		"gender": "F",
		"age": 29,
		"income": "A: <10,000",
		"home_location": "Bangkok",
		"trip_type": "School",
		"trip_month": "Mar",
		"trip_frequency": "2x/week",
		"drawing": {"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[100.50, 13.75], [100.51, 13.76]]}}
	}`
)

var submittedAt = time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := utils.InitI18NBundle("../i18n"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestServer(opts ...sink.Option) *Server {
	svc := survey.NewService(survey.MinuteIDGenerator{}, nil, sink.NewDispatcher(opts...), nil)
	s := NewServer(svc, schema.BuiltinVariants()[consts.DefaultVariant], time.UTC, nil)
	s.now = func() time.Time { return submittedAt }
	return s
}

func postSurvey(router *gin.Engine, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

type submitResponse struct {
	SurveyID  string               `json:"survey_id"`
	Timestamp string               `json:"timestamp"`
	Messages  []string             `json:"messages"`
	Files     []fileResponse       `json:"files"`
	Download  fileResponse         `json:"download"`
	Channels  []sink.ChannelResult `json:"channels"`
}

func TestSubmitSurvey(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	table := mocks.NewMockAppender(ctl)
	table.EXPECT().Append(gomock.Any(), schema.RecordFields, gomock.Any()).Return("od_survey_data.csv", nil).Times(1)

	router := newTestServer(sink.WithTable(table)).setupRouter()
	w := postSurvey(router, "/api/surveys", scenarioBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp submitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, scenarioID, resp.SurveyID)
	assert.Equal(t, "2025-01-02T03:04:00", resp.Timestamp)
	assert.Equal(t, []string{"Your files are ready.", "Submission saved successfully!"}, resp.Messages)

	require.Len(t, resp.Files, 2)
	assert.Equal(t, scenarioID+".csv", resp.Files[0].Name)
	assert.Equal(t, scenarioCSV, string(resp.Files[0].Data))
	assert.Equal(t, scenarioID+".geojson", resp.Files[1].Name)

	assert.Equal(t, scenarioID+"_files.zip", resp.Download.Name)
	assert.Equal(t, "application/zip", resp.Download.ContentType)
	assert.True(t, bytes.HasPrefix(resp.Download.Data, []byte("PK")))

	require.Len(t, resp.Channels, 3)
	assert.Equal(t, sink.ChannelTable, resp.Channels[0].Channel)
	assert.Equal(t, sink.StatusOK, resp.Channels[0].Status)
	assert.Equal(t, sink.StatusDisabled, resp.Channels[1].Status)
}

func TestSubmitSurveyAttachment(t *testing.T) {
	router := newTestServer().setupRouter()

	w := postSurvey(router, "/api/surveys?attachment=true&format=csv", scenarioBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `attachment; filename="`+scenarioID+`.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, scenarioID, w.Header().Get("X-Survey-ID"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Equal(t, scenarioCSV, w.Body.String())

	w = postSurvey(router, "/api/surveys?attachment=true", scenarioBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="`+scenarioID+`_files.zip"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
}

func TestSubmitSurveyLastActiveDrawing(t *testing.T) {
	router := newTestServer().setupRouter()

	body := strings.Replace(scenarioBody, `"drawing"`, `"last_active_drawing"`, 1)
	w := postSurvey(router, "/api/surveys", body)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSubmitSurveyWithoutRoute(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	// nothing may be written
	table := mocks.NewMockAppender(ctl)
	cloud := mocks.NewMockUploader(ctl)

	router := newTestServer(sink.WithTable(table), sink.WithCloud(cloud)).setupRouter()

	for _, drawing := range []string{`null`, `{}`, `{"type":"Feature","properties":{},"geometry":null}`} {
		body := strings.Replace(scenarioBody, `{"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[100.50, 13.75], [100.51, 13.76]]}}`, drawing, 1)
		w := postSurvey(router, "/api/surveys", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, drawing)

		resp := decodeError(t, w)
		assert.Equal(t, int64(1200), resp.Code)
		assert.Equal(t, "no route drawn", resp.Message)
		assert.Equal(t, "Please draw your route before submitting.", resp.Notice)
	}

	body := strings.Replace(scenarioBody, `"drawing"`, `"ignored"`, 1)
	w := postSurvey(router, "/api/surveys", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSubmitSurveyUnsupportedGeometry(t *testing.T) {
	router := newTestServer().setupRouter()

	body := strings.Replace(scenarioBody, `"type": "LineString", "coordinates": [[100.50, 13.75], [100.51, 13.76]]`, `"type": "Point", "coordinates": [100.50, 13.75]`, 1)
	req := httptest.NewRequest("POST", "/api/surveys", strings.NewReader(body))
	req.Header.Set("Accept-Language", "th")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, int64(1201), resp.Code)
	assert.Equal(t, "กรุณาวาดเส้นทางเป็นเส้นเดียว", resp.Notice)
}

func TestSubmitSurveyInvalidParameters(t *testing.T) {
	router := newTestServer().setupRouter()

	cases := map[string]struct {
		target string
		body   string
	}{
		"broken json":    {"/api/surveys", `{"gender":`},
		"missing gender": {"/api/surveys", strings.Replace(scenarioBody, `"gender": "F",`, "", 1)},
		"age too low":    {"/api/surveys", strings.Replace(scenarioBody, `"age": 29`, `"age": 7`, 1)},
		"unknown month":  {"/api/surveys", strings.Replace(scenarioBody, `"Mar"`, `"Smarch"`, 1)},
		"unknown format": {"/api/surveys?format=xlsx", scenarioBody},
		"bad attachment": {"/api/surveys?attachment=maybe", scenarioBody},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := postSurvey(router, tc.target, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, int64(1010), resp.Code)
			assert.Equal(t, "Some answers are missing or invalid.", resp.Notice)
		})
	}
}

func TestSubmitSurveyAppendFailure(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	table := mocks.NewMockAppender(ctl)
	cloud := mocks.NewMockUploader(ctl)
	table.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("read-only file system")).Times(1)

	router := newTestServer(sink.WithTable(table), sink.WithCloud(cloud)).setupRouter()
	w := postSurvey(router, "/api/surveys?attachment=true", scenarioBody)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	resp := decodeError(t, w)
	assert.Equal(t, int64(1300), resp.Code)
	assert.Equal(t, "append to local table failed", resp.Message)
	assert.Equal(t, "Your submission could not be saved. Please submit again.", resp.Notice)
}

func TestSubmitSurveyCloudFailure(t *testing.T) {
	router := newTestServer(sink.WithCloud(sink.UnavailableUploader(errors.New("invalid_grant")))).setupRouter()

	w := postSurvey(router, "/api/surveys", scenarioBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp submitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{
		"Your files are ready.",
		"Your files could not be uploaded to cloud storage. You can still download them.",
	}, resp.Messages)
	assert.Equal(t, sink.StatusFailed, resp.Channels[1].Status)
	assert.Contains(t, resp.Channels[1].Error, "invalid_grant")
	assert.NotEmpty(t, resp.Download.Data)
}

func TestSubmitSurveyCloudSuccess(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	cloud := mocks.NewMockUploader(ctl)
	cloud.EXPECT().Upload(gomock.Any(), scenarioID+".zip", gomock.Any()).Return("2025_citilab_bike/Survey/"+scenarioID+".zip", nil).Times(1)

	router := newTestServer(sink.WithCloud(cloud)).setupRouter()
	w := postSurvey(router, "/api/surveys", scenarioBody)
	require.Equal(t, http.StatusOK, w.Code)

	var resp submitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Messages, "Uploaded to cloud storage: 2025_citilab_bike/Survey/"+scenarioID+".zip")
}

func TestSubmitSurveyRateLimit(t *testing.T) {
	viper.Set("server.rate_limit.rps", 0.001)
	viper.Set("server.rate_limit.burst", 1)
	defer func() {
		viper.Set("server.rate_limit.rps", 0)
		viper.Set("server.rate_limit.burst", 0)
	}()

	router := newTestServer().setupRouter()

	w := postSurvey(router, "/api/surveys", scenarioBody)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postSurvey(router, "/api/surveys", scenarioBody)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, int64(1020), decodeError(t, w).Code)
}

func TestSurveyForm(t *testing.T) {
	router := newTestServer().setupRouter()

	req := httptest.NewRequest("GET", "/api/survey/form", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Variant string `json:"variant"`
		Age     struct {
			Min int `json:"min"`
			Max int `json:"max"`
		} `json:"age"`
		Options schema.FormOptions `json:"options"`
		Map     struct {
			Center [2]float64   `json:"center"`
			Bounds [][2]float64 `json:"bounds"`
		} `json:"map"`
		Downloads []string `json:"downloads"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, consts.DefaultVariant, resp.Variant)
	assert.Equal(t, 10, resp.Age.Min)
	assert.Equal(t, 100, resp.Age.Max)
	assert.Equal(t, consts.Genders, resp.Options.Gender)
	assert.Equal(t, consts.Months, resp.Options.TripMonth)
	assert.Empty(t, resp.Options.TripFrequency)
	require.Len(t, resp.Map.Bounds, 2)
	assert.InDelta(t, 13.720275905118468, resp.Map.Bounds[0][0], 1e-9)
	assert.InDelta(t, 100.57987498465178, resp.Map.Bounds[1][1], 1e-9)
	assert.Equal(t, []string{"zip", "csv", "geojson"}, resp.Downloads)
}

func TestHealthz(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	pinger := mocks.NewMockPinger(ctl)
	gomock.InOrder(
		pinger.EXPECT().Ping().Return(nil).Times(1),
		pinger.EXPECT().Ping().Return(errors.New("server selection timeout")).Times(1),
	)

	s := newTestServer()
	s.mongoStore = pinger
	router := s.setupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"OK"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, int64(999), decodeError(t, w).Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestServer().setupRouter()

	req := httptest.NewRequest("OPTIONS", "/api/surveys", nil)
	req.Header.Set("Origin", "https://survey.example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
