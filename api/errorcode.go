package api

import (
	"github.com/citilab/route-survey/sink"
	"github.com/citilab/route-survey/survey"
)

var (
	errorMessageMap = map[int64]string{
		999: "internal server error",

		1010: "invalid parameters",
		1020: "too many requests",

		1200: survey.ErrNoRouteDrawn.Error(),
		1201: survey.ErrUnsupportedGeometry.Error(),

		1300: sink.ErrAppendFailure.Error(),
	}

	// message ids of the notice shown to respondents
	errorNoticeMap = map[int64]string{
		999:  "internal_error",
		1010: "invalid_parameters",
		1020: "rate_limited",
		1200: "no_route_drawn",
		1201: "unsupported_geometry",
		1300: "append_failed",
	}

	errorInternalServer = errorJSON(999)

	errorInvalidParameters = errorJSON(1010)
	errorRateLimited       = errorJSON(1020)

	errorNoRouteDrawn        = errorJSON(1200)
	errorUnsupportedGeometry = errorJSON(1201)

	errorAppendFailure = errorJSON(1300)
)

type ErrorResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Notice  string `json:"notice,omitempty"`
}

// errorJSON converts an error code to a standardized error object
func errorJSON(code int64) ErrorResponse {
	var message string
	if msg, ok := errorMessageMap[code]; ok {
		message = msg
	} else {
		message = "unknown"
	}

	return ErrorResponse{
		Code:    code,
		Message: message,
	}
}
