package survey

import (
	"time"

	"github.com/google/uuid"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	log "github.com/sirupsen/logrus"

	"github.com/citilab/route-survey/schema"
)

const logPrefix = "survey"

// Session holds what one submission needs to know about its request. It
// is created per request and dropped with it.
type Session struct {
	RequestID string
	Now       time.Time
	Variant   schema.Variant
	Localizer *i18n.Localizer
	Log       *log.Entry
}

// NewSession starts a session for a submission received at now
func NewSession(variant schema.Variant, now time.Time, localizer *i18n.Localizer) *Session {
	requestID := uuid.New().String()
	return &Session{
		RequestID: requestID,
		Now:       now,
		Variant:   variant,
		Localizer: localizer,
		Log: log.WithFields(log.Fields{
			"prefix":     logPrefix,
			"request_id": requestID,
			"variant":    variant.Name,
		}),
	}
}
