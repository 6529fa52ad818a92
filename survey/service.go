package survey

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/uber-go/tally"

	"github.com/citilab/route-survey/export"
	"github.com/citilab/route-survey/schema"
	"github.com/citilab/route-survey/sink"
)

const labelTimeout = 5 * time.Second

// Submission - the answers and the last drawing of one form submit
type Submission struct {
	Form    schema.SurveyForm
	Drawing json.RawMessage
}

// Result - what a successful submission produced
type Result struct {
	Record     schema.SurveyRecord
	Collection schema.FeatureCollection
	Bundle     *export.Bundle
	Report     sink.Report
}

// Service runs a submission from answers to delivered artifacts
type Service struct {
	builder    *RecordBuilder
	labeler    RouteLabeler
	dispatcher *sink.Dispatcher
	scope      tally.Scope
}

// NewService - labeler may be nil to leave route endpoints unnamed
func NewService(ids IDGenerator, labeler RouteLabeler, dispatcher *sink.Dispatcher, scope tally.Scope) *Service {
	if scope == nil {
		scope = tally.NoopScope
	}
	return &Service{
		builder:    NewRecordBuilder(ids),
		labeler:    labeler,
		dispatcher: dispatcher,
		scope:      scope,
	}
}

// Submit validates the answers, requires a drawn route, builds the record
// and its artifacts, then hands them to the export channels. When the
// returned error wraps sink.ErrAppendFailure the result still carries the
// channel report.
func (s *Service) Submit(ctx context.Context, sess *Session, sub Submission) (*Result, error) {
	form := sub.Form.Normalize()
	if err := form.Validate(sess.Variant); err != nil {
		return nil, err
	}

	route, err := ParseRoute(sub.Drawing)
	if err != nil {
		if errors.Is(err, ErrNoRouteDrawn) {
			s.scope.Counter("no_route").Inc(1)
		}
		return nil, err
	}

	layout, err := sess.Variant.ColumnLayout()
	if err != nil {
		return nil, err
	}

	record, err := s.builder.Build(ctx, sess, form)
	if err != nil {
		return nil, err
	}

	fc := AttachRoute(record, route, s.label(ctx, sess, route))

	bundle, err := export.Build(record, fc, layout)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Record:     record,
		Collection: fc,
		Bundle:     bundle,
	}

	result.Report, err = s.dispatcher.Deliver(ctx, sess.Log.WithField("survey_id", record.SurveyID), sink.Delivery{
		Variant:    sess.Variant.Name,
		Record:     record,
		Collection: fc,
		Bundle:     bundle,
	})
	if err != nil {
		return result, err
	}

	s.scope.Counter("submissions").Inc(1)
	sess.Log.WithField("survey_id", record.SurveyID).Info("survey submitted")

	return result, nil
}

func (s *Service) label(ctx context.Context, sess *Session, route schema.RouteGeometry) RouteLabels {
	if s.labeler == nil {
		return RouteLabels{}
	}

	ctx, cancel := context.WithTimeout(ctx, labelTimeout)
	defer cancel()

	labels, err := s.labeler.Label(ctx, route)
	if err != nil {
		sess.Log.WithError(err).Warn("label route endpoints")
	}
	return labels
}
