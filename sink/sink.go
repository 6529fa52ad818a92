package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally"

	"github.com/citilab/route-survey/export"
	"github.com/citilab/route-survey/schema"
)

const (
	ChannelTable   = "table"
	ChannelCloud   = "cloud"
	ChannelArchive = "archive"
)

const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

var (
	ErrAppendFailure  = errors.New("append to local table failed")
	ErrUploadFailure  = errors.New("upload to cloud storage failed")
	ErrArchiveFailure = errors.New("archive to record store failed")
)

// Appender - appends one row to a shared table, writing the header when
// the table is new. Returns where the row was written.
type Appender interface {
	Append(ctx context.Context, header, row []string) (string, error)
}

// Uploader - stores a named blob in a remote folder and returns its location
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// Archiver - keeps the record and its route in a record store
type Archiver interface {
	Archive(ctx context.Context, submission schema.SurveySubmission) (string, error)
}

// ChannelResult - outcome of one delivery channel
type ChannelResult struct {
	Channel  string `json:"channel"`
	Status   string `json:"status"`
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`

	err error
}

// Err returns the delivery error of a failed channel
func (r ChannelResult) Err() error {
	return r.err
}

// Report - the outcome of every channel for one submission
type Report struct {
	Results []ChannelResult `json:"channels"`
}

// Result returns the outcome of a channel
func (r Report) Result(channel string) (ChannelResult, bool) {
	for _, res := range r.Results {
		if res.Channel == channel {
			return res, true
		}
	}
	return ChannelResult{}, false
}

// Delivery - everything a channel may need about one submission
type Delivery struct {
	Variant    string
	Record     schema.SurveyRecord
	Collection schema.FeatureCollection
	Bundle     *export.Bundle
}

// Dispatcher delivers a bundle to the enabled channels. A nil channel is
// disabled.
type Dispatcher struct {
	table   Appender
	cloud   Uploader
	archive Archiver
	timeout time.Duration
	scope   tally.Scope
	now     func() time.Time
}

type Option func(*Dispatcher)

func WithTable(a Appender) Option {
	return func(d *Dispatcher) { d.table = a }
}

func WithCloud(u Uploader) Option {
	return func(d *Dispatcher) { d.cloud = u }
}

func WithArchive(a Archiver) Option {
	return func(d *Dispatcher) { d.archive = a }
}

// WithTimeout bounds each remote channel call
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

func WithMetrics(scope tally.Scope) Option {
	return func(d *Dispatcher) { d.scope = scope }
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		timeout: time.Minute,
		scope:   tally.NoopScope,
		now:     time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Deliver runs the table, cloud and archive channels in that order. A
// table failure loses the submission: no other channel runs and the error
// wraps ErrAppendFailure. Cloud and archive failures are only reported.
func (d *Dispatcher) Deliver(ctx context.Context, log *logrus.Entry, dv Delivery) (Report, error) {
	var report Report

	table := d.run(ctx, log, ChannelTable, d.table != nil, ErrAppendFailure, func(ctx context.Context) (string, error) {
		return d.table.Append(ctx, dv.Bundle.Header, dv.Bundle.Row)
	})
	report.Results = append(report.Results, table)
	if table.Status == StatusFailed {
		return report, table.err
	}

	report.Results = append(report.Results, d.run(ctx, log, ChannelCloud, d.cloud != nil, ErrUploadFailure, func(ctx context.Context) (string, error) {
		zf := dv.Bundle.ZipFile()
		return d.cloud.Upload(ctx, dv.Bundle.SurveyID+".zip", zf.Data)
	}))

	report.Results = append(report.Results, d.run(ctx, log, ChannelArchive, d.archive != nil, ErrArchiveFailure, func(ctx context.Context) (string, error) {
		submission := schema.SurveySubmission{
			Record:    dv.Record,
			Variant:   dv.Variant,
			Timestamp: d.now().UTC().Unix(),
		}
		if len(dv.Collection.Features) > 0 {
			f := dv.Collection.Features[0]
			submission.Route = f.Geometry
			submission.Origin = f.Properties.Origin
			submission.Destination = f.Properties.Destination
		}
		return d.archive.Archive(ctx, submission)
	}))

	return report, nil
}

func (d *Dispatcher) run(ctx context.Context, log *logrus.Entry, channel string, enabled bool, failure error, deliver func(context.Context) (string, error)) ChannelResult {
	if !enabled {
		return ChannelResult{Channel: channel, Status: StatusDisabled}
	}

	scope := d.scope.Tagged(map[string]string{"channel": channel})
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	sw := scope.Timer("channel_latency").Start()
	location, err := deliver(ctx)
	sw.Stop()

	if err != nil {
		err = fmt.Errorf("%w: %w", failure, err)
		scope.Counter("channel_failures").Inc(1)
		log.WithField("channel", channel).WithError(err).Error("deliver submission")
		sentry.CaptureException(err)
		return ChannelResult{Channel: channel, Status: StatusFailed, Error: err.Error(), err: err}
	}

	log.WithFields(logrus.Fields{
		"channel":  channel,
		"location": location,
	}).Info("delivered submission")
	return ChannelResult{Channel: channel, Status: StatusOK, Location: location}
}

type unavailableUploader struct {
	err error
}

// UnavailableUploader stands in for a cloud uploader that could not be
// initialized; every upload fails with the initialization error.
func UnavailableUploader(err error) Uploader {
	return unavailableUploader{err: err}
}

func (u unavailableUploader) Upload(context.Context, string, []byte) (string, error) {
	return "", fmt.Errorf("cloud storage unavailable: %w", u.err)
}
