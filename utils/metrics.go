package utils

import (
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
)

const metricsLogPrefix = "metrics"

// NewMetricsScope returns a root scope whose values are flushed to the
// log every interval.
func NewMetricsScope(prefix string, interval time.Duration) (tally.Scope, io.Closer) {
	return tally.NewRootScope(tally.ScopeOptions{
		Prefix:   prefix,
		Reporter: logReporter{},
	}, interval)
}

type logReporter struct{}

type logCapabilities struct{}

func (logCapabilities) Reporting() bool { return true }
func (logCapabilities) Tagging() bool   { return true }

func (logReporter) Capabilities() tally.Capabilities { return logCapabilities{} }

func (logReporter) Flush() {}

func (logReporter) ReportCounter(name string, tags map[string]string, value int64) {
	entry(name, tags).WithField("value", value).Debug("counter")
}

func (logReporter) ReportGauge(name string, tags map[string]string, value float64) {
	entry(name, tags).WithField("value", value).Debug("gauge")
}

func (logReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	entry(name, tags).WithField("value", interval).Debug("timer")
}

func (logReporter) ReportHistogramValueSamples(name string, tags map[string]string, _ tally.Buckets, lower, upper float64, samples int64) {
	entry(name, tags).WithFields(log.Fields{"lower": lower, "upper": upper, "samples": samples}).Debug("histogram")
}

func (logReporter) ReportHistogramDurationSamples(name string, tags map[string]string, _ tally.Buckets, lower, upper time.Duration, samples int64) {
	entry(name, tags).WithFields(log.Fields{"lower": lower, "upper": upper, "samples": samples}).Debug("histogram")
}

func entry(name string, tags map[string]string) *log.Entry {
	fields := log.Fields{"prefix": metricsLogPrefix, "metric": name}
	for k, v := range tags {
		fields["tag_"+k] = v
	}
	return log.WithFields(fields)
}
