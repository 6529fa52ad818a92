package utils

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestMetricsScopeReportsToLog(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	level := log.GetLevel()
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(level)

	scope, closer := NewMetricsScope("survey", 10*time.Millisecond)
	defer closer.Close()
	scope.Tagged(map[string]string{"channel": "cloud"}).Counter("channel_failures").Inc(2)

	reported := func() *log.Entry {
		for _, e := range hook.AllEntries() {
			if e.Data["metric"] == "survey.channel_failures" {
				return e
			}
		}
		return nil
	}
	assert.Eventually(t, func() bool { return reported() != nil }, time.Second, 10*time.Millisecond)

	e := reported()
	if assert.NotNil(t, e) {
		assert.Equal(t, int64(2), e.Data["value"])
		assert.Equal(t, "cloud", e.Data["tag_channel"])
		assert.Equal(t, metricsLogPrefix, e.Data["prefix"])
	}
}
