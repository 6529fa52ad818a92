package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLocation(t *testing.T) {
	tz7 := GetLocation("GMT+7")
	assert.NotNil(t, tz7)
	assert.Equal(t, "GMT+7", tz7.String())

	tz_8 := GetLocation("gmt-8")
	assert.NotNil(t, tz_8)
	assert.Equal(t, "GMT-8", tz_8.String())

	assert.Nil(t, GetLocation("GMT+99"))
}

func TestLoadTimezone(t *testing.T) {
	tz, err := LoadTimezone("GMT+7")
	assert.NoError(t, err)
	assert.Equal(t, "GMT+7", tz.String())

	tz, err = LoadTimezone("UTC")
	assert.NoError(t, err)
	assert.Equal(t, "UTC", tz.String())

	tz, err = LoadTimezone("")
	assert.NoError(t, err)
	assert.NotNil(t, tz)

	_, err = LoadTimezone("Nowhere/Atlantis")
	assert.Error(t, err)
}
