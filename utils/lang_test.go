package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalize(t *testing.T) {
	require.NoError(t, InitI18NBundle("../i18n"))

	en := NewLocalizer("en")
	assert.Equal(t, "Please draw your route before submitting.", Localize(en, "no_route_drawn", nil))
	assert.Equal(t, "Uploaded to cloud storage: a/b.zip", Localize(en, "upload_succeeded", map[string]interface{}{"Location": "a/b.zip"}))

	th := NewLocalizer("th-TH,th;q=0.9")
	assert.Equal(t, "กรุณาวาดเส้นทางของคุณก่อนส่งแบบสอบถาม", Localize(th, "no_route_drawn", nil))

	// unknown languages fall back to english
	fr := NewLocalizer("fr")
	assert.Equal(t, "Please draw your route before submitting.", Localize(fr, "no_route_drawn", nil))

	assert.Equal(t, "not_a_message", Localize(en, "not_a_message", nil))
	assert.Equal(t, "no_route_drawn", Localize(nil, "no_route_drawn", nil))
}

func TestInitI18NBundleMissingDir(t *testing.T) {
	assert.Error(t, InitI18NBundle("/nonexistent"))
}
