package utils

import (
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

var bundle *i18n.Bundle

var messageFiles = []string{"en.yaml", "th.yaml"}

// InitI18NBundle loads the respondent-facing messages from dir
func InitI18NBundle(dir string) error {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	for _, f := range messageFiles {
		if _, err := b.LoadMessageFile(path.Join(dir, f)); err != nil {
			return err
		}
	}
	bundle = b
	return nil
}

// NewLocalizer returns a localizer for the given accept-language values.
// Without an initialized bundle every message falls back to its id.
func NewLocalizer(langs ...string) *i18n.Localizer {
	if bundle == nil {
		return nil
	}
	return i18n.NewLocalizer(bundle, langs...)
}

// Localize returns the translated message, or the message id when the
// message is unknown.
func Localize(loc *i18n.Localizer, messageID string, data map[string]interface{}) string {
	if loc == nil {
		return messageID
	}
	msg, err := loc.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
