package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

// Catalog holds the loaded translations.
type Catalog struct {
	bundle *i18n.Bundle
	lang   string
	log    logrus.FieldLogger
}

// New loads every embedded locale with lang as the fallback language.
func New(lang string, log logrus.FieldLogger) (*Catalog, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parse language %q: %w", lang, err)
	}

	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
		log.WithField("file", e.Name()).Debug("loaded locale file")
	}

	return &Catalog{bundle: bundle, lang: tag.String(), log: log}, nil
}

// Localizer picks the best match among the preferred languages, falling back to the default.
func (c *Catalog) Localizer(preferred ...string) *i18n.Localizer {
	return i18n.NewLocalizer(c.bundle, append(preferred, c.lang)...)
}

// WithLocalizer stores a localizer in the context.
func WithLocalizer(ctx context.Context, loc *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

func (c *Catalog) fromCtx(ctx context.Context) *i18n.Localizer {
	if loc, ok := ctx.Value(ctxKey{}).(*i18n.Localizer); ok {
		return loc
	}
	return c.Localizer()
}

// T translates a message by ID. Missing ids come back verbatim.
func (c *Catalog) T(ctx context.Context, msgID string) string {
	s, err := c.fromCtx(ctx).Localize(&i18n.LocalizeConfig{MessageID: msgID})
	if err != nil {
		c.log.WithError(err).WithField("id", msgID).Warn("missing translation")
		return msgID
	}
	return s
}
