package translation

import (
	"embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/leonelquinteros/gotext"
	log "github.com/sirupsen/logrus"

	"crypto-daddy-bot/lib/helpers"
)

// DefaultLanguage is used when the configured locale has no catalog.
const DefaultLanguage = "ru"

//go:embed locales/*.po
var locales embed.FS

var placeholderRe = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)

// Fields holds values substituted into message templates. Nested maps are
// addressed with dotted placeholders such as {{rub.official}}.
type Fields map[string]interface{}

// Translator renders messages of a single locale.
type Translator struct {
	lang string
	po   *gotext.Po
}

// New loads the embedded catalog for lang, falling back to DefaultLanguage.
func New(lang string) *Translator {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "und" || lang == "" {
		lang = DefaultLanguage
	}

	buf, err := locales.ReadFile("locales/" + lang + ".po")
	if err != nil {
		log.Warnf("no translations for language %q, using %q", lang, DefaultLanguage)
		lang = DefaultLanguage
		buf, _ = locales.ReadFile("locales/" + lang + ".po")
	}

	return FromCatalog(lang, buf)
}

// FromCatalog builds a translator from raw .po content.
func FromCatalog(lang string, catalog []byte) *Translator {
	po := gotext.NewPo()
	po.Parse(catalog)

	return &Translator{lang: lang, po: po}
}

func (t *Translator) Language() string {
	return t.lang
}

// Translate returns the raw message for msgID, or msgID itself when unknown.
func (t *Translator) Translate(msgID string) string {
	return t.po.Get(msgID)
}

// Render substitutes fields into the message template for msgID. Placeholders
// without a value render as an empty string.
func (t *Translator) Render(msgID string, fields Fields) string {
	return Substitute(t.Translate(msgID), fields)
}

// List splits a multi-line message into its non-empty lines.
func (t *Translator) List(msgID string) []string {
	var items []string
	for _, line := range strings.Split(t.Translate(msgID), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			items = append(items, line)
		}
	}
	return items
}

// Substitute replaces {{name}} placeholders in template with HTML-escaped
// values from fields. The template itself is left as is.
func Substitute(template string, fields Fields) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(placeholder string) string {
		path := placeholderRe.FindStringSubmatch(placeholder)[1]
		return helpers.EscapeHTML(lookup(fields, strings.Split(path, ".")))
	})
}

func lookup(fields Fields, path []string) string {
	var current interface{} = map[string]interface{}(fields)

	for _, key := range path {
		switch m := current.(type) {
		case map[string]interface{}:
			current = m[key]
		case Fields:
			current = m[key]
		case map[string]string:
			current = m[key]
		default:
			return ""
		}
	}

	switch v := current.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case map[string]interface{}, Fields, map[string]string:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
