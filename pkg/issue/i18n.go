package issue

import (
	"errors"
	"strings"
)

// KeyPrefix namespaces translation keys for issue messages.
const KeyPrefix = "formsubmit"

// ErrMissingTranslator is handed to a MissingTranslationHandler when no
// translator is configured.
var ErrMissingTranslator = errors.New("issue: translator not configured")

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

// Translate implements Translator.
func (f TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return f(locale, key, args...)
}

// MissingTranslationHandler decides the message when no translation exists.
// args carries {"field", "code", "default"}.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// MessageKeys lists the keys tried for found, most specific first:
// "formsubmit.<field>.<code>" then "formsubmit.<code>". Form-level issues only
// have the second.
func MessageKeys(found FieldIssue) []string {
	keys := make([]string, 0, 2)
	if field, ok := found.Field(); ok {
		keys = append(keys, KeyPrefix+"."+field+"."+found.Code)
	}
	return append(keys, KeyPrefix+"."+found.Code)
}

// Localize returns a copy of issues whose messages are translated for locale.
// Untranslated messages keep their original text unless onMissing says
// otherwise. Paths and codes are never changed.
func Localize(issues []FieldIssue, locale string, t Translator, onMissing MissingTranslationHandler) []FieldIssue {
	if issues == nil {
		return nil
	}
	out := make([]FieldIssue, len(issues))
	for i, found := range issues {
		out[i] = found
		out[i].Message = translate(locale, found, t, onMissing)
	}
	return out
}

func translate(locale string, found FieldIssue, t Translator, onMissing MissingTranslationHandler) string {
	field, _ := found.Field()
	args := []any{map[string]any{"field": field, "code": found.Code, "default": found.Message}}
	keys := MessageKeys(found)

	if t == nil {
		if onMissing != nil {
			return onMissing(locale, keys[0], args, ErrMissingTranslator)
		}
		return found.Message
	}

	var lastErr error
	for _, key := range keys {
		result, err := t.Translate(locale, key, args...)
		if err == nil && strings.TrimSpace(result) != "" {
			return result
		}
		lastErr = err
	}
	if onMissing != nil {
		return onMissing(locale, keys[0], args, lastErr)
	}
	return found.Message
}
