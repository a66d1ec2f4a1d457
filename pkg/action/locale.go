package action

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/goliatone/go-formsubmit/pkg/issue"
)

type localeMatcher struct {
	tags    []language.Tag
	names   []string
	matcher language.Matcher
}

func newLocaleMatcher(supported []string) *localeMatcher {
	m := &localeMatcher{}
	for _, raw := range supported {
		tag, err := language.Parse(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		m.tags = append(m.tags, tag)
		m.names = append(m.names, strings.TrimSpace(raw))
	}
	if len(m.tags) > 0 {
		m.matcher = language.NewMatcher(m.tags)
	}
	return m
}

// LangParam is the query parameter that overrides Accept-Language.
const LangParam = "lang"

// locale picks the supported locale for r, or "" when none is configured. The
// lang query parameter wins over Accept-Language.
func (m *localeMatcher) locale(r *http.Request) string {
	if m == nil || m.matcher == nil {
		return ""
	}
	if raw := strings.TrimSpace(r.URL.Query().Get(LangParam)); raw != "" {
		if tag, err := language.Parse(raw); err == nil {
			if _, index, confidence := m.matcher.Match(tag); confidence != language.No {
				return m.names[index]
			}
		}
	}
	accepted, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(accepted) == 0 {
		return m.names[0]
	}
	_, index, confidence := m.matcher.Match(accepted...)
	if confidence == language.No {
		return m.names[0]
	}
	return m.names[index]
}

func (h *Handler[T]) localize(r *http.Request, issues []issue.FieldIssue) []issue.FieldIssue {
	if h.cfg.translator == nil && h.cfg.onMissing == nil {
		return issues
	}
	return issue.Localize(issues, h.cfg.locales.locale(r), h.cfg.translator, h.cfg.onMissing)
}
