package formsubmit

import (
	"io/fs"

	"github.com/goliatone/go-formsubmit/pkg/page"
)

// EmbeddedTemplates exposes the built-in form, success and failure templates
// so callers can copy or extend them without importing pkg/page.
func EmbeddedTemplates() fs.FS {
	return page.Templates()
}
