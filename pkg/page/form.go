package page

import (
	"context"
	"io"

	"github.com/goliatone/go-formsubmit/pkg/action"
)

// Template names shipped with the package.
const (
	FormTemplate    = "form"
	SuccessTemplate = "success"
	FailureTemplate = "failure"
)

// FormRenderer renders an action.View with a named template.
type FormRenderer struct {
	engine   *Engine
	template string
	data     map[string]any
}

var _ action.Renderer = (*FormRenderer)(nil)

// NewFormRenderer renders views with template, or FormTemplate when empty.
// data is merged into every render, under the view's own keys.
func NewFormRenderer(engine *Engine, template string, data map[string]any) *FormRenderer {
	if template == "" {
		template = FormTemplate
	}
	return &FormRenderer{engine: engine, template: template, data: data}
}

// Render implements action.Renderer. Besides the view's fields the template
// receives error_for(field), which resolves the effective error message, and
// report, the JSON wire report when the view carries one.
func (f *FormRenderer) Render(ctx context.Context, w io.Writer, view action.View) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := make(map[string]any, len(f.data)+12)
	for key, value := range f.data {
		data[key] = value
	}
	data["title"] = view.Title
	data["action"] = view.Action
	data["method"] = view.Method
	data["enctype"] = view.Enctype
	data["status"] = view.Status
	data["fields"] = view.Fields
	data["hidden"] = view.Hidden
	data["form_errors"] = view.FormErrors
	data["error_for"] = func(field string) string {
		return view.ErrorFor(field)
	}
	if !view.Report.Empty() {
		raw, err := view.Report.Marshal()
		if err != nil {
			return err
		}
		data["report"] = string(raw)
	}

	_, err := f.engine.RenderTemplate(f.template, data, w)
	return err
}
