// Package page renders form pages with pongo2 templates.
//
// Engine is a small pongo2 template set with file, fs.FS and embedded loaders.
// FormRenderer adapts it to action.Renderer: the view's fields, hidden inputs
// and server report are exposed to the template together with an error_for
// helper that resolves a field's effective error through the overlay.
//
// Assets ships the browser overlay script. Serve it and point the runtime_src
// global at it to get the same error precedence while the user types.
package page
