// Package overlay merges live client-side validation errors with the static
// error report returned by the server after a full-page submission.
//
// For a field f, ErrorFor returns the client error for f when one exists right
// now; otherwise the first server issue whose top-level path segment is f,
// reshaped to {Type: code, Message: message}; otherwise nothing. The client map
// is read on every lookup so re-validation after the user edits a field takes
// precedence over a stale server error without rebuilding the overlay.
//
// Wrap exposes the same rule behind a form-state view that passes every other
// property through unchanged.
package overlay
