// Package issue defines the error vocabulary shared by the payload decoder and
// the error overlay: validation issues addressed by a path, the client-side
// field error shape, and the `__formErrors` report that carries issues from the
// server back to the page after a full-page submission.
//
// The report wire shape is fixed:
//
//	{"__formErrors": [{"path": ["username"], "code": "too_small", "message": "is required"}]}
//
// Any other document is read as "no server errors" (see ParseReport).
package issue
