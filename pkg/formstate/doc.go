// Package formstate is a small in-process form-state engine: current values,
// dirty tracking, a live client error map and a submitted flag.
//
// It plays the role a browser form library plays for a page. Validate writes
// the first issue per field into the live ErrorMap, which is exactly the
// container overlay.Wrap reads on every lookup.
package formstate
