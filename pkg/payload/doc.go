// Package payload decodes form submissions into schema-validated values.
//
// A submission is read through a Source (an ordered multi-map of field names to
// text or file values), flattened into a plain map taking the last value for
// each name, and handed to a Schema. The result is either the schema's typed
// output or the schema's ordered list of issues, untouched:
//
//	result, err := payload.DecodeRequest(ctx, userSchema, r)
//	if err != nil {
//		// the body could not be read: respond with a generic failure page
//	}
//	if !result.OK {
//		report := result.Report() // {"__formErrors": [...]}
//	}
//
// The package performs no validation of its own. Fields that legitimately carry
// several values (checkboxes, multi-selects) must either be encoded by the
// caller into a single value or be named with WithMultiValue.
package payload
