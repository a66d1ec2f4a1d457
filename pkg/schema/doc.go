// Package schema is the reference schema engine behind payload.Decode.
//
// A Schema wraps a kin-openapi object schema. Validate takes a flattened form
// submission, coerces form strings to the declared property types, applies
// defaults, drops undeclared keys and validates the result. Rejections are
// returned as *payload.ValidationError whose issues follow the declared
// property order and carry zod-style codes ("too_small", "invalid_type", ...).
//
// Messages can be overridden per keyword with the x-messages extension:
//
//	username:
//	  type: string
//	  minLength: 1
//	  x-messages:
//	    minLength: is required
package schema
