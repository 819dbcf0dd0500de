// Package schema checks conversation model data against declared field types.
//
// Graph files declare the model as a map of field names to type strings:
//
//	model:
//	  count: int
//	  name: string
//	  visited: "[string]"
//
// ParseTypeMap turns that into a Schema. Check validates only the fields that
// are present, since a fresh session carries no model data at all; Require
// additionally reports missing fields.
package schema
