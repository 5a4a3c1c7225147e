// Package schema declares record types from YAML and validates raw input
// against them.
//
// A definitions file lists types, their fields and the conversions from
// other types:
//
//	types:
//	  - name: tank_stats
//	    fields:
//	      - {name: battles, kind: int}
//	  - name: tank
//	    index: [tank_id]
//	    fields:
//	      - {name: tank_id, alias: _id, kind: int, required: true}
//	      - {name: name, kind: string}
//	      - {name: stats, type: tank_stats, nullable: true}
//	    conversions:
//	      - from: legacy_tank
//	        fields: {tank_id: id, name: title}
//
// Types may appear in any order; nested types are built first.
//
// Two validators implement record.Validator: CUEValidator unifies input with
// a CUE definition generated from the type, and JSONSchemaValidator checks
// it with gojsonschema against a generated JSON Schema. Both report failures
// as *record.ValidationError with dotted field paths.
package schema
