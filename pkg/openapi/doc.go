// Package openapi derives wizard definitions from OpenAPI 3 operations. The
// request body schema of an operation becomes the field list; x-wizard-*
// extensions on properties assign steps, ordering and conditionals. The
// kin-openapi types stay internal so callers only see schema.Definition.
//
// Loader reads documents from disk, an fs.FS or (when enabled) a URL, and
// Lint reports malformed x-wizard-* extensions before derivation.
package openapi
