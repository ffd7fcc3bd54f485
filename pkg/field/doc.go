// Package field describes the declarative inputs a wizard is built from.
//
// A Spec is plain data plus two optional closures: a Validator that turns a
// value into an error message and a Formatter that normalises raw input before
// it is stored. Kind drives the empty default for each field, and Conditional
// scopes both visibility and requiredness to the value of another field.
package field
