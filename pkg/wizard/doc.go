// Package wizard implements the stepped form engine: a Store holding field
// values and errors, a pure validation pass scoped to one step, and a
// Controller that sequences steps and drives the submit lifecycle through an
// injected SubmitFunc.
//
// Hosts render from Snapshot and call the Controller commands in response to
// user input. Validation runs only on Advance and Submit; field changes never
// validate eagerly and always clear the stale error for that field.
package wizard
