// Package submit provides REST collaborators for wizard.Controller: a
// SubmitFunc that posts the collected values to an endpoint and a DeleteFunc
// for the record being edited. Entity-to-payload mapping is a caller supplied
// PayloadMapper; the default sends values as they are stored.
package submit
