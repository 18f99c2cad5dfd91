// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Business code depends on the Validator interface; the go-playground v10
// implementation lives here together with the project's custom rules.
package validator

// Validator validates a struct and returns a descriptive error on failure.
type Validator interface {
	Validate(data any) error
}
