package validator

// Validator validates a struct by its `validate` tags.
type Validator interface {
	Validate(data any) error
}
