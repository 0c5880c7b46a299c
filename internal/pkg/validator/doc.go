// Package validator checks request and event structs with go-playground
// validator v10 and reports failures as a field-to-message map keyed by the
// JSON field name.
package validator
