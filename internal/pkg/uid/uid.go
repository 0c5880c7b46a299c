// Package uid provides identifier generators behind small interfaces so callers
// can swap them in tests.
package uid

// NumberID generates sortable numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
