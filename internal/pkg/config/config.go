// Package config reads typed settings from a YAML file. Missing keys yield
// the zero value; callers apply their own defaults.
package config

import (
	"io"
	"time"
)

// Config is the read-only view of application settings.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string

	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint16(key string) uint16
	GetFloat64(key string) float64

	// GetSecond, GetMinute and GetDay read an integer and scale it to a duration.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetDay(key string) time.Duration

	// GetArray accepts either a YAML list or a comma separated string.
	// Elements are trimmed and empty elements dropped.
	GetArray(key string) []string
}
