// Package valueobject holds small value types shared by entities, storage and
// transport, such as the free-form JSON carried by events and notifications.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/spf13/cast"
)

var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap is a free-form JSON object: event payloads and notification
// metadata. Getters are lenient because producers send ids as numbers or
// strings interchangeably.
// @swaggertype object
type JSONMap map[string]any

// Value stores the map as jsonb.
func (j JSONMap) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Scan reads a json or jsonb column. NULL becomes an empty map.
func (j *JSONMap) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case map[string]any:
		*j = v
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case json.RawMessage:
		raw = v
	default:
		return ErrScanValueNotBytes
	}

	var out JSONMap
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*j = out
	return nil
}

func (j JSONMap) Set(key string, value any) { j[key] = value }

func (j JSONMap) SetIfAbsent(key string, value any) {
	if _, ok := j[key]; !ok {
		j[key] = value
	}
}

func (j JSONMap) Get(key string) any { return j[key] }

func (j JSONMap) Has(key string) bool {
	_, ok := j[key]
	return ok
}

// GetString renders scalars as strings; maps, slices and nil give "".
func (j JSONMap) GetString(key string) string {
	return cast.ToString(j[key])
}

func (j JSONMap) GetInt(key string) int {
	return cast.ToInt(j[key])
}

// GetInt64 accepts numbers and numeric strings, 0 otherwise.
func (j JSONMap) GetInt64(key string) int64 {
	return cast.ToInt64(j[key])
}

// GetInt64Slice keeps the non-zero numeric elements of an array value.
func (j JSONMap) GetInt64Slice(key string) []int64 {
	switch v := j[key].(type) {
	case []int64:
		return v
	case []any:
		out := make([]int64, 0, len(v))
		for _, item := range v {
			if n := cast.ToInt64(item); n != 0 {
				out = append(out, n)
			}
		}
		return out
	default:
		return nil
	}
}
