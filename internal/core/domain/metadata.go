package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// FilterMetadata returns a copy of metadata containing only values safe
// to persist alongside a vector record. Scalars pass through; slices and
// maps are kept only if they JSON-marshal cleanly and are dropped
// otherwise; any other value is coerced to its string form rather than
// dropped.
func FilterMetadata(metadata map[string]any) map[string]any {
	filtered := make(map[string]any, len(metadata))
	for key, value := range metadata {
		switch v := value.(type) {
		case nil, string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			filtered[key] = v
		default:
			switch reflect.ValueOf(value).Kind() {
			case reflect.Slice, reflect.Array, reflect.Map:
				if _, err := json.Marshal(value); err == nil {
					filtered[key] = value
				}
			default:
				filtered[key] = fmt.Sprintf("%v", v)
			}
		}
	}
	return filtered
}
