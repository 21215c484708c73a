package rag

import (
	"fmt"
	"strings"
)

// NormalizeMetadata converts loosely typed loader metadata into the flat
// string map the stores persist. List values are joined with ", ";
// everything else is formatted as its string representation. Nil values
// are dropped. This is the required invariant at the ingestion boundary:
// stored metadata is always scalar strings.
func NormalizeMetadata(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			out[key] = v
		case []string:
			out[key] = strings.Join(v, ", ")
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
			out[key] = strings.Join(parts, ", ")
		default:
			out[key] = fmt.Sprintf("%v", v)
		}
	}
	return out
}

// CopyMetadata returns a shallow copy so chunks do not share their source
// document's map.
func CopyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
