package api

import (
	"fmt"
)

// Unwrap strips {"data": ...} envelopes, however deeply nested, and returns
// the bare payload. Anything else is returned unchanged.
func Unwrap(raw any) any {
	for {
		m, ok := raw.(map[string]any)
		if !ok {
			return raw
		}
		inner, ok := m["data"]
		if !ok {
			return raw
		}
		raw = inner
	}
}

// UnwrapList normalizes a collection response into its items and total.
//
// Accepted shapes, after Unwrap: a bare array; an object holding the array
// under "items", "results" or one of keys (typically the resource name).
// The total is read from "total", "count" or "meta.total" and defaults to
// the number of items.
func UnwrapList(raw any, keys ...string) ([]any, int, error) {
	payload := Unwrap(raw)
	if list, ok := payload.([]any); ok {
		return list, len(list), nil
	}

	m, ok := payload.(map[string]any)
	if !ok {
		return nil, 0, fmt.Errorf("unexpected collection payload %T", payload)
	}

	var items []any
	found := false
	for _, k := range append([]string{"items", "results"}, keys...) {
		if list, ok := m[k].([]any); ok {
			items, found = list, true
			break
		}
	}
	if !found {
		return nil, 0, fmt.Errorf("collection payload has no items (keys: %v)", mapKeys(m))
	}

	total := len(items)
	if n, ok := number(m["total"]); ok {
		total = n
	} else if n, ok := number(m["count"]); ok {
		total = n
	} else if meta, ok := m["meta"].(map[string]any); ok {
		if n, ok := number(meta["total"]); ok {
			total = n
		}
	}
	return items, total, nil
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(raw any) string {
	m, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	for _, k := range []string{"message", "error", "detail"} {
		switch v := m[k].(type) {
		case string:
			return v
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				return msg
			}
		}
	}
	return ""
}

func number(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
