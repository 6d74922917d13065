package galaxy

import "encoding/json"

// Bag holds loosely typed metadata as decoded JSON.
// Accessors report whether the key was present with the expected type.
type Bag map[string]any

// String retrieves the string value for key.
func (b Bag) String(key string) (string, bool) {
	if v, ok := b[key]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Float retrieves a numeric value for key, converting from the integer kinds when needed.
func (b Bag) Float(key string) (float64, bool) {
	if v, ok := b[key]; ok {
		switch val := v.(type) {
		case float64:
			return val, true
		case float32:
			return float64(val), true
		case int:
			return float64(val), true
		case int64:
			return float64(val), true
		case json.Number:
			f, err := val.Float64()
			return f, err == nil
		}
	}
	return 0, false
}

// Int retrieves an integer value for key. Fractions are truncated.
func (b Bag) Int(key string) (int64, bool) {
	if v, ok := b[key]; ok {
		switch val := v.(type) {
		case int:
			return int64(val), true
		case int64:
			return val, true
		case float64:
			return int64(val), true
		case json.Number:
			n, err := val.Int64()
			return n, err == nil
		}
	}
	return 0, false
}

func (b Bag) Bool(key string) (bool, bool) {
	if v, ok := b[key]; ok {
		if x, ok := v.(bool); ok {
			return x, true
		}
	}
	return false, false
}

// Bag retrieves a nested object.
func (b Bag) Bag(key string) (Bag, bool) {
	if v, ok := b[key]; ok {
		switch val := v.(type) {
		case map[string]any:
			return Bag(val), true
		case Bag:
			return val, true
		}
	}
	return nil, false
}

// Strings retrieves a list of strings; non-string elements are skipped.
func (b Bag) Strings(key string) ([]string, bool) {
	v, ok := b[key]
	if !ok {
		return nil, false
	}
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// Len returns the length of a list value, or 0 when absent.
func (b Bag) Len(key string) int {
	if list, ok := b[key].([]any); ok {
		return len(list)
	}
	return 0
}
