package oem

// firstString resolves a CSV row value by trying header aliases in order,
// skipping missing and empty cells.
func firstString(row map[string]string, aliases ...string) (string, bool) {
	for _, key := range aliases {
		if v, ok := row[key]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// firstValue is the decoded-JSON counterpart of firstString: nil values and
// empty strings are skipped, everything else wins, zero included.
func firstValue(obj map[string]any, aliases ...string) any {
	for _, key := range aliases {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		return v
	}
	return nil
}

// floatField coerces the first present alias of a CSV row to float64.
func floatField(row map[string]string, aliases ...string) (float64, bool) {
	v, ok := firstString(row, aliases...)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// intField coerces the first present alias of a CSV row to int.
func intField(row map[string]string, aliases ...string) (int, bool) {
	v, ok := firstString(row, aliases...)
	if !ok {
		return 0, false
	}
	return toInt(v)
}

// deepGet walks nested objects by key, reporting nil as soon as a step is
// not an object or the key is missing.
func deepGet(obj map[string]any, keys ...string) any {
	var current any = obj
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}

// objectEntries filters a decoded JSON list down to its object members.
func objectEntries(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// defaultWrapperKeys are the envelope keys the gateway-style feeds nest
// their reading lists under.
var defaultWrapperKeys = []string{"records", "data", "items", "result"}

// wrappedList unwraps the envelope shapes the cloud portals use: the first
// wrapper key holding a list yields its object members, an object member
// yields a single entry, a bare top-level list yields its object members,
// and any other object is treated as a single reading itself.
func wrappedList(payload any, keys ...string) []map[string]any {
	switch p := payload.(type) {
	case map[string]any:
		for _, key := range keys {
			switch v := p[key].(type) {
			case []any:
				return objectEntries(v)
			case map[string]any:
				return []map[string]any{v}
			}
		}
		return []map[string]any{p}
	case []any:
		return objectEntries(p)
	}
	return nil
}
