package domain

// Decoded rows arrive as map[string]any with camelCase keys. These helpers
// bind them into the typed entities without caring which driver type the
// value came back as.

func recString(rec map[string]any, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func recBool(rec map[string]any, key string) bool {
	switch v := rec[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "t"
	default:
		return false
	}
}

// recActive treats a missing active flag as true: legacy rows predate the
// flag and were all live.
func recActive(rec map[string]any) bool {
	if v, ok := rec["active"]; !ok || v == nil {
		return true
	}
	return recBool(rec, "active")
}

func recInt64(rec map[string]any, key string) int64 {
	switch v := rec[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func recStrings(rec map[string]any, key string) []string {
	switch v := rec[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
