package schema

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ValidationError rejects a record before any network call is made.
type ValidationError struct {
	Collection string
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Collection, e.Field, e.Reason)
}

var uuidRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func isUUID(s string) bool {
	return uuidRe.MatchString(strings.ToLower(s))
}

func isNumericID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Encode translates an in-process record into a storage payload for the given
// collection: camelCase keys become snake_case, fields outside the allow-list
// are dropped silently, numeric fields are integer-coerced and foreign keys
// validated per the collection's format and strictness.
//
// For the singleton collection the existing row id is resolved (and cached)
// so every write updates that row instead of inserting a second one.
func (r *Registry) Encode(ctx context.Context, collection string, rec Record) (Payload, error) {
	spec, ok := r.specs[collection]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}

	out := make(Payload, len(rec))
	for key, val := range rec {
		name := ToSnake(key)
		f, listed := spec.field(name)
		if !listed {
			continue // stale or renamed client field
		}

		if f.Numeric {
			n, ok, err := coerceInt(val)
			if err != nil || !ok {
				if f.Required {
					return nil, &ValidationError{Collection: collection, Field: name, Reason: "not a number"}
				}
				continue // omit rather than force zero
			}
			out[name] = n
			continue
		}

		if f.Foreign {
			s, _ := val.(string)
			if val == nil || s == "" {
				out[name] = nil
				continue
			}
			if !validFK(spec.FKFormat, s) {
				if spec.Strict {
					return nil, &ValidationError{Collection: collection, Field: name, Reason: fmt.Sprintf("malformed reference %q", s)}
				}
				out[name] = nil // tolerant write: never ship a corrupt reference
				continue
			}
			out[name] = s
		} else {
			out[name] = val
		}
	}

	for _, f := range spec.Fields {
		if !f.Required {
			continue
		}
		if v, ok := out[f.Name]; !ok || v == nil {
			return nil, &ValidationError{Collection: collection, Field: f.Name, Reason: "required field missing"}
		}
	}

	if spec.Singleton {
		id, err := r.singletonID(ctx, spec.Table)
		if err != nil {
			return nil, err
		}
		if id != "" {
			out["id"] = id
		} else {
			delete(out, "id") // first ever write inserts the row
		}
	}

	return out, nil
}

// Decode translates a storage payload back into an in-process record. It is
// the exact inverse of Encode for any record whose fields are allow-listed:
// Decode(Encode(x)) == x.
func (r *Registry) Decode(payload Payload) Record {
	out := make(Record, len(payload))
	for key, val := range payload {
		out[ToCamel(key)] = val
	}
	return out
}

func validFK(format FKFormat, s string) bool {
	switch format {
	case FKUUID:
		return isUUID(s)
	case FKNumeric:
		return isNumericID(s)
	default:
		return true
	}
}

func coerceInt(val any) (int64, bool, error) {
	switch v := val.(type) {
	case nil:
		return 0, false, nil
	case int:
		return int64(v), true, nil
	case int32:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	case float64:
		return int64(v), true, nil
	case float32:
		return int64(v), true, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false, err
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported numeric type %T", val)
	}
}

// ToSnake converts a camelCase field name to its storage column name. Keys
// that already contain underscores pass through lower-cased.
func ToSnake(key string) string {
	if strings.Contains(key, "_") {
		return strings.ToLower(key)
	}
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToCamel converts a storage column name back to the in-process field name.
func ToCamel(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}
	parts := strings.Split(key, "_")
	var b strings.Builder
	b.Grow(len(key))
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
