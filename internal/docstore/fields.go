package docstore

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Fields is the payload of a document. Decimals are stored as strings and
// times as RFC3339 strings so every backend round-trips them exactly.
type Fields map[string]any

// FieldError describes why a field could not be decoded.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q %s", e.Field, e.Reason)
}

func (f Fields) Clone() Fields {
	return maps.Clone(f)
}

func (f Fields) String(key string) (string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", &FieldError{Field: key, Reason: "is missing"}
	}

	s, ok := v.(string)
	if !ok {
		return "", &FieldError{Field: key, Reason: fmt.Sprintf("has type %T, want string", v)}
	}

	return s, nil
}

// OptString returns "" for a missing or null field.
func (f Fields) OptString(key string) (string, error) {
	if v, ok := f[key]; !ok || v == nil {
		return "", nil
	}

	return f.String(key)
}

func (f Fields) Decimal(key string) (decimal.Decimal, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return decimal.Zero, &FieldError{Field: key, Reason: "is missing"}
	}

	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, &FieldError{Field: key, Reason: fmt.Sprintf("is not a decimal: %q", n)}
		}

		return d, nil
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, &FieldError{Field: key, Reason: fmt.Sprintf("is not a decimal: %q", n)}
		}

		return d, nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	}

	return decimal.Zero, &FieldError{Field: key, Reason: fmt.Sprintf("has type %T, want decimal", v)}
}

// Time accepts RFC3339 strings, time.Time values and unix-millisecond
// strings or numbers.
func (f Fields) Time(key string) (time.Time, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return time.Time{}, &FieldError{Field: key, Reason: "is missing"}
	}

	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, nil
		}

		if ms, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}

		return time.Time{}, &FieldError{Field: key, Reason: fmt.Sprintf("is not a timestamp: %q", t)}
	case float64:
		return time.UnixMilli(int64(t)).UTC(), nil
	case int64:
		return time.UnixMilli(t).UTC(), nil
	}

	return time.Time{}, &FieldError{Field: key, Reason: fmt.Sprintf("has type %T, want timestamp", v)}
}

func EncodeDecimal(d decimal.Decimal) string {
	return d.String()
}

func EncodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
