package db

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/nickyhof/StructDB/core"
)

// Scan deserializes a row into a record instance. Reference columns become
// unresolved Ref values bound to resolver; they resolve on demand, one level
// deep. NULL columns leave the field at its zero value.
func Scan(row Row, table *core.Table, dest any, resolver core.Resolver) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return &core.DefinitionError{Type: table.Name, Reason: "scan destination must be a struct pointer"}
	}
	v = v.Elem()

	for _, col := range table.Columns {
		raw, ok := row[col.Name]
		if !ok || raw == nil {
			continue
		}
		field := v.Field(col.Field)

		if col.Kind == core.RefKind {
			key, err := Coerce(core.IntKind, raw)
			if err != nil {
				return fmt.Errorf("column %s: %w", col.Name, err)
			}
			ref := field.Addr().Interface().(core.RefValue)
			ref.SetKey(key.(int64))
			ref.Bind(resolver)
			continue
		}

		val, err := Coerce(col.Kind, raw)
		if err != nil {
			return fmt.Errorf("column %s: %w", col.Name, err)
		}
		if err := assign(field, col.Kind, val); err != nil {
			return fmt.Errorf("column %s: %w", col.Name, err)
		}
	}
	return nil
}

// Coerce normalizes a backend-produced value to the canonical Go type of a
// column kind: int64, float64, string, bool, time.Time or []byte. Drivers
// differ in what they hand back (MySQL returns []byte for text, DuckDB
// returns typed values), so coercion lives here rather than per backend.
func Coerce(k core.Kind, raw any) (any, error) {
	switch k {
	case core.IntKind, core.RefKind:
		return toInt64(raw)
	case core.FloatKind:
		return toFloat64(raw)
	case core.TextKind:
		return toString(raw)
	case core.BoolKind:
		return toBool(raw)
	case core.TimeKind:
		return toTime(raw)
	case core.BytesKind:
		return toBytes(raw)
	default:
		return nil, fmt.Errorf("unknown column kind %v", k)
	}
}

func assign(field reflect.Value, k core.Kind, val any) error {
	switch k {
	case core.IntKind:
		n := val.(int64)
		if field.CanUint() {
			field.SetUint(uint64(n))
		} else {
			field.SetInt(n)
		}
	case core.FloatKind:
		field.SetFloat(val.(float64))
	case core.TextKind:
		field.SetString(val.(string))
	case core.BoolKind:
		field.SetBool(val.(bool))
	case core.TimeKind:
		field.Set(reflect.ValueOf(val.(time.Time)))
	case core.BytesKind:
		field.SetBytes(val.([]byte))
	default:
		return fmt.Errorf("unknown column kind %v", k)
	}
	return nil
}

func toInt64(raw any) (any, error) {
	switch n := raw.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return nil, fmt.Errorf("cannot read %T as integer", raw)
	}
}

func toFloat64(raw any) (any, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case []byte:
		return strconv.ParseFloat(string(n), 64)
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return nil, fmt.Errorf("cannot read %T as float", raw)
	}
}

func toString(raw any) (any, error) {
	switch s := raw.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return nil, fmt.Errorf("cannot read %T as text", raw)
	}
}

func toBool(raw any) (any, error) {
	switch b := raw.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case []byte:
		return strconv.ParseBool(string(b))
	case string:
		return strconv.ParseBool(b)
	default:
		return nil, fmt.Errorf("cannot read %T as bool", raw)
	}
}

func toTime(raw any) (any, error) {
	switch t := raw.(type) {
	case time.Time:
		return t, nil
	case []byte:
		return parseTime(string(t))
	case string:
		return parseTime(t)
	default:
		return nil, fmt.Errorf("cannot read %T as time", raw)
	}
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}

func toBytes(raw any) (any, error) {
	switch b := raw.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, fmt.Errorf("cannot read %T as bytes", raw)
	}
}
