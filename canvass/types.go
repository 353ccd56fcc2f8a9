package canvass

import (
	"strconv"
	"strings"
	"time"
)

// ValueType is the declared type of a model prop or field value.
type ValueType int

const (
	TypeUnknown ValueType = iota
	TypeString
	TypeDate
	TypeBoolean
	TypeNumber
	TypeObject
	TypeObjectID

	arrayOffset = 16
)

const (
	TypeStringArray   = TypeString + arrayOffset
	TypeDateArray     = TypeDate + arrayOffset
	TypeBooleanArray  = TypeBoolean + arrayOffset
	TypeNumberArray   = TypeNumber + arrayOffset
	TypeObjectArray   = TypeObject + arrayOffset
	TypeObjectIDArray = TypeObjectID + arrayOffset
)

var typeNames = map[ValueType]string{
	TypeString:   "string",
	TypeDate:     "date",
	TypeBoolean:  "boolean",
	TypeNumber:   "number",
	TypeObject:   "object",
	TypeObjectID: "objectId",
}

// ParseValueType reads names like "string", "objectId" or "date[]".
func ParseValueType(name string) (ValueType, bool) {
	name = strings.TrimSpace(name)
	array := strings.HasSuffix(name, "[]")
	name = strings.TrimSuffix(name, "[]")
	for t, n := range typeNames {
		if strings.EqualFold(n, name) {
			if array {
				return t.Array(), true
			}
			return t, true
		}
	}
	return TypeUnknown, false
}

func (t ValueType) String() string {
	if n, ok := typeNames[t.Elem()]; ok {
		if t.IsArray() {
			return n + "[]"
		}
		return n
	}
	return "unknown"
}

// IsArray reports whether t is one of the array variants.
func (t ValueType) IsArray() bool { return t > arrayOffset }

// Elem returns the element type of an array variant, or t itself.
func (t ValueType) Elem() ValueType {
	if t.IsArray() {
		return t - arrayOffset
	}
	return t
}

// Array returns the array variant of a scalar type.
func (t ValueType) Array() ValueType {
	if t.IsArray() || t == TypeUnknown {
		return t
	}
	return t + arrayOffset
}

// Zero returns the default value of a fresh entity instance.
func (t ValueType) Zero() any {
	if t.IsArray() {
		return []any{}
	}
	switch t {
	case TypeString:
		return ""
	case TypeNumber:
		return float64(0)
	case TypeBoolean:
		return false
	}
	return nil
}

// StorageKind tells the normalizer whether a value is stored as a list or
// as a single object.
type StorageKind int

const (
	StorageAuto StorageKind = iota
	StorageObject
	StorageList
)

func (k StorageKind) String() string {
	switch k {
	case StorageObject:
		return "object"
	case StorageList:
		return "list"
	}
	return "auto"
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts time.Time, RFC 3339 style strings and epoch
// milliseconds. ok is false for anything unparsable.
func ParseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	case float64:
		return time.UnixMilli(int64(x)).UTC(), true
	case int64:
		return time.UnixMilli(x).UTC(), true
	case int:
		return time.UnixMilli(int64(x)).UTC(), true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ParseNumber converts JSON numbers, Go numerics and numeric strings.
func ParseNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// ConvertDates is a read hook turning date strings into time.Time for
// props of date type.
func ConvertDates(s *Schema) func(id int, raw any) any {
	return func(id int, raw any) any {
		p := s.Prop(id)
		if p == nil {
			return raw
		}
		switch p.Type {
		case TypeDate:
			if t, ok := ParseDate(raw); ok {
				return t
			}
		case TypeDateArray:
			if xs, ok := asSlice(raw); ok {
				out := make([]any, len(xs))
				for i, x := range xs {
					out[i] = x
					if t, ok := ParseDate(x); ok {
						out[i] = t
					}
				}
				return out
			}
		}
		return raw
	}
}
