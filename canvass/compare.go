package canvass

import (
	"fmt"
	"strings"
	"time"
)

// CompareFunc orders two entities; negative sorts a first.
type CompareFunc func(a, b Entity) int

// Comparator orders entities by one field of a schema. The field is
// resolved once, at construction.
type Comparator struct {
	Schema *Schema
	Field  *Field
	// Descending negates valid-vs-valid date comparisons only; invalid
	// dates still sort last.
	Descending bool
}

// NewComparator binds a comparator to a schema field.
func NewComparator(s *Schema, fieldIndex int) (*Comparator, error) {
	if s == nil {
		return nil, fmt.Errorf("comparator: schema: %w", ErrMissingArgument)
	}
	f, err := s.Field(fieldIndex)
	if err != nil {
		return nil, fmt.Errorf("comparator: %w", err)
	}
	return &Comparator{Schema: s, Field: f}, nil
}

// Compare is a one-shot comparison of a and b by a schema field.
func Compare(s *Schema, fieldIndex int, a, b Entity) (int, error) {
	c, err := NewComparator(s, fieldIndex)
	if err != nil {
		return 0, err
	}
	return c.Compare(a, b), nil
}

// Func returns the comparator as a CompareFunc.
func (c *Comparator) Func() CompareFunc { return c.Compare }

// Compare dispatches on the field's value type. Fields over several model
// names compare name by name until one differs.
func (c *Comparator) Compare(a, b Entity) int {
	switch c.Field.Type.Elem() {
	case TypeString:
		return c.ladder(a, b, compareStrings)
	case TypeNumber:
		return c.ladder(a, b, compareNumbers)
	case TypeBoolean:
		return c.ladder(a, b, compareBooleans)
	case TypeDate:
		return c.ladder(a, b, func(x, y any) int { return compareDates(x, y, c.Descending) })
	}
	return c.ladder(a, b, BasicCompare)
}

func (c *Comparator) ladder(a, b Entity, cmp func(x, y any) int) int {
	for _, name := range c.Field.ModelNames {
		x, _ := c.Field.Lookup(a, name)
		y, _ := c.Field.Lookup(b, name)
		if r := cmp(x, y); r != 0 {
			return r
		}
	}
	return 0
}

func compareStrings(x, y any) int {
	if x == nil || y == nil {
		return BasicCompare(x, y)
	}
	return strings.Compare(toString(x), toString(y))
}

func compareNumbers(x, y any) int {
	fx, okx := ParseNumber(x)
	fy, oky := ParseNumber(y)
	if !okx || !oky {
		return BasicCompare(x, y)
	}
	return sign(fx - fy)
}

// compareBooleans sorts false before true; nil counts as false.
func compareBooleans(x, y any) int {
	bx, by := truthy(x), truthy(y)
	switch {
	case bx == by:
		return 0
	case !bx:
		return -1
	}
	return 1
}

// compareDates sorts valid dates by time and invalid ones after every
// valid date; two invalid dates are equal.
func compareDates(x, y any, descending bool) int {
	tx, okx := ParseDate(x)
	ty, oky := ParseDate(y)
	switch {
	case !okx && !oky:
		return 0
	case !okx:
		return 1
	case !oky:
		return -1
	}
	r := compareTimes(tx, ty)
	if descending {
		return -r
	}
	return r
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// BasicCompare orders raw scalars: nil sorts before any defined value,
// otherwise numbers, strings, booleans and times compare naturally.
// Values without a natural order compare equal.
func BasicCompare(x, y any) int {
	switch {
	case x == nil && y == nil:
		return 0
	case x == nil:
		return -1
	case y == nil:
		return 1
	}
	if sx, ok := x.(string); ok {
		if sy, ok := y.(string); ok {
			return strings.Compare(sx, sy)
		}
	}
	if fx, ok := ParseNumber(x); ok {
		if fy, ok := ParseNumber(y); ok {
			return sign(fx - fy)
		}
	}
	if bx, ok := x.(bool); ok {
		if by, ok := y.(bool); ok {
			return compareBooleans(bx, by)
		}
	}
	if tx, ok := x.(time.Time); ok {
		if ty, ok := y.(time.Time); ok {
			return compareTimes(tx, ty)
		}
	}
	return 0
}

func sign(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 0:
		return 1
	}
	return 0
}

// PropComparator orders entities by the raw value of one model prop using
// BasicCompare.
func PropComparator(p *ModelProp) CompareFunc {
	path := p.Path()
	return func(a, b Entity) int {
		x, _ := a.Lookup(path...)
		y, _ := b.Lookup(path...)
		return BasicCompare(x, y)
	}
}
