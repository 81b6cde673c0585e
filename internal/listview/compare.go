package listview

import (
	"cmp"
	"time"

	"golang.org/x/text/collate"
)

// Kind is the runtime kind of a sortable value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindTime
	KindBool
	KindOther
)

// Value is a sort key extracted from an item. Build one with String, Time,
// Bool or their nullable variants.
type Value struct {
	kind Kind
	s    string
	ms   int64
	b    bool
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Null is the absent value.
func Null() Value { return Value{kind: KindNull} }

// Other is a value the comparator does not order.
func Other() Value { return Value{kind: KindOther} }

// String is a text value compared with locale-aware collation.
func String(s string) Value { return Value{kind: KindString, s: s} }

// NullableString is String, or Null when s is nil.
func NullableString(s *string) Value {
	if s == nil {
		return Null()
	}
	return String(*s)
}

// Bool is a boolean value; false sorts before true.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// NullableBool is Bool, or Null when b is nil.
func NullableBool(b *bool) Value {
	if b == nil {
		return Null()
	}
	return Bool(*b)
}

// timeLayouts are the ISO-8601 shapes the backend sends.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Time parses an ISO-8601 timestamp and compares by epoch milliseconds.
// An empty or unparseable string is Null.
func Time(iso string) Value {
	if iso == "" {
		return Null()
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return Value{kind: KindTime, ms: t.UnixMilli()}
		}
	}
	return Null()
}

// NullableTime is Time, or Null when iso is nil.
func NullableTime(iso *string) Value {
	if iso == nil {
		return Null()
	}
	return Time(*iso)
}

// compareValues orders a before b (negative), after b (positive) or treats
// them as equal (zero). Nulls go to the tail whatever the direction; values
// of different kinds are equal so a stable sort keeps their input order.
func compareValues(a, b Value, dir SortDir, coll *collate.Collator) int {
	switch {
	case a.kind == KindNull && b.kind == KindNull:
		return 0
	case a.kind == KindNull:
		return 1
	case b.kind == KindNull:
		return -1
	case a.kind != b.kind:
		return 0
	}

	var c int
	switch a.kind {
	case KindString:
		c = coll.CompareString(a.s, b.s)
	case KindTime:
		c = cmp.Compare(a.ms, b.ms)
	case KindBool:
		c = compareBool(a.b, b.b)
	default:
		return 0
	}

	if dir == Desc {
		return -c
	}
	return c
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
