package models

import (
	"sort"
	"strconv"
	"time"
)

// ValueKind identifies which scalar a Value carries
type ValueKind int

const (
	KindNone ValueKind = iota
	KindString
	KindInt
	KindTime
)

// Value is an optional scalar filter value (string, integer or ISO-8601 timestamp).
// The zero Value is "not set".
type Value struct {
	Kind ValueKind
	Str  string
	Int  int64
	Time time.Time
}

// StringValue wraps s. An empty string is treated as unset.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// IntValue wraps n
func IntValue(n int64) Value {
	return Value{Kind: KindInt, Int: n}
}

// TimeValue wraps t. The zero time is treated as unset.
func TimeValue(t time.Time) Value {
	return Value{Kind: KindTime, Time: t}
}

// IsEmpty reports whether the value carries nothing worth filtering on
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindString:
		return v.Str == ""
	case KindInt:
		return false
	case KindTime:
		return v.Time.IsZero()
	default:
		return true
	}
}

// String returns the canonical wire form of the value.
// Timestamps are normalized to UTC RFC 3339 so equal instants compare equal.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindTime:
		if v.Time.IsZero() {
			return ""
		}
		return v.Time.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

// Equal compares two values by kind and canonical form
func (v Value) Equal(o Value) bool {
	if v.IsEmpty() && o.IsEmpty() {
		return true
	}
	return v.Kind == o.Kind && v.String() == o.String()
}

// FilterCriteria maps a field name to an optional scalar.
// Absent keys and empty values mean the same thing.
type FilterCriteria map[string]Value

// Clone returns a copy that shares nothing with c
func (c FilterCriteria) Clone() FilterCriteria {
	out := make(FilterCriteria, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Compact returns a copy with empty values removed
func (c FilterCriteria) Compact() FilterCriteria {
	out := make(FilterCriteria, len(c))
	for k, v := range c {
		if !v.IsEmpty() {
			out[k] = v
		}
	}
	return out
}

// Merge returns c with every non-empty value of over applied on top
func (c FilterCriteria) Merge(over FilterCriteria) FilterCriteria {
	out := c.Clone()
	for k, v := range over {
		if !v.IsEmpty() {
			out[k] = v
		}
	}
	return out
}

// Equal is deep equality over the non-empty fields
func (c FilterCriteria) Equal(o FilterCriteria) bool {
	a, b := c.Compact(), o.Compact()
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		ov, ok := b[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Fields returns the names of non-empty fields in sorted order
func (c FilterCriteria) Fields() []string {
	names := make([]string, 0, len(c))
	for k, v := range c {
		if !v.IsEmpty() {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// Canonical returns field -> canonical string for every non-empty field.
// Kind is folded in so IntValue(1) and StringValue("1") stay distinct.
func (c FilterCriteria) Canonical() map[string]string {
	out := make(map[string]string, len(c))
	for k, v := range c {
		if v.IsEmpty() {
			continue
		}
		out[k] = strconv.Itoa(int(v.Kind)) + ":" + v.String()
	}
	return out
}

// Get returns the string form of a field, or "" when unset
func (c FilterCriteria) Get(field string) string {
	v, ok := c[field]
	if !ok || v.IsEmpty() {
		return ""
	}
	return v.String()
}
