package listing

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/thesavant42/wafconsole/internal/models"
)

// FieldSpec describes one filterable field
type FieldSpec struct {
	Kind     models.ValueKind
	Label    string
	Validate func(models.Value) error // optional, only called for non-empty values
}

// Schema lists the fields a resource can be filtered on.
// Check, when set, validates combinations of fields and returns field -> message.
type Schema struct {
	Fields map[string]FieldSpec
	Order  []string
	Check  func(models.FilterCriteria) map[string]string
}

// timeLayouts are accepted for timestamp fields, most specific first
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse converts raw text into the field's Value. Empty text yields an unset Value.
func (s Schema) Parse(field, raw string) (models.Value, error) {
	spec, ok := s.Fields[field]
	if !ok {
		return models.Value{}, errors.New("unknown field")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Value{}, nil
	}

	switch spec.Kind {
	case models.KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return models.Value{}, errors.New("must be a whole number")
		}
		return models.IntValue(n), nil
	case models.KindTime:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return models.TimeValue(t), nil
			}
		}
		return models.Value{}, errors.New("must be an ISO-8601 timestamp")
	default:
		return models.StringValue(raw), nil
	}
}

// ParseAll parses a form's raw values. Every malformed field is reported.
func (s Schema) ParseAll(raw map[string]string) (models.FilterCriteria, error) {
	out := make(models.FilterCriteria, len(raw))
	verr := &ValidationError{}
	for field, text := range raw {
		v, err := s.Parse(field, text)
		if err != nil {
			verr.add(field, err.Error())
			continue
		}
		if !v.IsEmpty() {
			out[field] = v
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks every non-empty field of c against the schema
func (s Schema) Validate(c models.FilterCriteria) error {
	verr := &ValidationError{}
	for field, v := range c {
		if v.IsEmpty() {
			continue
		}
		spec, ok := s.Fields[field]
		if !ok {
			verr.add(field, "unknown field")
			continue
		}
		if v.Kind != spec.Kind {
			verr.add(field, "wrong value type")
			continue
		}
		if spec.Validate != nil {
			if err := spec.Validate(v); err != nil {
				verr.add(field, err.Error())
			}
		}
	}
	if len(verr.Fields) == 0 && s.Check != nil {
		for field, msg := range s.Check(c.Compact()) {
			verr.add(field, msg)
		}
	}
	return verr.orNil()
}

// FieldNames returns the field names in display order
func (s Schema) FieldNames() []string {
	if len(s.Order) > 0 {
		return s.Order
	}
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FilterState is the single source of truth for what a view asks for.
type FilterState struct {
	resource string
	schema   Schema
	pageSize int
	defaults models.FilterCriteria
	current  models.FilterCriteria
	identity Identity
	seeded   bool
	touched  bool
}

// NewFilterState starts from defaults
func NewFilterState(resource string, schema Schema, defaults models.FilterCriteria, pageSize int) *FilterState {
	f := &FilterState{
		resource: resource,
		schema:   schema,
		pageSize: pageSize,
		defaults: defaults.Compact(),
	}
	f.current = f.defaults.Clone()
	f.identity = DeriveIdentity(resource, f.current, pageSize)
	return f
}

// Criteria returns a copy of the current criteria
func (f *FilterState) Criteria() models.FilterCriteria {
	return f.current.Clone()
}

// Identity is derived from the current criteria and page size
func (f *FilterState) Identity() Identity {
	return f.identity
}

// Query returns what the coordinator needs for the current criteria
func (f *FilterState) Query() Query {
	return NewQuery(f.resource, f.current, f.pageSize)
}

// PageSize is fixed per view
func (f *FilterState) PageSize() int {
	return f.pageSize
}

// Schema returns the schema the state validates against
func (f *FilterState) Schema() Schema {
	return f.schema
}

// SetFilter replaces the criteria. A *ValidationError leaves the state untouched.
// changed reports whether the identity moved.
func (f *FilterState) SetFilter(next models.FilterCriteria) (changed bool, err error) {
	if err := f.schema.Validate(next); err != nil {
		return false, err
	}
	f.touched = true
	return f.replace(next.Compact()), nil
}

// Reset restores the defaults wholesale
func (f *FilterState) Reset() (changed bool) {
	f.touched = true
	return f.replace(f.defaults.Clone())
}

// ApplySeed merges a navigational override over the defaults. It takes effect only once
// and never after the user changed the filter; later calls return false.
func (f *FilterState) ApplySeed(seed models.FilterCriteria) (changed bool, err error) {
	if f.seeded || f.touched {
		return false, nil
	}
	f.seeded = true
	if len(seed.Compact()) == 0 {
		return false, nil
	}
	merged := f.defaults.Merge(seed)
	if err := f.schema.Validate(merged); err != nil {
		return false, err
	}
	return f.replace(merged), nil
}

// Seeded reports whether a seed was consumed
func (f *FilterState) Seeded() bool {
	return f.seeded
}

func (f *FilterState) replace(next models.FilterCriteria) bool {
	id := DeriveIdentity(f.resource, next, f.pageSize)
	changed := id != f.identity
	f.current = next
	f.identity = id
	return changed
}
