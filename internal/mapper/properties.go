package mapper

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// ErrInvalidOption indicates a value is not among a choice field's options.
var ErrInvalidOption = errors.New("value not among field options")

// ErrNotANumber indicates a value could not be parsed as an integer.
var ErrNotANumber = errors.New("value is not a number")

// ErrUnknownFieldType indicates a descriptor with a type outside FieldType.
var ErrUnknownFieldType = errors.New("unknown field type")

// waitingOption is the option the reading-status seed falls back to.
const waitingOption = "Waiting"

// PropertyMap maps destination field keys to string, int or []string values.
type PropertyMap map[string]any

// Dropped records a value that was left out of the property map.
type Dropped struct {
	Field  string
	Value  any
	Reason error
}

func (d Dropped) String() string {
	return fmt.Sprintf("%s=%v: %v", d.Field, d.Value, d.Reason)
}

// Result is the outcome of mapping one record.
type Result struct {
	Properties PropertyMap
	Dropped    []Dropped
}

// contribution is one semantic field offered to the schema.
type contribution struct {
	name  string
	value any // string or []string
}

func (f Fields) contributions() []contribution {
	return []contribution{
		{FieldNameAuthors, f.Authors},
		{FieldNameYear, f.Year},
		{FieldNamePublication, f.Publication},
		{FieldNameURL, f.URL},
		{FieldNameDateAdded, f.DateAdded},
		{FieldNameItemType, f.ItemType},
		{FieldNameTags, f.Tags},
		{FieldNameStatus, f.Status},
	}
}

// MapProperties builds the property map for a record against a schema.
// Fields the schema does not declare, and empty values, are skipped. Values
// that cannot be coerced to the declared type are reported in Dropped.
func MapProperties(f Fields, schema *Schema) Result {
	acc := Result{Properties: PropertyMap{}}
	for _, c := range f.contributions() {
		acc = apply(acc, schema, c)
	}
	return acc
}

// apply folds one contribution into the accumulated result without mutating it.
func apply(acc Result, schema *Schema, c contribution) Result {
	desc, ok := schema.Lookup(c.name)
	if !ok || isEmpty(c.value) {
		return acc
	}

	value, err := coerce(desc, c.name, c.value)
	if err != nil {
		dropped := make([]Dropped, len(acc.Dropped), len(acc.Dropped)+1)
		copy(dropped, acc.Dropped)
		return Result{
			Properties: acc.Properties,
			Dropped:    append(dropped, Dropped{Field: c.name, Value: c.value, Reason: err}),
		}
	}

	props := maps.Clone(acc.Properties)
	props[desc.PropertyKey()] = value
	return Result{Properties: props, Dropped: acc.Dropped}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	}
	return false
}

func coerce(desc FieldDescriptor, name string, v any) (any, error) {
	switch desc.Type {
	case FieldNumber:
		return coerceNumber(v)
	case FieldShortText, FieldLongText, FieldURL:
		return coerceText(v), nil
	case FieldDate:
		return coerceText(v), nil
	case FieldSingleChoice:
		return coerceSingleChoice(desc.Options, v)
	case FieldMultiChoice:
		if name == FieldNameTags {
			return coerceTagChoice(desc.Options, v)
		}
		return coerceMultiChoice(desc.Options, v)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownFieldType, desc.Type)
}

func coerceNumber(v any) (any, error) {
	s := strings.TrimSpace(coerceText(v))
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	return n, nil
}

func coerceText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	}
	return fmt.Sprint(v)
}

func coerceSingleChoice(options []string, v any) (any, error) {
	s := strings.TrimSpace(coerceText(v))
	if len(options) == 0 {
		return s, nil
	}
	if opt, ok := matchOption(options, s, foldPlain); ok {
		return opt, nil
	}
	if strings.EqualFold(s, StatusSeed) {
		if opt, ok := matchOption(options, waitingOption, foldPlain); ok {
			return opt, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidOption, s)
}

// coerceTagChoice keeps the tags that name an option, in the option's
// casing. It fails when nothing matches.
func coerceTagChoice(options []string, v any) (any, error) {
	tags := toList(v)
	if len(options) == 0 {
		return dedupe(tags), nil
	}

	var matched []string
	for _, tag := range tags {
		if opt, ok := matchOption(options, tag, foldTag); ok {
			matched = append(matched, opt)
		}
	}
	matched = dedupe(matched)
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOption, tags)
	}
	return matched, nil
}

// coerceMultiChoice accepts a list, a comma-separated string or a scalar.
// A non-empty option set is a closed vocabulary.
func coerceMultiChoice(options []string, v any) (any, error) {
	values := toList(v)
	if len(options) == 0 {
		return values, nil
	}

	var kept []string
	for _, val := range values {
		if opt, ok := matchOption(options, val, foldPlain); ok {
			kept = append(kept, opt)
		}
	}
	kept = dedupe(kept)
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOption, values)
	}
	return kept, nil
}

func toList(v any) []string {
	var raw []string
	switch t := v.(type) {
	case []string:
		raw = t
	case string:
		raw = strings.Split(t, ",")
	default:
		raw = []string{fmt.Sprint(v)}
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func foldPlain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// foldTag ignores a leading '#', case, and the difference between '_' and
// a space, so "#machine_learning" matches "Machine Learning".
func foldTag(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func matchOption(options []string, value string, fold func(string) string) (string, bool) {
	want := fold(value)
	for _, opt := range options {
		if fold(opt) == want {
			return opt, true
		}
	}
	return "", false
}
