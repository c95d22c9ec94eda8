package mapper

import (
	"strings"
)

// FieldType is the declared type of a destination field. The set is closed:
// every switch over it handles all variants.
type FieldType int

const (
	FieldShortText FieldType = iota + 1
	FieldLongText
	FieldNumber
	FieldURL
	FieldDate
	FieldSingleChoice
	FieldMultiChoice
)

func (t FieldType) String() string {
	switch t {
	case FieldShortText:
		return "short-text"
	case FieldLongText:
		return "long-text"
	case FieldNumber:
		return "number"
	case FieldURL:
		return "url"
	case FieldDate:
		return "date"
	case FieldSingleChoice:
		return "single-choice"
	case FieldMultiChoice:
		return "multi-choice"
	}
	return "unknown"
}

// IsChoice reports whether the type carries an option set.
func (t FieldType) IsChoice() bool {
	return t == FieldSingleChoice || t == FieldMultiChoice
}

// FieldDescriptor describes one field of a destination collection.
type FieldDescriptor struct {
	Name    string    `json:"name"`
	Key     string    `json:"key"`
	Type    FieldType `json:"type"`
	Options []string  `json:"options,omitempty"`
}

// PropertyKey is the key a value is stored under in a PropertyMap.
func (d FieldDescriptor) PropertyKey() string {
	if d.Key != "" {
		return d.Key
	}
	return d.Name
}

// Schema is the ordered field list of a destination collection.
type Schema struct {
	Fields []FieldDescriptor `json:"fields"`
}

// Lookup finds a field by display name, ignoring case. A nil schema has no
// fields.
func (s *Schema) Lookup(name string) (FieldDescriptor, bool) {
	if s == nil {
		return FieldDescriptor{}, false
	}
	for _, f := range s.Fields {
		if strings.EqualFold(strings.TrimSpace(f.Name), name) {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Fields)
}
