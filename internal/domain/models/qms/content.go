package qms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"qms/internal/domain"
)

// FieldKind is the value kind a schema field accepts.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldNumber FieldKind = "number"
	FieldDate   FieldKind = "date" // YYYY-MM-DD
	FieldBool   FieldKind = "bool"
	FieldTable  FieldKind = "table" // rows of column -> scalar
)

// FieldSchema describes a single form field.
type FieldSchema struct {
	Name    string    `yaml:"name" json:"name"`
	Label   string    `yaml:"label" json:"label"`
	Kind    FieldKind `yaml:"kind" json:"kind"`
	Columns []string  `yaml:"columns,omitempty" json:"columns,omitempty"` // table only
	Default any       `yaml:"default,omitempty" json:"default,omitempty"`
}

// SectionSchema groups fields under one heading.
type SectionSchema struct {
	Name   string        `yaml:"name" json:"name"`
	Label  string        `yaml:"label" json:"label"`
	Fields []FieldSchema `yaml:"fields" json:"fields"`
}

// ContentSchema is the explicit schema of one content variant.
type ContentSchema struct {
	Type        TemplateType    `yaml:"type" json:"type"`
	DisplayName string          `yaml:"display_name" json:"display_name"`
	Description string          `yaml:"description" json:"description"`
	Sections    []SectionSchema `yaml:"sections" json:"sections"`
}

func (s *ContentSchema) section(name string) *SectionSchema {
	for i := range s.Sections {
		if s.Sections[i].Name == name {
			return &s.Sections[i]
		}
	}
	return nil
}

func (s *SectionSchema) field(name string) *FieldSchema {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// DefaultContent builds the content tree a new document starts from:
// every declared field present, holding its default or an empty value.
func (s *ContentSchema) DefaultContent() DocumentContent {
	c := DocumentContent{Type: s.Type, Sections: make(map[string]Section, len(s.Sections))}
	for _, sec := range s.Sections {
		values := make(Section, len(sec.Fields))
		for _, f := range sec.Fields {
			if f.Default != nil {
				values[f.Name] = cloneValue(f.Default)
				continue
			}
			values[f.Name] = f.Kind.emptyValue()
		}
		c.Sections[sec.Name] = values
	}
	return c
}

func (k FieldKind) emptyValue() any {
	switch k {
	case FieldText, FieldDate:
		return ""
	case FieldBool:
		return false
	case FieldTable:
		return []any{}
	default:
		return nil
	}
}

// Section holds field values keyed by field name.
type Section map[string]any

// DocumentContent is the tagged content tree of a document. Type selects
// the variant schema the sections are validated against.
type DocumentContent struct {
	Type     TemplateType       `json:"type"`
	Sections map[string]Section `json:"sections"`
}

// UnmarshalJSON accepts the tagged form {"type": ..., "sections": {...}} or a
// bare section map, which is left untagged for the caller to tag.
func (c *DocumentContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*c = DocumentContent{}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("content must be an object: %w", err)
	}

	if rawSections, ok := raw["sections"]; ok {
		var tagged struct {
			Type     TemplateType       `json:"type"`
			Sections map[string]Section `json:"sections"`
		}
		if err := json.Unmarshal(trimmed, &tagged); err != nil {
			return err
		}
		if tagged.Sections == nil && !bytes.Equal(bytes.TrimSpace(rawSections), []byte("null")) {
			return fmt.Errorf("content sections must be an object")
		}
		c.Type = tagged.Type
		c.Sections = tagged.Sections
		return nil
	}

	var bare map[string]Section
	if err := json.Unmarshal(trimmed, &bare); err != nil {
		return fmt.Errorf("content sections must be objects: %w", err)
	}
	c.Type = ""
	c.Sections = bare
	return nil
}

// IsEmpty reports whether no sections are present.
func (c DocumentContent) IsEmpty() bool {
	return len(c.Sections) == 0
}

// Clone deep-copies the content tree.
func (c DocumentContent) Clone() DocumentContent {
	out := DocumentContent{Type: c.Type}
	if c.Sections == nil {
		return out
	}
	out.Sections = make(map[string]Section, len(c.Sections))
	for name, sec := range c.Sections {
		values := make(Section, len(sec))
		for k, v := range sec {
			values[k] = cloneValue(v)
		}
		out.Sections[name] = values
	}
	return out
}

// SetField sets one field value, creating the section if needed.
func (c *DocumentContent) SetField(section, field string, value any) {
	if c.Sections == nil {
		c.Sections = make(map[string]Section)
	}
	sec, ok := c.Sections[section]
	if !ok {
		sec = make(Section)
		c.Sections[section] = sec
	}
	sec[field] = value
}

// Text flattens the content into searchable text, sections in name order.
func (c DocumentContent) Text() string {
	names := make([]string, 0, len(c.Sections))
	for name := range c.Sections {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		sec := c.Sections[name]
		keys := make([]string, 0, len(sec))
		for k := range sec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeText(&b, sec[k])
		}
	}
	return strings.TrimSpace(b.String())
}

func writeText(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
	case string:
		if val != "" {
			b.WriteString(val)
			b.WriteByte(' ')
		}
	case []any:
		for _, item := range val {
			writeText(b, item)
		}
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeText(b, val[k])
		}
	case bool:
	default:
		fmt.Fprintf(b, "%v ", val)
	}
}

// Validate checks the content against its variant schema. Unknown sections
// or fields and kind mismatches are validation errors.
func (c DocumentContent) Validate(schema *ContentSchema) error {
	if schema == nil {
		return domain.Validationf("no schema for content type %q", c.Type)
	}
	if c.Type != schema.Type {
		return domain.Validationf("content type %q does not match template type %q", c.Type, schema.Type)
	}
	for secName, values := range c.Sections {
		sec := schema.section(secName)
		if sec == nil {
			return domain.Validationf("unknown section %q for %s", secName, schema.Type)
		}
		for fieldName, value := range values {
			f := sec.field(fieldName)
			if f == nil {
				return domain.Validationf("unknown field %q in section %q", fieldName, secName)
			}
			if err := f.check(value); err != nil {
				return domain.Validationf("%s.%s: %v", secName, fieldName, err)
			}
		}
	}
	return nil
}

func (f *FieldSchema) check(v any) error {
	if v == nil {
		return nil
	}
	switch f.Kind {
	case FieldText:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected text, got %T", v)
		}
	case FieldNumber:
		if !isNumber(v) {
			return fmt.Errorf("expected number, got %T", v)
		}
	case FieldDate:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected date string, got %T", v)
		}
		if s != "" {
			if _, err := time.Parse("2006-01-02", s); err != nil {
				return fmt.Errorf("expected date YYYY-MM-DD, got %q", s)
			}
		}
	case FieldBool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
	case FieldTable:
		rows, ok := v.([]any)
		if !ok {
			return fmt.Errorf("expected table rows, got %T", v)
		}
		for i, r := range rows {
			row, ok := r.(map[string]any)
			if !ok {
				return fmt.Errorf("row %d: expected object, got %T", i, r)
			}
			for col, cell := range row {
				if !f.hasColumn(col) {
					return fmt.Errorf("row %d: unknown column %q", i, col)
				}
				switch cell.(type) {
				case nil, string, bool:
				default:
					if !isNumber(cell) {
						return fmt.Errorf("row %d: column %q must be a scalar", i, col)
					}
				}
			}
		}
	default:
		return fmt.Errorf("schema declares unknown kind %q", f.Kind)
	}
	return nil
}

func (f *FieldSchema) hasColumn(name string) bool {
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return true
	}
	return false
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case Section:
		out := make(Section, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
