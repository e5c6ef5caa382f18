// Package richtext handles HTML that the form editor puts into text fields.
package richtext

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"

	"qms/internal/domain/models/qms"
)

// markup matches the start of an HTML tag, comment or doctype. Plain text
// such as "USP <2021>" or "< 10 ppm" does not match and is left untouched.
var markup = regexp.MustCompile(`<[a-zA-Z/!]`)

// Sanitizer strips dangerous HTML (scripts, event handlers, javascript:
// URLs) from text values while keeping basic formatting.
//
// Safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer with the UGC policy
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// HasMarkup reports whether s looks like HTML
func HasMarkup(s string) bool {
	return markup.MatchString(s)
}

// SanitizeString cleans s when it contains markup
func (s *Sanitizer) SanitizeString(v string) string {
	if !HasMarkup(v) {
		return v
	}
	return s.policy.Sanitize(v)
}

// SanitizeContent returns a copy of c with every string value, including
// table cells, sanitized.
func (s *Sanitizer) SanitizeContent(c qms.DocumentContent) qms.DocumentContent {
	out := c.Clone()
	for _, sec := range out.Sections {
		for field, value := range sec {
			sec[field] = s.sanitizeValue(value)
		}
	}
	return out
}

func (s *Sanitizer) sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return s.SanitizeString(val)
	case []any:
		for i, item := range val {
			val[i] = s.sanitizeValue(item)
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = s.sanitizeValue(item)
		}
		return val
	default:
		return v
	}
}
