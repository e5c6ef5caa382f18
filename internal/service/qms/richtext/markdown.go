package richtext

import (
	"fmt"
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"qms/internal/domain/models/qms"
)

// Renderer turns document content into markdown for LLM prompts. HTML
// field values are sanitized first, then converted.
type Renderer struct {
	sanitizer *Sanitizer
	converter *md.Converter
}

// NewRenderer creates a content-to-markdown renderer
func NewRenderer(sanitizer *Sanitizer) *Renderer {
	return &Renderer{
		sanitizer: sanitizer,
		converter: md.NewConverter("", true, nil),
	}
}

// Text renders one field value. Markup is converted to markdown; on
// conversion failure the sanitized HTML is returned as is.
func (r *Renderer) Text(v string) string {
	if !HasMarkup(v) {
		return v
	}
	clean := r.sanitizer.SanitizeString(v)
	out, err := r.converter.ConvertString(clean)
	if err != nil {
		return clean
	}
	return strings.TrimSpace(out)
}

// Document renders a document as markdown: a heading, then one
// sub-heading per section with "field: value" lines, tables as rows.
func (r *Renderer) Document(doc *qms.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "Type: %s | Workflow: %s | Version: %d\n", doc.TemplateType, doc.WorkflowStatus, doc.Version)

	for _, name := range sortedKeys(doc.Content.Sections) {
		sec := doc.Content.Sections[name]
		fmt.Fprintf(&b, "\n## %s\n", name)
		for _, field := range sortedKeys(sec) {
			r.writeField(&b, field, sec[field])
		}
	}
	return b.String()
}

func (r *Renderer) writeField(b *strings.Builder, field string, v any) {
	switch val := v.(type) {
	case nil:
	case string:
		if val != "" {
			fmt.Fprintf(b, "- %s: %s\n", field, r.Text(val))
		}
	case []any:
		if len(val) == 0 {
			return
		}
		fmt.Fprintf(b, "- %s:\n", field)
		for _, row := range val {
			cells, ok := row.(map[string]any)
			if !ok {
				fmt.Fprintf(b, "  - %v\n", row)
				continue
			}
			parts := make([]string, 0, len(cells))
			for _, col := range sortedKeys(cells) {
				if cells[col] == nil || cells[col] == "" {
					continue
				}
				cell := fmt.Sprint(cells[col])
				if s, ok := cells[col].(string); ok {
					cell = r.Text(s)
				}
				parts = append(parts, col+"="+cell)
			}
			if len(parts) > 0 {
				fmt.Fprintf(b, "  - %s\n", strings.Join(parts, ", "))
			}
		}
	default:
		fmt.Fprintf(b, "- %s: %v\n", field, val)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
