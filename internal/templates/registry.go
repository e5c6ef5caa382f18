package templates

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"qms/internal/domain"
	"qms/internal/domain/models/qms"
)

//go:embed catalog/*.yaml
var catalogFiles embed.FS

// Registry is the read-only catalog of template content schemas, one per
// template type, loaded from the embedded YAML files.
type Registry struct {
	schemas map[qms.TemplateType]*qms.ContentSchema
	mu      sync.RWMutex
}

// NewRegistry loads the schema of every supported template type.
// A missing or malformed catalog file is a startup error.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		schemas: make(map[qms.TemplateType]*qms.ContentSchema, len(qms.AllTemplateTypes)),
	}

	for _, t := range qms.AllTemplateTypes {
		if err := r.loadCatalogFile(t); err != nil {
			return nil, fmt.Errorf("failed to load %s template schema: %w", t, err)
		}
	}

	return r, nil
}

func (r *Registry) loadCatalogFile(t qms.TemplateType) error {
	filename := fmt.Sprintf("catalog/%s.yaml", strings.ToLower(string(t)))
	data, err := catalogFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var schema qms.ContentSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	if schema.Type != t {
		return fmt.Errorf("%s declares type %q", filename, schema.Type)
	}
	if err := checkSchema(&schema); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	r.mu.Lock()
	r.schemas[t] = &schema
	r.mu.Unlock()

	return nil
}

// checkSchema rejects duplicate names and defaults that would not pass
// validation of the schema's own default content.
func checkSchema(s *qms.ContentSchema) error {
	seen := make(map[string]bool)
	for _, sec := range s.Sections {
		if sec.Name == "" || seen[sec.Name] {
			return fmt.Errorf("invalid or duplicate section name %q", sec.Name)
		}
		seen[sec.Name] = true

		fields := make(map[string]bool)
		for _, f := range sec.Fields {
			if f.Name == "" || fields[f.Name] {
				return fmt.Errorf("section %s: invalid or duplicate field name %q", sec.Name, f.Name)
			}
			fields[f.Name] = true
			if f.Kind == qms.FieldTable && len(f.Columns) == 0 {
				return fmt.Errorf("section %s: table field %s has no columns", sec.Name, f.Name)
			}
		}
	}
	return s.DefaultContent().Validate(s)
}

// Get returns the schema for a template type.
func (r *Registry) Get(t qms.TemplateType) (*qms.ContentSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, ok := r.schemas[t]
	if !ok {
		return nil, domain.NotFoundf("template type %s", t)
	}
	return schema, nil
}

// List returns all schemas in catalog order.
func (r *Registry) List() []*qms.ContentSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]*qms.ContentSchema, 0, len(r.schemas))
	for _, t := range qms.AllTemplateTypes {
		if s, ok := r.schemas[t]; ok {
			schemas = append(schemas, s)
		}
	}
	return schemas
}

// DefaultContent returns a fresh default content tree for a template type.
func (r *Registry) DefaultContent(t qms.TemplateType) (qms.DocumentContent, error) {
	schema, err := r.Get(t)
	if err != nil {
		return qms.DocumentContent{}, err
	}
	return schema.DefaultContent(), nil
}

// Validate checks content against the schema selected by its type tag.
func (r *Registry) Validate(content qms.DocumentContent) error {
	if !content.Type.IsValid() {
		return domain.Validationf("unknown content type %q", content.Type)
	}
	schema, err := r.Get(content.Type)
	if err != nil {
		return err
	}
	return content.Validate(schema)
}

// Templates builds one active template row per catalog entry. The memory
// store and cmd/seed use it to populate the templates table.
func (r *Registry) Templates() []qms.Template {
	schemas := r.List()
	out := make([]qms.Template, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, qms.Template{
			Name:     s.DisplayName,
			Type:     s.Type,
			Content:  s.DefaultContent(),
			IsActive: true,
		})
	}
	return out
}
