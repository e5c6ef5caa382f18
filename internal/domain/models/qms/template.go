package qms

import "time"

// TemplateType is the kind of document a template produces. It tags the
// content variant.
type TemplateType string

const (
	TemplateCOA                   TemplateType = "COA"                    // Certificate of analysis
	TemplateCOC                   TemplateType = "COC"                    // Certificate of conformance
	TemplatePSF                   TemplateType = "PSF"                    // Product specification form
	TemplateBOM                   TemplateType = "BOM"                    // Bill of materials
	TemplateMMR                   TemplateType = "MMR"                    // Master manufacturing record
	TemplateLabelManuscript       TemplateType = "LABEL_MANUSCRIPT"       // Label copy
	TemplateRawMaterialSpec       TemplateType = "RAW_MATERIAL_SPEC"      // Raw material specification
	TemplateFinishedGoodsSpec     TemplateType = "FINISHED_GOODS_SPEC"    // Finished goods specification
	TemplateCCR                   TemplateType = "CCR"                    // Change control request
	TemplatePIS                   TemplateType = "PIS"                    // Product information sheet
	TemplateSDS                   TemplateType = "SDS"                    // Safety data sheet
	TemplateStabilityProtocol     TemplateType = "STABILITY_PROTOCOL"     // Stability study protocol
	TemplateSupplierQuestionnaire TemplateType = "SUPPLIER_QUESTIONNAIRE" // Supplier qualification questionnaire
)

// AllTemplateTypes lists every supported template type in catalog order.
var AllTemplateTypes = []TemplateType{
	TemplateCOA,
	TemplateCOC,
	TemplatePSF,
	TemplateBOM,
	TemplateMMR,
	TemplateLabelManuscript,
	TemplateRawMaterialSpec,
	TemplateFinishedGoodsSpec,
	TemplateCCR,
	TemplatePIS,
	TemplateSDS,
	TemplateStabilityProtocol,
	TemplateSupplierQuestionnaire,
}

// IsValid reports whether t is a supported template type.
func (t TemplateType) IsValid() bool {
	for _, known := range AllTemplateTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Template struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Type      TemplateType    `json:"type" db:"type"`
	Content   DocumentContent `json:"content" db:"content"` // Default field tree
	IsActive  bool            `json:"is_active" db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
