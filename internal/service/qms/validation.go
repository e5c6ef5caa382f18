package qms

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"qms/internal/config"
	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
)

// notBlank rejects strings, or string pointers, that are empty after trimming
var notBlank = validation.By(func(value interface{}) error {
	value, isNil := validation.Indirect(value)
	s, _ := value.(string)
	if isNil || strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "cannot be blank")
	}
	return nil
})

func validateCreateRequest(req *qmsSvc.CreateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.TemplateID, validation.Required),
		validation.Field(&req.Title,
			validation.Required,
			notBlank,
			validation.RuneLength(1, config.MaxDocumentTitleLength),
		),
	)
}

func validateSaveRequest(req *qmsSvc.SaveContentRequest) error {
	if req.Content == nil && req.Title == nil {
		return validation.NewError("validation_empty_save", "content or title is required")
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.When(req.Title != nil,
			notBlank,
			validation.RuneLength(1, config.MaxDocumentTitleLength),
		)),
		validation.Field(&req.Comments, validation.RuneLength(0, config.MaxCommentsLength)),
		validation.Field(&req.ExpectedVersion, validation.Min(1)),
	)
}

func validateAssignRequest(req *qmsSvc.AssignRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ReviewerIDs,
			validation.Length(0, config.MaxReviewers),
			validation.Each(notBlank),
		),
	)
}

// validateDecision checks the fields each action requires
func validateDecision(req *qmsSvc.DecisionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Action,
			validation.Required,
			validation.In(qmsSvc.ActionApprove, qmsSvc.ActionReject, qmsSvc.ActionEdit).
				Error("must be one of approve, reject, edit"),
		),
		validation.Field(&req.Signature,
			validation.When(req.Action == qmsSvc.ActionApprove, validation.Required, notBlank),
			validation.RuneLength(0, config.MaxSignatureLength),
		),
		validation.Field(&req.Comments,
			validation.When(req.Action == qmsSvc.ActionReject, validation.Required, notBlank),
			validation.RuneLength(0, config.MaxCommentsLength),
		),
	)
}

func validateProductRequest(req *qmsSvc.CreateProductRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, notBlank, validation.RuneLength(1, config.MaxCatalogNameLength)),
		validation.Field(&req.SKU, validation.Required, notBlank, validation.RuneLength(1, config.MaxCatalogNameLength)),
	)
}

func validateSupplierRequest(req *qmsSvc.CreateSupplierRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, notBlank, validation.RuneLength(1, config.MaxCatalogNameLength)),
		validation.Field(&req.Status, validation.In(
			qmsModels.SupplierPending, qmsModels.SupplierApproved, qmsModels.SupplierDisqualified,
		)),
	)
}
