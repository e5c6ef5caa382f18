package qms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"qms/internal/domain"
	"qms/internal/domain/models"
	qmsModels "qms/internal/domain/models/qms"
	"qms/internal/domain/repositories"
	qmsRepo "qms/internal/domain/repositories/qms"
	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/service/qms/richtext"
	"qms/internal/templates"
)

// Stores groups the repositories the QMS services work against. Every
// repository must belong to the same backend as Tx.
type Stores struct {
	Tx            repositories.TransactionManager
	Documents     qmsRepo.DocumentRepository
	Approvals     qmsRepo.ApprovalRepository
	Versions      qmsRepo.VersionRepository
	Files         qmsRepo.FileRepository
	Templates     qmsRepo.TemplateRepository
	Products      qmsRepo.ProductRepository
	Suppliers     qmsRepo.SupplierRepository
	Notifications qmsRepo.NotificationRepository
}

// workflowService implements the WorkflowService interface
type workflowService struct {
	stores     Stores
	registry   *templates.Registry
	storage    qmsSvc.ObjectStorage
	dispatcher qmsSvc.NotificationDispatcher
	sanitizer  *richtext.Sanitizer
	logger     *slog.Logger
	now        func() time.Time
}

// NewWorkflowService creates the document lifecycle service
func NewWorkflowService(
	stores Stores,
	registry *templates.Registry,
	storage qmsSvc.ObjectStorage,
	dispatcher qmsSvc.NotificationDispatcher,
	sanitizer *richtext.Sanitizer,
	logger *slog.Logger,
) qmsSvc.WorkflowService {
	return &workflowService{
		stores:     stores,
		registry:   registry,
		storage:    storage,
		dispatcher: dispatcher,
		sanitizer:  sanitizer,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateFromTemplate creates a DRAFT document from the template's default content
func (s *workflowService) CreateFromTemplate(ctx context.Context, actor models.Identity, req *qmsSvc.CreateDocumentRequest) (*qmsModels.Document, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	tmpl, err := s.stores.Templates.GetByID(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if !tmpl.IsActive {
		return nil, domain.Validationf("template %s is inactive", tmpl.Name)
	}

	productID := normalizeID(req.ProductID)
	supplierID := normalizeID(req.SupplierID)
	if err := s.checkAssociations(ctx, productID, supplierID); err != nil {
		return nil, err
	}

	content := tmpl.Content.Clone()
	if content.IsEmpty() {
		if content, err = s.registry.DefaultContent(tmpl.Type); err != nil {
			return nil, err
		}
	}
	if content.Type == "" {
		content.Type = tmpl.Type
	}
	content = s.sanitizer.SanitizeContent(content)
	if err := s.registry.Validate(content); err != nil {
		return nil, fmt.Errorf("template %s default content: %w", tmpl.Type, err)
	}

	doc := &qmsModels.Document{
		Title:           strings.TrimSpace(req.Title),
		TemplateID:      &tmpl.ID,
		TemplateType:    tmpl.Type,
		Content:         content,
		Status:          qmsModels.StatusEditMode,
		WorkflowStatus:  qmsModels.WorkflowDraft,
		Version:         1,
		ProductID:       productID,
		SupplierID:      supplierID,
		AssignedUserIDs: []string{},
		CreatedBy:       actor.UserID,
	}
	if err := s.stores.Documents.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"document_id", doc.ID,
		"template_type", doc.TemplateType,
		"user_id", actor.UserID,
	)
	return doc, nil
}

// SaveContent replaces the content of an editable document, optionally
// recording a new version
func (s *workflowService) SaveContent(ctx context.Context, actor models.Identity, documentID string, req *qmsSvc.SaveContentRequest) (*qmsModels.Document, error) {
	if err := validateSaveRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var saved *qmsModels.Document
	err := s.stores.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.stores.Documents.GetForUpdate(txCtx, documentID)
		if err != nil {
			return err
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != doc.Version {
			return domain.NewConflict(doc.ID, "document is at version %d, expected %d", doc.Version, *req.ExpectedVersion)
		}
		if err := requireEditable(doc); err != nil {
			return err
		}

		if req.Content != nil {
			content, err := s.prepareContent(doc, *req.Content)
			if err != nil {
				return err
			}
			doc.Content = content
		}
		if req.Title != nil {
			doc.Title = strings.TrimSpace(*req.Title)
		}

		if req.AsNewVersion {
			doc.Version++
			if err := s.stores.Versions.Create(txCtx, &qmsModels.DocumentVersion{
				DocumentID: doc.ID,
				Version:    doc.Version,
				EditorID:   actor.UserID,
				EditorName: actor.Name,
				Content:    doc.Content.Clone(),
				Comments:   req.Comments,
			}); err != nil {
				return err
			}
		}

		if err := s.stores.Documents.Update(txCtx, doc); err != nil {
			return err
		}
		saved = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("document content saved",
		"document_id", saved.ID,
		"version", saved.Version,
		"new_version", req.AsNewVersion,
		"user_id", actor.UserID,
	)
	return saved, nil
}

// prepareContent tags bare content with the document's type, sanitizes
// markup and validates the result against the type's schema
func (s *workflowService) prepareContent(doc *qmsModels.Document, content qmsModels.DocumentContent) (qmsModels.DocumentContent, error) {
	content = content.Clone()
	if content.Type == "" {
		content.Type = doc.TemplateType
	}
	if content.Type != doc.TemplateType {
		return qmsModels.DocumentContent{}, domain.Validationf("content type %s does not match document type %s", content.Type, doc.TemplateType)
	}
	if content.Sections == nil {
		content.Sections = map[string]qmsModels.Section{}
	}
	content = s.sanitizer.SanitizeContent(content)
	if err := s.registry.Validate(content); err != nil {
		return qmsModels.DocumentContent{}, err
	}
	return content, nil
}

// Assign replaces the reviewers, appends a pending approval per reviewer
// and notifies them once the change is committed
func (s *workflowService) Assign(ctx context.Context, actor models.Identity, documentID string, req *qmsSvc.AssignRequest) (*qmsModels.Document, error) {
	if err := validateAssignRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	plan := planAssignment(req.ReviewerIDs)

	var assigned *qmsModels.Document
	err := s.stores.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.stores.Documents.GetForUpdate(txCtx, documentID)
		if err != nil {
			return err
		}
		if doc.IsLocked() {
			return domain.NewConflict(doc.ID, "document is signed and cannot be reassigned")
		}
		if doc.WorkflowStatus == qmsModels.WorkflowArchived {
			return domain.NewConflict(doc.ID, "document is archived")
		}

		if req.ProductID != nil {
			doc.ProductID = normalizeID(req.ProductID)
		}
		if req.SupplierID != nil {
			doc.SupplierID = normalizeID(req.SupplierID)
		}
		if err := s.checkAssociations(txCtx, doc.ProductID, doc.SupplierID); err != nil {
			return err
		}

		doc.AssignedUserIDs = plan.reviewers
		if len(plan.reviewers) > 0 {
			doc.WorkflowStatus = qmsModels.WorkflowInReview
		}
		for _, reviewer := range plan.reviewers {
			if err := s.stores.Approvals.Create(txCtx, &qmsModels.Approval{
				DocumentID: doc.ID,
				Status:     qmsModels.ApprovalPending,
				ApproverID: reviewer,
			}); err != nil {
				return err
			}
		}

		if err := s.stores.Documents.Update(txCtx, doc); err != nil {
			return err
		}
		assigned = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document assigned",
		"document_id", assigned.ID,
		"reviewers", len(plan.reviewers),
		"workflow_status", assigned.WorkflowStatus,
		"user_id", actor.UserID,
	)

	if len(plan.reviewers) > 0 {
		s.dispatcher.Dispatch(ctx, assigned.ID, plan.reviewers,
			fmt.Sprintf("%s assigned you to review %q", displayName(actor), assigned.Title))
	}
	return assigned, nil
}

// Decide applies a reviewer decision
func (s *workflowService) Decide(ctx context.Context, actor models.Identity, documentID string, req *qmsSvc.DecisionRequest) (*qmsSvc.DecisionResult, error) {
	if err := validateDecision(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.Action == qmsSvc.ActionEdit {
		doc, err := s.stores.Documents.GetByID(ctx, documentID)
		if err != nil {
			return nil, err
		}
		return &qmsSvc.DecisionResult{Document: doc, ReopenEditor: doc.IsEditable()}, nil
	}

	var result *qmsSvc.DecisionResult
	err := s.stores.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.stores.Documents.GetForUpdate(txCtx, documentID)
		if err != nil {
			return err
		}
		if doc.IsLocked() {
			return domain.NewConflict(doc.ID, "document is already %s", strings.ToLower(string(doc.WorkflowStatus)))
		}
		if doc.WorkflowStatus == qmsModels.WorkflowArchived {
			return domain.NewConflict(doc.ID, "document is archived")
		}

		now := s.now().UTC()
		approval := &qmsModels.Approval{
			DocumentID:   doc.ID,
			ApproverID:   actor.UserID,
			ApproverName: actor.Name,
			Comments:     strings.TrimSpace(req.Comments),
			ApprovedAt:   &now,
		}

		switch req.Action {
		case qmsSvc.ActionApprove:
			signature := strings.TrimSpace(req.Signature)
			approval.Status = qmsModels.ApprovalApproved
			doc.Status = qmsModels.StatusSigned
			doc.WorkflowStatus = qmsModels.WorkflowApproved
			doc.DigitalSignature = &signature
			doc.ApprovedAt = &now
		case qmsSvc.ActionReject:
			approval.Status = qmsModels.ApprovalRejected
			doc.Status = qmsModels.StatusEditMode
			doc.WorkflowStatus = qmsModels.WorkflowRejected
		}

		if err := doc.CheckInvariants(); err != nil {
			return err
		}
		if err := s.stores.Approvals.Create(txCtx, approval); err != nil {
			return err
		}
		if err := s.stores.Documents.Update(txCtx, doc); err != nil {
			return err
		}

		result = &qmsSvc.DecisionResult{
			Document:     doc,
			Approval:     approval,
			ReopenEditor: doc.IsEditable(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc := result.Document
	s.logger.Info("document decision recorded",
		"document_id", doc.ID,
		"action", req.Action,
		"workflow_status", doc.WorkflowStatus,
		"user_id", actor.UserID,
	)

	if doc.CreatedBy != "" && doc.CreatedBy != actor.UserID {
		var message string
		if req.Action == qmsSvc.ActionApprove {
			message = fmt.Sprintf("%s approved %q", displayName(actor), doc.Title)
		} else {
			message = fmt.Sprintf("%s rejected %q: %s", displayName(actor), doc.Title, result.Approval.Comments)
		}
		s.dispatcher.Dispatch(ctx, doc.ID, []string{doc.CreatedBy}, message)
	}
	return result, nil
}

// Complete closes out an approved document
func (s *workflowService) Complete(ctx context.Context, actor models.Identity, documentID string) (*qmsModels.Document, error) {
	return s.transition(ctx, actor, documentID, "document completed", func(doc *qmsModels.Document) error {
		if doc.WorkflowStatus != qmsModels.WorkflowApproved {
			return domain.NewConflict(doc.ID, "only approved documents can be completed, document is %s", doc.WorkflowStatus)
		}
		doc.WorkflowStatus = qmsModels.WorkflowCompleted
		return nil
	})
}

// Archive retires an editable document
func (s *workflowService) Archive(ctx context.Context, actor models.Identity, documentID string) (*qmsModels.Document, error) {
	return s.transition(ctx, actor, documentID, "document archived", func(doc *qmsModels.Document) error {
		if !doc.IsEditable() {
			return domain.NewConflict(doc.ID, "only editable documents can be archived, document is %s", doc.WorkflowStatus)
		}
		doc.Status = qmsModels.StatusReady
		doc.WorkflowStatus = qmsModels.WorkflowArchived
		return nil
	})
}

// transition applies a single-document state change under a row lock
func (s *workflowService) transition(ctx context.Context, actor models.Identity, documentID, event string, apply func(*qmsModels.Document) error) (*qmsModels.Document, error) {
	var updated *qmsModels.Document
	err := s.stores.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.stores.Documents.GetForUpdate(txCtx, documentID)
		if err != nil {
			return err
		}
		if err := apply(doc); err != nil {
			return err
		}
		if err := s.stores.Documents.Update(txCtx, doc); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(event, "document_id", updated.ID, "user_id", actor.UserID)
	return updated, nil
}

// Delete removes the document and everything attached to it. Stored
// objects are removed after the commit; failures there are only logged.
func (s *workflowService) Delete(ctx context.Context, actor models.Identity, documentID string) error {
	var files []qmsModels.DocumentFile
	err := s.stores.Tx.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.stores.Documents.GetForUpdate(txCtx, documentID); err != nil {
			return err
		}
		if err := s.stores.Approvals.DeleteByDocument(txCtx, documentID); err != nil {
			return err
		}
		if err := s.stores.Versions.DeleteByDocument(txCtx, documentID); err != nil {
			return err
		}
		removed, err := s.stores.Files.DeleteByDocument(txCtx, documentID)
		if err != nil {
			return err
		}
		files = removed
		return s.stores.Documents.Delete(txCtx, documentID)
	})
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := s.storage.Delete(ctx, f.ObjectPath); err != nil {
			s.logger.Warn("failed to remove stored object of deleted document",
				"document_id", documentID,
				"object_path", f.ObjectPath,
				"error", err,
			)
		}
	}

	s.logger.Info("document deleted",
		"document_id", documentID,
		"files", len(files),
		"user_id", actor.UserID,
	)
	return nil
}

func (s *workflowService) Get(ctx context.Context, documentID string) (*qmsModels.Document, error) {
	return s.stores.Documents.GetByID(ctx, documentID)
}

func (s *workflowService) List(ctx context.Context, filter qmsModels.DocumentFilter) ([]qmsModels.Document, error) {
	return s.stores.Documents.List(ctx, filter)
}

// ListApprovals returns the approval log, oldest first
func (s *workflowService) ListApprovals(ctx context.Context, documentID string) ([]qmsModels.Approval, error) {
	if _, err := s.stores.Documents.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.stores.Approvals.ListByDocument(ctx, documentID)
}

// ListVersions returns the version history, newest first
func (s *workflowService) ListVersions(ctx context.Context, documentID string) ([]qmsModels.DocumentVersion, error) {
	if _, err := s.stores.Documents.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.stores.Versions.ListByDocument(ctx, documentID)
}

// checkAssociations verifies the referenced product and supplier exist
func (s *workflowService) checkAssociations(ctx context.Context, productID, supplierID *string) error {
	if productID != nil {
		if _, err := s.stores.Products.GetByID(ctx, *productID); err != nil {
			return fmt.Errorf("invalid product: %w", err)
		}
	}
	if supplierID != nil {
		if _, err := s.stores.Suppliers.GetByID(ctx, *supplierID); err != nil {
			return fmt.Errorf("invalid supplier: %w", err)
		}
	}
	return nil
}

// requireEditable returns a Conflict naming why the document cannot be edited
func requireEditable(doc *qmsModels.Document) error {
	switch {
	case doc.IsEditable():
		return nil
	case doc.IsLocked():
		return domain.NewConflict(doc.ID, "document is signed and locked")
	case doc.WorkflowStatus == qmsModels.WorkflowInReview:
		return domain.NewConflict(doc.ID, "document is under review")
	default:
		return domain.NewConflict(doc.ID, "document is %s and cannot be edited", strings.ToLower(string(doc.WorkflowStatus)))
	}
}

// normalizeID treats an empty id as absent
func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" {
		return nil
	}
	return &v
}

func displayName(actor models.Identity) string {
	if actor.Name != "" {
		return actor.Name
	}
	return actor.UserID
}
