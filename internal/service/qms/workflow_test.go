package qms

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"qms/internal/domain"
	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
)

func TestCreateFromTemplate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := env.createCOA(t, "  Batch 100 COA  ")

	if doc.Title != "Batch 100 COA" {
		t.Errorf("Title = %q, want trimmed title", doc.Title)
	}
	if doc.Status != qmsModels.StatusEditMode || doc.WorkflowStatus != qmsModels.WorkflowDraft || doc.Version != 1 {
		t.Errorf("new document state = %s/%s v%d, want EDIT_MODE/DRAFT v1", doc.Status, doc.WorkflowStatus, doc.Version)
	}
	if doc.TemplateType != qmsModels.TemplateCOA || doc.Content.Type != qmsModels.TemplateCOA {
		t.Errorf("template type = %s, content type = %s", doc.TemplateType, doc.Content.Type)
	}
	if doc.CreatedBy != creator.UserID {
		t.Errorf("CreatedBy = %q", doc.CreatedBy)
	}
	if _, ok := doc.Content.Sections["results"]["tests"]; !ok {
		t.Error("default content was not copied from the template")
	}

	// Edits to the document never reach the template's default tree
	tmpl, _ := env.repos.Templates.GetByID(ctx, env.templateID[qmsModels.TemplateCOA])
	doc.Content.Sections["conclusion"]["overallResult"] = "Pass"
	if tmpl.Content.Sections["conclusion"]["overallResult"] != "" {
		t.Error("document content shares state with the template")
	}
}

func TestCreateFromTemplate_Failures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	inactiveID := env.templateID[qmsModels.TemplateBOM]
	if err := env.repos.Templates.SetActive(ctx, inactiveID, false); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		req     qmsSvc.CreateDocumentRequest
		wantErr error
	}{
		{"unknown template", qmsSvc.CreateDocumentRequest{TemplateID: "missing", Title: "X"}, domain.ErrNotFound},
		{"inactive template", qmsSvc.CreateDocumentRequest{TemplateID: inactiveID, Title: "X"}, domain.ErrValidation},
		{"blank title", qmsSvc.CreateDocumentRequest{TemplateID: env.templateID[qmsModels.TemplateCOA], Title: "   "}, domain.ErrValidation},
		{"missing template id", qmsSvc.CreateDocumentRequest{Title: "X"}, domain.ErrValidation},
		{"title too long", qmsSvc.CreateDocumentRequest{TemplateID: env.templateID[qmsModels.TemplateCOA], Title: strings.Repeat("a", 300)}, domain.ErrValidation},
		{"unknown product", qmsSvc.CreateDocumentRequest{TemplateID: env.templateID[qmsModels.TemplateCOA], Title: "X", ProductID: strPtr("p-missing")}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := env.workflow.CreateFromTemplate(ctx, creator, &req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateFromTemplate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	docs, err := env.workflow.List(ctx, qmsModels.DocumentFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("failed creates left %d documents behind", len(docs))
	}
}

func TestCreateFromTemplate_WithProduct(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	product := &qmsModels.Product{Name: "Vitamin C 500mg", SKU: "VC-500"}
	if err := env.repos.Products.Create(ctx, product); err != nil {
		t.Fatal(err)
	}

	doc, err := env.workflow.CreateFromTemplate(ctx, creator, &qmsSvc.CreateDocumentRequest{
		TemplateID: env.templateID[qmsModels.TemplateCOA],
		Title:      "VC-500 COA",
		ProductID:  &product.ID,
		SupplierID: strPtr(""),
	})
	if err != nil {
		t.Fatalf("CreateFromTemplate() error = %v", err)
	}
	if doc.ProductID == nil || *doc.ProductID != product.ID {
		t.Errorf("ProductID = %v, want %s", doc.ProductID, product.ID)
	}
	if doc.SupplierID != nil {
		t.Errorf("empty supplier id should be stored as nil, got %q", *doc.SupplierID)
	}

	byProduct, _ := env.workflow.List(ctx, qmsModels.DocumentFilter{ProductID: &product.ID})
	unassigned, _ := env.workflow.List(ctx, qmsModels.DocumentFilter{Unassigned: true})
	if len(byProduct) != 1 || len(unassigned) != 0 {
		t.Errorf("byProduct = %d, unassigned = %d", len(byProduct), len(unassigned))
	}
}

func TestSaveContent_VersionNeverDecreases(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	doc := env.createCOA(t, "Versioned COA")

	steps := []struct {
		asNewVersion bool
		wantVersion  int
	}{
		{false, 1},
		{true, 2},
		{false, 2},
		{true, 3},
		{true, 4},
		{false, 4},
	}

	last := doc.Version
	for i, step := range steps {
		saved, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{
			Content:      conclusion("Pass"),
			AsNewVersion: step.asNewVersion,
			Comments:     "step",
		})
		if err != nil {
			t.Fatalf("step %d: SaveContent() error = %v", i, err)
		}
		if saved.Version < last {
			t.Fatalf("step %d: version decreased from %d to %d", i, last, saved.Version)
		}
		if saved.Version != step.wantVersion {
			t.Errorf("step %d: version = %d, want %d", i, saved.Version, step.wantVersion)
		}
		last = saved.Version
	}

	versions, err := env.workflow.ListVersions(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 3 {
		t.Fatalf("got %d version entries, want 3", len(versions))
	}
	if versions[0].Version != 4 || versions[0].EditorID != creator.UserID || versions[0].EditorName != creator.Name {
		t.Errorf("newest version entry = %+v", versions[0])
	}
	if versions[0].Content.Sections["conclusion"]["overallResult"] != "Pass" {
		t.Error("version entry should snapshot the saved content")
	}
}

func TestSaveContent_ContentHandling(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	doc := env.createCOA(t, "Content COA")

	// Bare sections take the document's type; markup is sanitized
	saved, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{
		Content: &qmsModels.DocumentContent{Sections: map[string]qmsModels.Section{
			"conclusion": {"overallResult": "Pass", "remarks": `<p>ok</p><script>alert(1)</script>`},
		}},
		Title: strPtr("Renamed COA"),
	})
	if err != nil {
		t.Fatalf("SaveContent() error = %v", err)
	}
	if saved.Content.Type != qmsModels.TemplateCOA || saved.Title != "Renamed COA" {
		t.Errorf("saved type = %s, title = %q", saved.Content.Type, saved.Title)
	}
	if remarks := saved.Content.Sections["conclusion"]["remarks"].(string); strings.Contains(remarks, "script") {
		t.Errorf("remarks not sanitized: %q", remarks)
	}

	tests := []struct {
		name    string
		content *qmsModels.DocumentContent
	}{
		{"wrong variant", &qmsModels.DocumentContent{Type: qmsModels.TemplateBOM, Sections: map[string]qmsModels.Section{}}},
		{"unknown section", &qmsModels.DocumentContent{Sections: map[string]qmsModels.Section{"bogus": {"x": "y"}}}},
		{"wrong kind", &qmsModels.DocumentContent{Sections: map[string]qmsModels.Section{"header": {"manufactureDate": "last tuesday"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{Content: tt.content})
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("SaveContent() error = %v, want ErrValidation", err)
			}
		})
	}

	if _, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty save error = %v, want ErrValidation", err)
	}
	if _, err := env.workflow.SaveContent(ctx, creator, "missing", &qmsSvc.SaveContentRequest{Content: conclusion("Pass")}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown document error = %v, want ErrNotFound", err)
	}
}

func TestSaveContent_Preconditions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	doc := env.createCOA(t, "Precondition COA")

	_, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{
		Content:         conclusion("Pass"),
		ExpectedVersion: intPtr(2),
	})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) || conflict.ResourceID != doc.ID {
		t.Fatalf("stale expected version error = %v, want ConflictError for %s", err, doc.ID)
	}

	if _, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{
		Content:         conclusion("Pass"),
		ExpectedVersion: intPtr(1),
	}); err != nil {
		t.Fatalf("matching expected version error = %v", err)
	}

	if _, err := env.workflow.Assign(ctx, creator, doc.ID, &qmsSvc.AssignRequest{ReviewerIDs: []string{"U1"}}); err != nil {
		t.Fatal(err)
	}
	env.dispatcher.Wait()

	if _, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{Content: conclusion("Fail")}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("save while in review error = %v, want ErrConflict", err)
	}
}

func TestDecide_MissingFieldsLeaveDocumentUnchanged(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		req  qmsSvc.DecisionRequest
	}{
		{"approve without signature", qmsSvc.DecisionRequest{Action: qmsSvc.ActionApprove, Comments: "looks good"}},
		{"approve with blank signature", qmsSvc.DecisionRequest{Action: qmsSvc.ActionApprove, Signature: "   "}},
		{"reject without comments", qmsSvc.DecisionRequest{Action: qmsSvc.ActionReject, Signature: "Jane Doe"}},
		{"reject with blank comments", qmsSvc.DecisionRequest{Action: qmsSvc.ActionReject, Comments: "\t"}},
		{"unknown action", qmsSvc.DecisionRequest{Action: "escalate", Comments: "x", Signature: "y"}},
		{"missing action", qmsSvc.DecisionRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			doc := env.createCOA(t, "Batch 100 COA")
			if _, err := env.workflow.Assign(ctx, creator, doc.ID, &qmsSvc.AssignRequest{ReviewerIDs: []string{"U1"}}); err != nil {
				t.Fatal(err)
			}
			env.dispatcher.Wait()
			before, _ := env.workflow.Get(ctx, doc.ID)
			approvalsBefore, _ := env.workflow.ListApprovals(ctx, doc.ID)

			req := tt.req
			_, err := env.workflow.Decide(ctx, reviewer, doc.ID, &req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Decide() error = %v, want ErrValidation", err)
			}

			after, _ := env.workflow.Get(ctx, doc.ID)
			if !reflect.DeepEqual(before, after) {
				t.Errorf("document changed after failed decision:\nbefore %+v\nafter  %+v", before, after)
			}
			approvalsAfter, _ := env.workflow.ListApprovals(ctx, doc.ID)
			if len(approvalsAfter) != len(approvalsBefore) {
				t.Errorf("approval log grew from %d to %d", len(approvalsBefore), len(approvalsAfter))
			}
		})
	}
}

func TestDecide_ApproveLocksDocument(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	env.workflow.(*workflowService).now = func() time.Time { return fixed }

	doc := env.createCOA(t, "Lock COA")
	result, err := env.workflow.Decide(ctx, reviewer, doc.ID, &qmsSvc.DecisionRequest{
		Action:    qmsSvc.ActionApprove,
		Signature: "Jane Doe",
	})
	if err != nil {
		t.Fatalf("Decide(approve) error = %v", err)
	}
	env.dispatcher.Wait()

	got := result.Document
	if got.Status != qmsModels.StatusSigned || got.WorkflowStatus != qmsModels.WorkflowApproved {
		t.Errorf("state = %s/%s, want SIGNED/APPROVED", got.Status, got.WorkflowStatus)
	}
	if got.DigitalSignature == nil || got.ApprovedAt == nil {
		t.Fatal("signature and approval time must both be set")
	}
	if !got.ApprovedAt.Equal(fixed) {
		t.Errorf("ApprovedAt = %v, want %v", got.ApprovedAt, fixed)
	}
	if result.Approval == nil || result.Approval.Status != qmsModels.ApprovalApproved || result.Approval.ApproverName != "Jane Doe" {
		t.Errorf("approval record = %+v", result.Approval)
	}
	if result.ReopenEditor {
		t.Error("approved document should not reopen the editor")
	}

	for _, req := range []qmsSvc.DecisionRequest{
		{Action: qmsSvc.ActionApprove, Signature: "Jane Doe"},
		{Action: qmsSvc.ActionReject, Comments: "changed my mind"},
	} {
		req := req
		if _, err := env.workflow.Decide(ctx, reviewer, doc.ID, &req); !errors.Is(err, domain.ErrConflict) {
			t.Errorf("Decide(%s) on locked document error = %v, want ErrConflict", req.Action, err)
		}
	}
	if _, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{Content: conclusion("Fail")}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("save on locked document error = %v, want ErrConflict", err)
	}
	if _, err := env.workflow.Assign(ctx, creator, doc.ID, &qmsSvc.AssignRequest{ReviewerIDs: []string{"U2"}}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("assign on locked document error = %v, want ErrConflict", err)
	}

	// The creator hears about the approval
	if got := env.notifier.recipients()[creator.UserID]; got != 1 {
		t.Errorf("creator received %d notifications, want 1", got)
	}
}

func TestDecide_RejectReopensDocument(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	doc := env.createCOA(t, "Reject COA")
	if _, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{Content: conclusion("Pass"), AsNewVersion: true}); err != nil {
		t.Fatal(err)
	}

	result, err := env.workflow.Decide(ctx, reviewer, doc.ID, &qmsSvc.DecisionRequest{
		Action:   qmsSvc.ActionReject,
		Comments: "Missing lot number",
	})
	if err != nil {
		t.Fatalf("Decide(reject) error = %v", err)
	}
	env.dispatcher.Wait()

	got := result.Document
	if got.WorkflowStatus != qmsModels.WorkflowRejected || got.Status != qmsModels.StatusEditMode {
		t.Errorf("state = %s/%s, want EDIT_MODE/REJECTED", got.Status, got.WorkflowStatus)
	}
	if got.Version != 2 {
		t.Errorf("reject changed version to %d", got.Version)
	}
	if got.DigitalSignature != nil || got.ApprovedAt != nil {
		t.Error("rejected document must not carry a signature")
	}
	if !result.ReopenEditor {
		t.Error("rejected document should reopen the editor")
	}

	if _, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{Content: conclusion("Pass")}); err != nil {
		t.Errorf("save after reject error = %v", err)
	}

	env.notifier.mu.Lock()
	defer env.notifier.mu.Unlock()
	if len(env.notifier.delivered) != 1 || !strings.Contains(env.notifier.delivered[0].Message, "Missing lot number") {
		t.Errorf("creator notification = %+v", env.notifier.delivered)
	}
}

func TestDecide_Edit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	doc := env.createCOA(t, "Edit COA")

	result, err := env.workflow.Decide(ctx, reviewer, doc.ID, &qmsSvc.DecisionRequest{Action: qmsSvc.ActionEdit})
	if err != nil {
		t.Fatalf("Decide(edit) error = %v", err)
	}
	if !result.ReopenEditor || result.Approval != nil {
		t.Errorf("edit result = %+v", result)
	}
	approvals, _ := env.workflow.ListApprovals(ctx, doc.ID)
	if len(approvals) != 0 {
		t.Error("edit must not record an approval")
	}

	if _, err := env.workflow.Decide(ctx, reviewer, "missing", &qmsSvc.DecisionRequest{Action: qmsSvc.ActionEdit}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("edit on unknown document error = %v, want ErrNotFound", err)
	}
}

func TestAssign(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	doc := env.createCOA(t, "Assign COA")

	t.Run("empty reviewers leave workflow unchanged", func(t *testing.T) {
		got, err := env.workflow.Assign(ctx, creator, doc.ID, &qmsSvc.AssignRequest{ReviewerIDs: []string{}})
		if err != nil {
			t.Fatalf("Assign() error = %v", err)
		}
		if got.WorkflowStatus != qmsModels.WorkflowDraft {
			t.Errorf("WorkflowStatus = %s, want DRAFT", got.WorkflowStatus)
		}
	})

	t.Run("reviewers are deduplicated in order", func(t *testing.T) {
		got, err := env.workflow.Assign(ctx, creator, doc.ID, &qmsSvc.AssignRequest{ReviewerIDs: []string{"U2", "U1", "U2", " U1 "}})
		if err != nil {
			t.Fatalf("Assign() error = %v", err)
		}
		env.dispatcher.Wait()

		if !reflect.DeepEqual(got.AssignedUserIDs, []string{"U2", "U1"}) {
			t.Errorf("AssignedUserIDs = %v", got.AssignedUserIDs)
		}
		if got.WorkflowStatus != qmsModels.WorkflowInReview {
			t.Errorf("WorkflowStatus = %s, want IN_REVIEW", got.WorkflowStatus)
		}

		approvals, _ := env.workflow.ListApprovals(ctx, doc.ID)
		if len(approvals) != 2 || approvals[0].ApproverID != "U2" || approvals[0].Status != qmsModels.ApprovalPending {
			t.Errorf("approvals = %+v", approvals)
		}
		if got := env.notifier.recipients(); got["U1"] != 1 || got["U2"] != 1 {
			t.Errorf("notifications per reviewer = %v", got)
		}
	})

	t.Run("unknown supplier", func(t *testing.T) {
		_, err := env.workflow.Assign(ctx, creator, doc.ID, &qmsSvc.AssignRequest{ReviewerIDs: []string{"U1"}, SupplierID: strPtr("s-missing")})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Assign() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("too many reviewers", func(t *testing.T) {
		ids := make([]string, 25)
		for i := range ids {
			ids[i] = strings.Repeat("u", i+1)
		}
		if _, err := env.workflow.Assign(ctx, creator, doc.ID, &qmsSvc.AssignRequest{ReviewerIDs: ids}); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Assign() error = %v, want ErrValidation", err)
		}
	})
}

func TestAssign_NotificationFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.notifier.failFor["U2"] = true
	doc := env.createCOA(t, "Notify COA")

	got, err := env.workflow.Assign(ctx, creator, doc.ID, &qmsSvc.AssignRequest{ReviewerIDs: []string{"U1", "U2", "U3"}})
	if err != nil {
		t.Fatalf("Assign() error = %v, notification failures must not fail the assignment", err)
	}
	env.dispatcher.Wait()

	if got.WorkflowStatus != qmsModels.WorkflowInReview {
		t.Errorf("WorkflowStatus = %s", got.WorkflowStatus)
	}
	recipients := env.notifier.recipients()
	if recipients["U1"] != 1 || recipients["U3"] != 1 || recipients["U2"] != 0 {
		t.Errorf("recipients = %v", recipients)
	}
}

func TestCompleteAndArchive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	draft := env.createCOA(t, "Draft COA")
	if _, err := env.workflow.Complete(ctx, creator, draft.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("complete draft error = %v, want ErrConflict", err)
	}

	approved := env.createCOA(t, "Approved COA")
	if _, err := env.workflow.Archive(ctx, creator, approved.ID); err != nil {
		t.Fatalf("archive editable error = %v", err)
	}
	archived, _ := env.workflow.Get(ctx, approved.ID)
	if archived.WorkflowStatus != qmsModels.WorkflowArchived || archived.Status != qmsModels.StatusReady {
		t.Errorf("archived state = %s/%s", archived.Status, archived.WorkflowStatus)
	}
	if _, err := env.workflow.Decide(ctx, reviewer, approved.ID, &qmsSvc.DecisionRequest{Action: qmsSvc.ActionApprove, Signature: "Jane Doe"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("approve archived error = %v, want ErrConflict", err)
	}

	signed := env.createCOA(t, "Signed COA")
	if _, err := env.workflow.Decide(ctx, reviewer, signed.ID, &qmsSvc.DecisionRequest{Action: qmsSvc.ActionApprove, Signature: "Jane Doe"}); err != nil {
		t.Fatal(err)
	}
	env.dispatcher.Wait()
	if _, err := env.workflow.Archive(ctx, creator, signed.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("archive signed error = %v, want ErrConflict", err)
	}

	completed, err := env.workflow.Complete(ctx, creator, signed.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if completed.WorkflowStatus != qmsModels.WorkflowCompleted || completed.Status != qmsModels.StatusSigned {
		t.Errorf("completed state = %s/%s", completed.Status, completed.WorkflowStatus)
	}
	if !completed.IsLocked() {
		t.Error("completed document should be locked")
	}
	if _, err := env.workflow.Decide(ctx, reviewer, signed.ID, &qmsSvc.DecisionRequest{Action: qmsSvc.ActionApprove, Signature: "Jane Doe"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("re-approve completed error = %v, want ErrConflict", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	doc := env.createCOA(t, "Doomed COA")

	if _, err := env.workflow.Assign(ctx, creator, doc.ID, &qmsSvc.AssignRequest{ReviewerIDs: []string{"U1"}}); err != nil {
		t.Fatal(err)
	}
	env.dispatcher.Wait()

	files := NewFileService(env.stores, env.storage, discardLogger())
	body := "pdf bytes"
	file, err := files.Upload(ctx, creator, doc.ID, &qmsSvc.FileUpload{
		FileName: "coa.pdf", ContentType: "application/pdf", Size: int64(len(body)), Body: strings.NewReader(body),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := env.workflow.Delete(ctx, creator, doc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := env.workflow.Get(ctx, doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
	if approvals, _ := env.repos.Approvals.ListByDocument(ctx, doc.ID); len(approvals) != 0 {
		t.Errorf("%d approvals survived the delete", len(approvals))
	}
	if _, err := env.repos.Files.GetByID(ctx, file.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("file metadata survived the delete: %v", err)
	}
	if paths := env.storage.Paths(); len(paths) != 0 {
		t.Errorf("stored objects survived the delete: %v", paths)
	}
	if err := env.workflow.Delete(ctx, creator, doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

// Scenario: create, save, assign, approve
func TestScenario_COAApproval(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := env.createCOA(t, "Batch 100 COA")
	if _, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{Content: conclusion("Pass")}); err != nil {
		t.Fatalf("SaveContent() error = %v", err)
	}
	assigned, err := env.workflow.Assign(ctx, creator, doc.ID, &qmsSvc.AssignRequest{ReviewerIDs: []string{"U1"}})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if assigned.WorkflowStatus != qmsModels.WorkflowInReview {
		t.Fatalf("WorkflowStatus = %s, want IN_REVIEW", assigned.WorkflowStatus)
	}

	result, err := env.workflow.Decide(ctx, reviewer, doc.ID, &qmsSvc.DecisionRequest{Action: qmsSvc.ActionApprove, Signature: "Jane Doe"})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	env.dispatcher.Wait()

	got := result.Document
	if got.Status != qmsModels.StatusSigned || got.WorkflowStatus != qmsModels.WorkflowApproved {
		t.Errorf("state = %s/%s, want SIGNED/APPROVED", got.Status, got.WorkflowStatus)
	}
	if got.DigitalSignature == nil || *got.DigitalSignature != "Jane Doe" {
		t.Errorf("DigitalSignature = %v, want Jane Doe", got.DigitalSignature)
	}

	approvals, _ := env.workflow.ListApprovals(ctx, doc.ID)
	if len(approvals) != 2 || approvals[0].Status != qmsModels.ApprovalPending || approvals[1].Status != qmsModels.ApprovalApproved {
		t.Errorf("approval log = %+v", approvals)
	}
}

// Scenario: create, save, assign, reject, save again
func TestScenario_COARejection(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := env.createCOA(t, "Batch 100 COA")
	if _, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{Content: conclusion("Pass")}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.workflow.Assign(ctx, creator, doc.ID, &qmsSvc.AssignRequest{ReviewerIDs: []string{"U1"}}); err != nil {
		t.Fatal(err)
	}

	result, err := env.workflow.Decide(ctx, reviewer, doc.ID, &qmsSvc.DecisionRequest{Action: qmsSvc.ActionReject, Comments: "Missing lot number"})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	env.dispatcher.Wait()

	if result.Document.WorkflowStatus != qmsModels.WorkflowRejected || result.Document.Status != qmsModels.StatusEditMode {
		t.Errorf("state = %s/%s, want EDIT_MODE/REJECTED", result.Document.Status, result.Document.WorkflowStatus)
	}

	content := &qmsModels.DocumentContent{Sections: map[string]qmsModels.Section{
		"header":     {"lotNumber": "L-100"},
		"conclusion": {"overallResult": "Pass"},
	}}
	if _, err := env.workflow.SaveContent(ctx, creator, doc.ID, &qmsSvc.SaveContentRequest{Content: content}); err != nil {
		t.Errorf("SaveContent() after reject error = %v", err)
	}
}

// Scenario: delete then get
func TestScenario_DeleteThenGet(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	doc := env.createCOA(t, "Batch 100 COA")

	if err := env.workflow.Delete(ctx, creator, doc.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.workflow.Get(ctx, doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestPlanAssignment(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"keeps order", []string{"b", "a"}, []string{"b", "a"}},
		{"drops duplicates and blanks", []string{"a", "", "b", "a", "  "}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := planAssignment(tt.in).reviewers; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("planAssignment(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
