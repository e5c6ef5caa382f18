package memory

import (
	"context"
	"sort"
	"time"

	"qms/internal/domain"
	models "qms/internal/domain/models/qms"
	qmsRepo "qms/internal/domain/repositories/qms"
)

// ApprovalRepository implements qmsRepo.ApprovalRepository over a Store
type ApprovalRepository struct {
	store *Store
}

func NewApprovalRepository(store *Store) qmsRepo.ApprovalRepository {
	return &ApprovalRepository{store: store}
}

func (r *ApprovalRepository) Create(ctx context.Context, a *models.Approval) error {
	return r.store.write(ctx, func(t *tables, now time.Time) error {
		if _, ok := t.documents[a.DocumentID]; !ok {
			return domain.NotFoundf("document %s", a.DocumentID)
		}
		a.ID = newID()
		a.CreatedAt = now
		t.approvals = append(t.approvals, *a)
		return nil
	})
}

// ListByDocument returns approvals in insertion order
func (r *ApprovalRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Approval, error) {
	out := []models.Approval{}
	r.store.read(func(t *tables) {
		for _, a := range t.approvals {
			if a.DocumentID == documentID {
				out = append(out, a)
			}
		}
	})
	return out, nil
}

func (r *ApprovalRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	return r.store.write(ctx, func(t *tables, _ time.Time) error {
		kept := t.approvals[:0:0]
		for _, a := range t.approvals {
			if a.DocumentID != documentID {
				kept = append(kept, a)
			}
		}
		t.approvals = kept
		return nil
	})
}

// VersionRepository implements qmsRepo.VersionRepository over a Store
type VersionRepository struct {
	store *Store
}

func NewVersionRepository(store *Store) qmsRepo.VersionRepository {
	return &VersionRepository{store: store}
}

func (r *VersionRepository) Create(ctx context.Context, v *models.DocumentVersion) error {
	return r.store.write(ctx, func(t *tables, now time.Time) error {
		if _, ok := t.documents[v.DocumentID]; !ok {
			return domain.NotFoundf("document %s", v.DocumentID)
		}
		for _, existing := range t.versions {
			if existing.DocumentID == v.DocumentID && existing.Version == v.Version {
				return domain.NewConflict(v.DocumentID, "version %d already recorded", v.Version)
			}
		}
		v.ID = newID()
		v.CreatedAt = now
		stored := *v
		stored.Content = v.Content.Clone()
		t.versions = append(t.versions, stored)
		return nil
	})
}

// ListByDocument returns versions newest first
func (r *VersionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	out := []models.DocumentVersion{}
	r.store.read(func(t *tables) {
		for _, v := range t.versions {
			if v.DocumentID == documentID {
				v.Content = v.Content.Clone()
				out = append(out, v)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (r *VersionRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	return r.store.write(ctx, func(t *tables, _ time.Time) error {
		kept := t.versions[:0:0]
		for _, v := range t.versions {
			if v.DocumentID != documentID {
				kept = append(kept, v)
			}
		}
		t.versions = kept
		return nil
	})
}

// FileRepository implements qmsRepo.FileRepository over a Store
type FileRepository struct {
	store *Store
}

func NewFileRepository(store *Store) qmsRepo.FileRepository {
	return &FileRepository{store: store}
}

func (r *FileRepository) Create(ctx context.Context, f *models.DocumentFile) error {
	return r.store.write(ctx, func(t *tables, now time.Time) error {
		if _, ok := t.documents[f.DocumentID]; !ok {
			return domain.NotFoundf("document %s", f.DocumentID)
		}
		if f.ID == "" {
			f.ID = newID()
		}
		f.CreatedAt = now
		stored := *f
		stored.URL = ""
		t.files[f.ID] = &stored
		return nil
	})
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.DocumentFile, error) {
	var out *models.DocumentFile
	r.store.read(func(t *tables) {
		if f, ok := t.files[id]; ok {
			c := *f
			out = &c
		}
	})
	if out == nil {
		return nil, domain.NotFoundf("file %s", id)
	}
	return out, nil
}

func (r *FileRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentFile, error) {
	out := []models.DocumentFile{}
	r.store.read(func(t *tables) {
		for _, f := range t.files {
			if f.DocumentID == documentID {
				out = append(out, *f)
			}
		}
	})
	sortFiles(out)
	return out, nil
}

func sortFiles(files []models.DocumentFile) {
	sort.Slice(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.Before(files[j].CreatedAt)
		}
		return files[i].FileName < files[j].FileName
	})
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func(t *tables, _ time.Time) error {
		if _, ok := t.files[id]; !ok {
			return domain.NotFoundf("file %s", id)
		}
		delete(t.files, id)
		return nil
	})
}

func (r *FileRepository) DeleteByDocument(ctx context.Context, documentID string) ([]models.DocumentFile, error) {
	removed := []models.DocumentFile{}
	err := r.store.write(ctx, func(t *tables, _ time.Time) error {
		for id, f := range t.files {
			if f.DocumentID == documentID {
				removed = append(removed, *f)
				delete(t.files, id)
			}
		}
		return nil
	})
	sortFiles(removed)
	return removed, err
}
