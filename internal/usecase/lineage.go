package usecase

import (
	"context"

	"github.com/promptloom/promptloom/internal/domain"
)

// Lineage derives the parent/current/children view for a record. It is a
// pure function of the store at call time: the parent resolves to absent if
// its id no longer exists, and children come from scanning parentImageId
// back-references, so dangling childImageIds entries left by deletes are
// never surfaced.
func (uc *GalleryUsecase) Lineage(ctx context.Context, id string) (domain.Lineage, error) {
	records := uc.store.GetAll()

	current, ok := findIn(records, id)
	if !ok {
		return domain.Lineage{}, domain.NotFoundError{Resource: "image"}
	}

	lineage := domain.Lineage{
		Current:  current,
		Children: []domain.Record{},
	}

	if current.ParentImageID != "" {
		if parent, ok := findIn(records, current.ParentImageID); ok {
			lineage.Parent = &parent
		}
	}

	for _, r := range records {
		if r.ParentImageID == id {
			lineage.Children = append(lineage.Children, r)
		}
	}

	return lineage, nil
}
