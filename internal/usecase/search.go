package usecase

import (
	"context"
	"strings"

	"github.com/promptloom/promptloom/internal/domain"
)

// Search filters the collection by case-folded substring match over title,
// description, and tags. The empty query matches everything and result order
// is the collection's order, unranked.
func (uc *GalleryUsecase) Search(ctx context.Context, query string) []domain.Record {
	records := uc.store.GetAll()
	if query == "" {
		return records
	}

	needle := strings.ToLower(query)
	matched := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if matches(r, needle) {
			matched = append(matched, r)
		}
	}
	return matched
}

func matches(r domain.Record, needle string) bool {
	if strings.Contains(strings.ToLower(r.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(r.Description), needle) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
