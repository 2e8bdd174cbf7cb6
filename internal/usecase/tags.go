package usecase

import (
	"context"
	"strings"

	"github.com/promptloom/promptloom/internal/utils"
)

// TagCounts folds the collection's tags into usage counts. Tags that differ
// only by case are counted together under their first-seen spelling, and the
// serialized object keeps first-seen order.
func (uc *GalleryUsecase) TagCounts(ctx context.Context) utils.OrderedKVMap[int] {
	records := uc.store.GetAll()

	counts := utils.OrderedKVMap[int]{}
	spelling := map[string]string{}
	order := int64(0)

	for _, record := range records {
		for _, tag := range record.Tags {
			folded := strings.ToLower(tag)
			key, seen := spelling[folded]
			if !seen {
				key = tag
				spelling[folded] = tag
				counts[key] = utils.OrderedKV[int]{Order: order}
				order++
			}
			entry := counts[key]
			entry.Value++
			counts[key] = entry
		}
	}

	return counts
}
