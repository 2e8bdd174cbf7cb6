package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/promptloom/promptloom/internal/domain"
	"github.com/promptloom/promptloom/internal/policy"
	"github.com/promptloom/promptloom/internal/store"
)

// GalleryUsecase owns the record collection and keeps the parent/child graph
// consistent across create, update, reparent, and delete. Every multi-record
// transition is computed from a single snapshot and applied as one batch
// replace, so the symmetric pair of parentImageId/childImageIds never
// diverges observably.
type GalleryUsecase struct {
	mu       sync.Mutex // serializes mutations; reads go straight to the store
	store    *store.Store
	snapshot SnapshotRepository
	content  ContentStore
	signal   Signal
}

func NewGalleryUsecase(st *store.Store, snapshot SnapshotRepository, content ContentStore, signal Signal) *GalleryUsecase {
	return &GalleryUsecase{
		store:    st,
		snapshot: snapshot,
		content:  content,
		signal:   signal,
	}
}

// CreateInput carries the authorable fields of a new record. Ownership,
// id, and upload date are stamped by the usecase.
type CreateInput struct {
	URL           string
	Title         string
	Description   string
	Tags          []string
	AIPrompt      string
	AIModel       string
	AISettings    *domain.AISettings
	ParentImageID string
	IsPlaceholder bool
}

// Upload stores the binary content and creates a realized record titled
// after the filename stem.
func (uc *GalleryUsecase) Upload(ctx context.Context, actor *domain.Actor, filename string, data []byte) (domain.Record, error) {
	if actor == nil {
		return domain.Record{}, domain.ErrNotAuthenticated
	}

	url, err := uc.content.StoreContent(ctx, data)
	if err != nil {
		return domain.Record{}, err
	}

	title := filename
	if i := strings.IndexByte(filename, '.'); i >= 0 {
		title = filename[:i]
	}

	return uc.Create(ctx, actor, CreateInput{
		URL:   url,
		Title: title,
		Tags:  []string{},
	})
}

// CreatePrompt creates a placeholder record carrying only descriptive and
// generation fields. It takes the placeholder sentinel url and may already
// declare a parent.
func (uc *GalleryUsecase) CreatePrompt(ctx context.Context, actor *domain.Actor, input CreateInput) (domain.Record, error) {
	input.URL = domain.PlaceholderURL
	input.IsPlaceholder = true
	if input.Title == "" {
		input.Title = "Untitled Prompt"
	}
	return uc.Create(ctx, actor, input)
}

// Create inserts a new record. When a parent is declared, the new record and
// the parent's childImageIds update are applied together as one transition.
func (uc *GalleryUsecase) Create(ctx context.Context, actor *domain.Actor, input CreateInput) (domain.Record, error) {
	if actor == nil {
		return domain.Record{}, domain.ErrNotAuthenticated
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	record := domain.Record{
		ID:            uuid.New().String(),
		URL:           input.URL,
		Title:         input.Title,
		Description:   input.Description,
		Tags:          input.Tags,
		AIPrompt:      input.AIPrompt,
		AIModel:       input.AIModel,
		AISettings:    input.AISettings,
		UploadDate:    time.Now().UTC(),
		UserID:        actor.ID,
		ParentImageID: input.ParentImageID,
		ChildImageIDs: []string{},
		IsPlaceholder: input.IsPlaceholder,
	}
	if record.Tags == nil {
		record.Tags = []string{}
	}

	records := uc.store.GetAll()

	if record.ParentImageID != "" {
		found := false
		for i, r := range records {
			if r.ID == record.ParentImageID {
				records[i] = r.WithChild(record.ID)
				found = true
				break
			}
		}
		if !found {
			return domain.Record{}, domain.NotFoundError{Resource: "parent image"}
		}
	}

	records = append([]domain.Record{record}, records...)
	uc.store.ReplaceAll(records)

	uc.emit(ctx, domain.Event{Type: domain.EventRecordCreated, Record: &record})
	return record, uc.persist(ctx)
}

// UpdateInput carries the mutable fields of an existing record. Nil slices
// and pointers leave the previous value in place for tags and aiSettings;
// free-text fields are written as given.
type UpdateInput struct {
	URL           string
	Title         string
	Description   string
	Tags          []string
	AIPrompt      string
	AIModel       string
	AISettings    *domain.AISettings
	ParentImageID string
	Likes         int
	IsPlaceholder bool
}

// Update replaces the record in place, repairing both sides of the graph
// when the parent changed. The child, the old parent, and the new parent are
// all derived from the same snapshot and swapped in as a single batch.
func (uc *GalleryUsecase) Update(ctx context.Context, actor *domain.Actor, id string, input UpdateInput) (domain.Record, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	prev, ok := uc.store.Find(id)
	if !ok {
		return domain.Record{}, domain.NotFoundError{Resource: "image"}
	}
	if err := policy.Authorize(actor, prev); err != nil {
		return domain.Record{}, err
	}

	updated := prev
	updated.URL = input.URL
	updated.Title = input.Title
	updated.Description = input.Description
	updated.AIPrompt = input.AIPrompt
	updated.AIModel = input.AIModel
	updated.Likes = input.Likes
	updated.ParentImageID = input.ParentImageID
	updated.IsPlaceholder = input.IsPlaceholder
	if input.Tags != nil {
		updated.Tags = input.Tags
	}
	if input.AISettings != nil {
		updated.AISettings = input.AISettings
	}

	record, err := uc.apply(prev, updated)
	if err != nil {
		return domain.Record{}, err
	}

	uc.emit(ctx, domain.Event{Type: domain.EventRecordUpdated, Record: &record})
	return record, uc.persist(ctx)
}

// Like increments the like counter through the general update path. It is a
// read-modify-write, so two concurrent likes can lose an increment; that is
// accepted for a single-session collection.
func (uc *GalleryUsecase) Like(ctx context.Context, actor *domain.Actor, id string) (domain.Record, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	prev, ok := uc.store.Find(id)
	if !ok {
		return domain.Record{}, domain.NotFoundError{Resource: "image"}
	}
	if err := policy.Authorize(actor, prev); err != nil {
		return domain.Record{}, err
	}

	updated := prev
	updated.Likes = prev.Likes + 1

	record, err := uc.apply(prev, updated)
	if err != nil {
		return domain.Record{}, err
	}

	uc.emit(ctx, domain.Event{Type: domain.EventRecordUpdated, Record: &record})
	return record, uc.persist(ctx)
}

// Realize attaches uploaded content to a placeholder. The record keeps its
// id and every lineage link formed while it was still a placeholder; only
// url and the placeholder flag change.
func (uc *GalleryUsecase) Realize(ctx context.Context, actor *domain.Actor, id string, data []byte) (domain.Record, error) {
	if actor == nil {
		return domain.Record{}, domain.ErrNotAuthenticated
	}

	url, err := uc.content.StoreContent(ctx, data)
	if err != nil {
		return domain.Record{}, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	prev, ok := uc.store.Find(id)
	if !ok {
		return domain.Record{}, domain.NotFoundError{Resource: "image"}
	}
	if err := policy.Authorize(actor, prev); err != nil {
		return domain.Record{}, err
	}

	updated := prev
	updated.URL = url
	updated.IsPlaceholder = false

	record, err := uc.apply(prev, updated)
	if err != nil {
		return domain.Record{}, err
	}

	uc.emit(ctx, domain.Event{Type: domain.EventRecordUpdated, Record: &record})
	return record, uc.persist(ctx)
}

// Delete removes the record. Parents keep any now-dangling entry in their
// childImageIds; the lineage view skips ids that no longer resolve, which
// keeps delete O(1) instead of requiring a reverse scan.
func (uc *GalleryUsecase) Delete(ctx context.Context, actor *domain.Actor, id string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	prev, ok := uc.store.Find(id)
	if !ok {
		return domain.NotFoundError{Resource: "image"}
	}
	if err := policy.Authorize(actor, prev); err != nil {
		return err
	}

	records := uc.store.GetAll()
	next := make([]domain.Record, 0, len(records)-1)
	for _, r := range records {
		if r.ID != id {
			next = append(next, r)
		}
	}
	uc.store.ReplaceAll(next)

	uc.emit(ctx, domain.Event{Type: domain.EventRecordDeleted, ID: id})
	return uc.persist(ctx)
}

// Get returns a single record.
func (uc *GalleryUsecase) Get(ctx context.Context, id string) (domain.Record, error) {
	record, ok := uc.store.Find(id)
	if !ok {
		return domain.Record{}, domain.NotFoundError{Resource: "image"}
	}
	return record, nil
}

// apply swaps prev for updated inside one snapshot, patching the old and new
// parents' childImageIds when the parent changed. Immutable and derived
// fields are carried over from prev regardless of what the caller supplied.
func (uc *GalleryUsecase) apply(prev, updated domain.Record) (domain.Record, error) {
	updated.ID = prev.ID
	updated.UserID = prev.UserID
	updated.UploadDate = prev.UploadDate
	updated.ChildImageIDs = prev.ChildImageIDs

	records := uc.store.GetAll()

	reparented := updated.ParentImageID != prev.ParentImageID
	if reparented && updated.ParentImageID != "" {
		if updated.ParentImageID == updated.ID {
			return domain.Record{}, domain.CycleError{Record: updated.ID, Parent: updated.ParentImageID}
		}
		if err := checkAncestry(records, updated.ID, updated.ParentImageID); err != nil {
			return domain.Record{}, err
		}
		if _, ok := findIn(records, updated.ParentImageID); !ok {
			return domain.Record{}, domain.NotFoundError{Resource: "parent image"}
		}
	}

	for i, r := range records {
		switch {
		case r.ID == updated.ID:
			records[i] = updated
		case reparented && r.ID == prev.ParentImageID:
			records[i] = r.WithoutChild(updated.ID)
		case updated.ParentImageID != "" && r.ID == updated.ParentImageID:
			// Set union, not append: re-running the same update must not
			// duplicate the entry.
			records[i] = r.WithChild(updated.ID)
		}
	}

	uc.store.ReplaceAll(records)
	return updated, nil
}

// checkAncestry rejects a reparent when the prospective parent is a
// descendant of the record being moved. The walk is bounded by the
// collection size so a pre-existing cycle cannot hang it.
func checkAncestry(records []domain.Record, id, parentID string) error {
	current := parentID
	for range records {
		r, ok := findIn(records, current)
		if !ok || r.ParentImageID == "" {
			return nil
		}
		if r.ParentImageID == id {
			return domain.CycleError{Record: id, Parent: parentID}
		}
		current = r.ParentImageID
	}
	return nil
}

func findIn(records []domain.Record, id string) (domain.Record, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Record{}, false
}

// persist saves the current snapshot. A failed save keeps the in-memory
// state and is surfaced as a PersistenceError so callers can report it as a
// warning rather than a rollback.
func (uc *GalleryUsecase) persist(ctx context.Context) error {
	if uc.snapshot == nil {
		return nil
	}
	if err := uc.snapshot.Save(ctx, uc.store.GetAll()); err != nil {
		slog.Error("snapshot save failed",
			slog.String("error", err.Error()),
			slog.String("module", "gallery"),
		)
		return domain.PersistenceError{Cause: err}
	}
	return nil
}

func (uc *GalleryUsecase) emit(ctx context.Context, event domain.Event) {
	if uc.signal == nil {
		return
	}
	if err := uc.signal.Publish(ctx, event); err != nil {
		slog.Error("event publish failed",
			slog.String("error", err.Error()),
			slog.String("module", "gallery"),
		)
	}
}
