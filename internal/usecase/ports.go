package usecase

import (
	"context"

	"github.com/promptloom/promptloom/internal/domain"
)

// SnapshotRepository persists the whole collection. Load runs once at
// startup; Save runs after every successful mutation and is fire-and-forget
// from the caller's perspective.
type SnapshotRepository interface {
	Load(ctx context.Context) ([]domain.Record, error)
	Save(ctx context.Context, records []domain.Record) error
}

// ContentStore holds binary image content. The returned reference is opaque
// to the gallery and stored verbatim in the record's url.
type ContentStore interface {
	StoreContent(ctx context.Context, data []byte) (string, error)
}

// Signal broadcasts mutation events to interested listeners.
type Signal interface {
	Publish(ctx context.Context, event domain.Event) error
}
