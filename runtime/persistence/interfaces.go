package persistence

import "context"

// TrainingItemStore persists training items and generation batches.
// Implementations serialize access; none of the methods call external services.
type TrainingItemStore interface {
	DuplicateLookup
	BatchRecorder

	// AddItem inserts item, sets its ID and CreatedAt, and returns the new id.
	AddItem(ctx context.Context, item *TrainingItem) (int64, error)

	// GetItem returns ErrNotFound when no row has the id.
	GetItem(ctx context.Context, id int64) (*TrainingItem, error)

	// ListItems returns items newest first.
	ListItems(ctx context.Context, filter ItemFilter) ([]TrainingItem, error)

	// UpdateItem applies the set fields of update and returns the stored result.
	UpdateItem(ctx context.Context, id int64, update ItemUpdate) (*TrainingItem, error)

	// DeleteItem removes the row and then, best effort, its audio file.
	// It reports whether a row was removed.
	DeleteItem(ctx context.Context, id int64) (bool, error)

	// BulkDelete removes the rows with the given ids and returns how many were removed.
	BulkDelete(ctx context.Context, ids []int64) (int, error)

	// DeleteByWord removes every item whose word equals word ignoring case.
	DeleteByWord(ctx context.Context, word string) (int, error)

	// MarkExported moves generated items to exported and returns how many changed.
	MarkExported(ctx context.Context, ids []int64) (int, error)

	// ExportCandidates returns generated items with audio, ordered by word then creation.
	// An empty word selects every word.
	ExportCandidates(ctx context.Context, word string) ([]TrainingItem, error)

	// Stats counts items per status in a single read transaction.
	Stats(ctx context.Context) (Stats, error)

	Close() error
}

// DuplicateLookup finds an already synthesized item.
type DuplicateLookup interface {
	// FindGenerated returns the generated item with audio for the exact sentence and word,
	// or nil when there is none.
	FindGenerated(ctx context.Context, sentence, word string) (*TrainingItem, error)
}

// BatchRecorder records generation runs for auditing.
type BatchRecorder interface {
	AddGenerationBatch(ctx context.Context, batch GenerationBatch) (int64, error)
}
