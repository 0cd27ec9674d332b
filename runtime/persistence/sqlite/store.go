// Package sqlite implements persistence.TrainingItemStore on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/logger"
	metrics "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/metrics/prometheus"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/persistence"
)

//go:embed schema.sql
var schemaSQL string

const component = "store"

const itemColumns = `id, word, sentence, wav_path, status, voice, duration_seconds, created_at, exported_at, metadata`

// DBExecutor is satisfied by both *sql.DB and *sql.Tx.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a SQLite-backed training item store. All methods are serialized by one mutex.
type Store struct {
	db         *sql.DB
	mu         sync.Mutex
	now        func() time.Time
	removeFile func(string) error
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for created_at and exported_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithFileRemover replaces os.Remove for audio file cleanup after deletes.
func WithFileRemover(remove func(string) error) Option {
	return func(s *Store) { s.removeFile = remove }
}

// Open opens (creating if needed) the database at path and migrates it.
// ":memory:" opens a private in-memory database.
func Open(path string, opts ...Option) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, pkgerrors.New(component, "Open", err).WithKind(pkgerrors.KindFileSystem)
			}
		}
		dsn = "file:" + path + "?_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, pkgerrors.New(component, "Open", err).WithKind(pkgerrors.KindPersistence)
	}
	s, err := New(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and runs the schema migration.
func New(db *sql.DB, opts ...Option) (*Store, error) {
	// One connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)
	if err := Migrate(context.Background(), db); err != nil {
		return nil, pkgerrors.New(component, "Migrate", err).WithKind(pkgerrors.KindPersistence)
	}
	s := &Store{
		db:         db,
		now:        time.Now,
		removeFile: os.Remove,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Migrate runs the embedded schema statements.
func Migrate(ctx context.Context, db DBExecutor) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail("ping", s.db.PingContext(ctx))
}

func isUniqueConstraintErr(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func (s *Store) fail(op string, err error) error {
	metrics.RecordStoreOperation(op, err)
	if err == nil {
		return nil
	}
	var ce *pkgerrors.ContextualError
	if errors.As(err, &ce) {
		return err
	}
	kind := pkgerrors.KindPersistence
	switch {
	case errors.Is(err, persistence.ErrInvalidItem),
		errors.Is(err, persistence.ErrInvalidStatus),
		errors.Is(err, persistence.ErrEmptyUpdate),
		errors.Is(err, persistence.ErrDuplicate):
		kind = pkgerrors.KindValidation
	case errors.Is(err, persistence.ErrNotFound):
		return err
	}
	return pkgerrors.New(component, op, err).WithKind(kind)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(r rowScanner) (*persistence.TrainingItem, error) {
	var (
		item       persistence.TrainingItem
		wavPath    sql.NullString
		status     string
		voice      sql.NullString
		duration   sql.NullFloat64
		exportedAt sql.NullTime
		metadata   sql.NullString
	)
	if err := r.Scan(&item.ID, &item.Word, &item.Sentence, &wavPath, &status, &voice,
		&duration, &item.CreatedAt, &exportedAt, &metadata); err != nil {
		return nil, err
	}
	item.AudioPath = wavPath.String
	item.Status = persistence.Status(status)
	item.Voice = voice.String
	if duration.Valid {
		d := duration.Float64
		item.DurationSeconds = &d
	}
	if exportedAt.Valid {
		t := exportedAt.Time
		item.ExportedAt = &t
	}
	item.Metadata = metadata.String
	return &item, nil
}

func queryItems(ctx context.Context, db DBExecutor, query string, args ...any) ([]persistence.TrainingItem, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []persistence.TrainingItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func getItem(ctx context.Context, db DBExecutor, id int64) (*persistence.TrainingItem, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM training_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", persistence.ErrNotFound, id)
	}
	return item, err
}

// AddItem inserts item. A pending item with no status set defaults to pending.
func (s *Store) AddItem(ctx context.Context, item *persistence.TrainingItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.Status == "" {
		item.Status = persistence.StatusPending
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now().UTC()
	}
	if err := item.Validate(); err != nil {
		return 0, s.fail("add_item", err)
	}

	var duration sql.NullFloat64
	if item.DurationSeconds != nil {
		duration = sql.NullFloat64{Float64: *item.DurationSeconds, Valid: true}
	}
	var exportedAt sql.NullTime
	if item.ExportedAt != nil {
		exportedAt = sql.NullTime{Time: item.ExportedAt.UTC(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO training_items (word, sentence, wav_path, status, voice, duration_seconds, created_at, exported_at, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Word, item.Sentence, nullString(item.AudioPath), string(item.Status), nullString(item.Voice),
		duration, item.CreatedAt, exportedAt, nullString(item.Metadata))
	if err != nil {
		if isUniqueConstraintErr(err) {
			return 0, s.fail("add_item", fmt.Errorf("%w: %q", persistence.ErrDuplicate, item.Sentence))
		}
		return 0, s.fail("add_item", fmt.Errorf("insert item: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, s.fail("add_item", err)
	}
	item.ID = id
	metrics.RecordStoreOperation("add_item", nil)
	return id, nil
}

// GetItem returns the item with the given id.
func (s *Store) GetItem(ctx context.Context, id int64) (*persistence.TrainingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := getItem(ctx, s.db, id)
	if err != nil {
		return nil, s.fail("get_item", err)
	}
	return item, nil
}

// ListItems returns items matching filter, newest first.
func (s *Store) ListItems(ctx context.Context, filter persistence.ItemFilter) ([]persistence.TrainingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := filter.Normalized()
	query := `SELECT ` + itemColumns + ` FROM training_items WHERE 1=1`
	var args []any
	if f.Word != "" {
		query += ` AND word = ?`
		args = append(args, f.Word)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	items, err := queryItems(ctx, s.db, query, args...)
	if err != nil {
		return nil, s.fail("list_items", err)
	}
	metrics.RecordStoreOperation("list_items", nil)
	return items, nil
}

// UpdateItem applies update to the item with the given id.
// The merged item must still satisfy the status invariants, and only
// generated items may become exported.
func (s *Store) UpdateItem(ctx context.Context, id int64, update persistence.ItemUpdate) (*persistence.TrainingItem, error) {
	if update.IsEmpty() {
		return nil, s.fail("update_item", persistence.ErrEmptyUpdate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.fail("update_item", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, s.fail("update_item", err)
	}
	merged := update.Apply(*current, s.now().UTC())
	if !persistence.CanTransition(current.Status, merged.Status) {
		return nil, s.fail("update_item", fmt.Errorf("%w: %s to %s", persistence.ErrInvalidStatus, current.Status, merged.Status))
	}
	if err := merged.Validate(); err != nil {
		return nil, s.fail("update_item", err)
	}

	var duration sql.NullFloat64
	if merged.DurationSeconds != nil {
		duration = sql.NullFloat64{Float64: *merged.DurationSeconds, Valid: true}
	}
	var exportedAt sql.NullTime
	if merged.ExportedAt != nil {
		exportedAt = sql.NullTime{Time: merged.ExportedAt.UTC(), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE training_items SET word = ?, sentence = ?, wav_path = ?, status = ?, voice = ?,
		 duration_seconds = ?, exported_at = ?, metadata = ? WHERE id = ?`,
		merged.Word, merged.Sentence, nullString(merged.AudioPath), string(merged.Status), nullString(merged.Voice),
		duration, exportedAt, nullString(merged.Metadata), id)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return nil, s.fail("update_item", fmt.Errorf("%w: %q", persistence.ErrDuplicate, merged.Sentence))
		}
		return nil, s.fail("update_item", err)
	}
	updated, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, s.fail("update_item", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, s.fail("update_item", err)
	}
	metrics.RecordStoreOperation("update_item", nil)
	return updated, nil
}

// DeleteItem removes one item and then its audio file.
func (s *Store) DeleteItem(ctx context.Context, id int64) (bool, error) {
	n, err := s.deleteWhere(ctx, "delete_item", []int64{id})
	return n > 0, err
}

// BulkDelete removes every listed item and then their audio files.
func (s *Store) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.deleteWhere(ctx, "bulk_delete", ids)
}

// DeleteByWord removes every item whose word matches ignoring case.
// Matching happens in Go so non-ASCII letters fold correctly. Selection and
// deletion run under one lock, so an item added concurrently is either
// deleted with its file or kept with its file.
func (s *Store) DeleteByWord(ctx context.Context, word string) (int, error) {
	s.mu.Lock()
	ids, err := s.idsForWord(ctx, word)
	if err != nil || len(ids) == 0 {
		s.mu.Unlock()
		return 0, s.fail("delete_by_word", err)
	}
	paths, removed, err := s.deleteRows(ctx, ids)
	s.mu.Unlock()
	return removed, s.finishDelete(ctx, "delete_by_word", paths, err)
}

func (s *Store) idsForWord(ctx context.Context, word string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, word FROM training_items`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var (
			id int64
			w  string
		)
		if err := rows.Scan(&id, &w); err != nil {
			return nil, err
		}
		if strings.EqualFold(w, word) {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

func inClause(ids []int64) (string, []any) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return "(" + placeholders + ")", args
}

// deleteWhere removes rows in one transaction, then removes their audio files best effort.
func (s *Store) deleteWhere(ctx context.Context, op string, ids []int64) (int, error) {
	s.mu.Lock()
	paths, removed, err := s.deleteRows(ctx, ids)
	s.mu.Unlock()
	if err := s.finishDelete(ctx, op, paths, err); err != nil {
		return 0, err
	}
	return removed, nil
}

// finishDelete records the outcome and, after a commit, removes the files of
// the deleted rows. It runs without the lock.
func (s *Store) finishDelete(ctx context.Context, op string, paths []string, err error) error {
	if err != nil {
		return s.fail(op, err)
	}
	metrics.RecordStoreOperation(op, nil)
	for _, p := range paths {
		s.removeAudio(ctx, p)
	}
	return nil
}

func (s *Store) deleteRows(ctx context.Context, ids []int64) ([]string, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	in, args := inClause(ids)
	rows, err := tx.QueryContext(ctx,
		`SELECT wav_path FROM training_items WHERE wav_path IS NOT NULL AND wav_path != '' AND id IN `+in, args...)
	if err != nil {
		return nil, 0, err
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, 0, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, 0, err
	}
	rows.Close()

	res, err := tx.ExecContext(ctx, `DELETE FROM training_items WHERE id IN `+in, args...)
	if err != nil {
		return nil, 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	return paths, int(n), nil
}

func (s *Store) removeAudio(ctx context.Context, path string) {
	err := s.removeFile(path)
	switch {
	case err == nil:
		logger.DebugContext(ctx, "removed audio file", "path", path)
	case errors.Is(err, fs.ErrNotExist):
	default:
		logger.WarnContext(ctx, "failed to remove audio file", "path", path, "error", err)
	}
}

// MarkExported moves the listed generated items to exported.
func (s *Store) MarkExported(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	in, args := inClause(ids)
	args = append([]any{s.now().UTC()}, args...)
	res, err := s.db.ExecContext(ctx,
		`UPDATE training_items SET status = 'exported', exported_at = ?
		 WHERE status = 'generated' AND id IN `+in, args...)
	if err != nil {
		return 0, s.fail("mark_exported", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.fail("mark_exported", err)
	}
	metrics.RecordStoreOperation("mark_exported", nil)
	return int(n), nil
}

// FindGenerated returns the first generated item with audio for sentence and word, or nil.
func (s *Store) FindGenerated(ctx context.Context, sentence, word string) (*persistence.TrainingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM training_items
		 WHERE sentence = ? AND word = ? AND status = 'generated' AND wav_path IS NOT NULL AND wav_path != ''
		 ORDER BY id LIMIT 1`, sentence, word))
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordStoreOperation("find_generated", nil)
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("find_generated", err)
	}
	metrics.RecordStoreOperation("find_generated", nil)
	return item, nil
}

// ExportCandidates returns generated items with audio, ordered by word then creation.
func (s *Store) ExportCandidates(ctx context.Context, word string) ([]persistence.TrainingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + itemColumns + ` FROM training_items
		WHERE status = 'generated' AND wav_path IS NOT NULL AND wav_path != ''`
	var args []any
	if word != "" {
		query += ` AND word = ?`
		args = append(args, word)
	}
	query += ` ORDER BY word, created_at, id`

	items, err := queryItems(ctx, s.db, query, args...)
	if err != nil {
		return nil, s.fail("export_candidates", err)
	}
	metrics.RecordStoreOperation("export_candidates", nil)
	return items, nil
}

// AddGenerationBatch records a generation run.
func (s *Store) AddGenerationBatch(ctx context.Context, batch persistence.GenerationBatch) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = s.now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_batches (word, sentence_count, audio_count, created_at) VALUES (?, ?, ?, ?)`,
		batch.Word, batch.SentenceCount, batch.AudioCount, batch.CreatedAt)
	if err != nil {
		return 0, s.fail("add_generation_batch", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, s.fail("add_generation_batch", err)
	}
	metrics.RecordStoreOperation("add_generation_batch", nil)
	return id, nil
}

// GenerationBatches returns recorded runs, newest first.
func (s *Store) GenerationBatches(ctx context.Context, limit int) ([]persistence.GenerationBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit = persistence.ItemFilter{Limit: limit}.Normalized().Limit
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, word, sentence_count, audio_count, created_at FROM generation_batches
		 ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, s.fail("generation_batches", err)
	}
	defer rows.Close()

	var out []persistence.GenerationBatch
	for rows.Next() {
		var b persistence.GenerationBatch
		if err := rows.Scan(&b.ID, &b.Word, &b.SentenceCount, &b.AudioCount, &b.CreatedAt); err != nil {
			return nil, s.fail("generation_batches", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("generation_batches", err)
	}
	return out, nil
}

// Stats counts items per status in one read transaction.
func (s *Store) Stats(ctx context.Context) (persistence.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st persistence.Stats
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return st, s.fail("stats", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'generated' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'exported' THEN 1 ELSE 0 END), 0),
		COUNT(DISTINCT word)
		FROM training_items`).Scan(&st.Total, &st.Pending, &st.Generated, &st.Exported, &st.UniqueWords)
	if err != nil {
		return persistence.Stats{}, s.fail("stats", err)
	}
	if err := tx.Commit(); err != nil {
		return persistence.Stats{}, s.fail("stats", err)
	}
	metrics.RecordStoreOperation("stats", nil)
	return st, nil
}

var _ persistence.TrainingItemStore = (*Store)(nil)
