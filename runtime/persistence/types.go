package persistence

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Status is the lifecycle state of a training item.
type Status string

// Item statuses. Items move pending → generated → exported.
const (
	StatusPending   Status = "pending"
	StatusGenerated Status = "generated"
	StatusExported  Status = "exported"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusGenerated, StatusExported:
		return true
	}
	return false
}

// ParseStatus converts a string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// TrainingItem is one sentence and, once synthesized, its audio file.
type TrainingItem struct {
	ID              int64      `json:"id"`
	Word            string     `json:"word"`
	Sentence        string     `json:"sentence"`
	AudioPath       string     `json:"audio_path,omitempty"`
	Status          Status     `json:"status"`
	Voice           string     `json:"voice,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ExportedAt      *time.Time `json:"exported_at,omitempty"`
	Metadata        string     `json:"metadata,omitempty"`
}

// Validate checks the status invariants of an item.
func (i *TrainingItem) Validate() error {
	if i.Word == "" {
		return fmt.Errorf("%w: word is empty", ErrInvalidItem)
	}
	if i.Sentence == "" {
		return fmt.Errorf("%w: sentence is empty", ErrInvalidItem)
	}
	if !i.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, i.Status)
	}
	if (i.Status == StatusGenerated || i.Status == StatusExported) && i.AudioPath == "" {
		return fmt.Errorf("%w: %s item has no audio path", ErrInvalidItem, i.Status)
	}
	if i.Status == StatusExported && i.ExportedAt == nil {
		return fmt.Errorf("%w: exported item has no export time", ErrInvalidItem)
	}
	return nil
}

// GenerationBatch records one sentence generation run.
type GenerationBatch struct {
	ID            int64     `json:"id"`
	Word          string    `json:"word"`
	SentenceCount int       `json:"sentence_count"`
	AudioCount    int       `json:"audio_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// List limits.
const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// ItemFilter selects items for ListItems. Zero fields do not filter.
type ItemFilter struct {
	Word   string
	Status Status
	Limit  int
	Offset int
}

// Normalized returns the filter with Limit defaulted and clamped and Offset non-negative.
func (f ItemFilter) Normalized() ItemFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ItemUpdate lists the mutable fields of an item. Nil fields are left unchanged.
type ItemUpdate struct {
	Word            *string    `json:"word,omitempty"`
	Sentence        *string    `json:"sentence,omitempty"`
	AudioPath       *string    `json:"audio_path,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	Voice           *string    `json:"voice,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	ExportedAt      *time.Time `json:"exported_at,omitempty"`
	Metadata        *string    `json:"metadata,omitempty"`
}

// IsEmpty reports whether no field is set.
func (u ItemUpdate) IsEmpty() bool {
	return u.Word == nil && u.Sentence == nil && u.AudioPath == nil && u.Status == nil &&
		u.Voice == nil && u.DurationSeconds == nil && u.ExportedAt == nil && u.Metadata == nil
}

// Apply returns a copy of item with the set fields of u applied.
// Moving to exported without an explicit time stamps it with now.
func (u ItemUpdate) Apply(item TrainingItem, now time.Time) TrainingItem {
	if u.Word != nil {
		item.Word = *u.Word
	}
	if u.Sentence != nil {
		item.Sentence = *u.Sentence
	}
	if u.AudioPath != nil {
		item.AudioPath = *u.AudioPath
	}
	if u.Voice != nil {
		item.Voice = *u.Voice
	}
	if u.DurationSeconds != nil {
		d := *u.DurationSeconds
		item.DurationSeconds = &d
	}
	if u.Metadata != nil {
		item.Metadata = *u.Metadata
	}
	if u.ExportedAt != nil {
		t := *u.ExportedAt
		item.ExportedAt = &t
	}
	if u.Status != nil {
		item.Status = *u.Status
		if item.Status == StatusExported && item.ExportedAt == nil {
			t := now
			item.ExportedAt = &t
		}
	}
	return item
}

// DecodeItemUpdate reads an ItemUpdate from JSON, rejecting unknown fields.
func DecodeItemUpdate(r io.Reader) (ItemUpdate, error) {
	var u ItemUpdate
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		return ItemUpdate{}, fmt.Errorf("decode item update: %w", err)
	}
	if u.Status != nil && !u.Status.Valid() {
		return ItemUpdate{}, fmt.Errorf("%w: %q", ErrInvalidStatus, *u.Status)
	}
	if u.IsEmpty() {
		return ItemUpdate{}, ErrEmptyUpdate
	}
	return u, nil
}

// Stats summarizes the store contents.
type Stats struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Generated   int `json:"generated"`
	Exported    int `json:"exported"`
	UniqueWords int `json:"unique_words"`
}

// CanTransition reports whether an item may move from one status to another.
// Only generated items can become exported.
func CanTransition(from, to Status) bool {
	if !to.Valid() {
		return false
	}
	if to == StatusExported {
		return from == StatusGenerated || from == StatusExported
	}
	return true
}
