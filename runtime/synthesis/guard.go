package synthesis

import (
	"context"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/persistence"
)

// DuplicateGuard detects sentences that already have generated audio.
type DuplicateGuard struct {
	lookup persistence.DuplicateLookup
}

// NewDuplicateGuard creates a guard over lookup.
func NewDuplicateGuard(lookup persistence.DuplicateLookup) *DuplicateGuard {
	return &DuplicateGuard{lookup: lookup}
}

// Check returns the generated item for the exact sentence and word, if one has audio.
func (g *DuplicateGuard) Check(ctx context.Context, sentence, word string) (*persistence.TrainingItem, bool, error) {
	item, err := g.lookup.FindGenerated(ctx, sentence, word)
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			err = pkgerrors.New(component, "Check", err).WithKind(pkgerrors.KindPersistence)
		}
		return nil, false, err
	}
	if item == nil || item.AudioPath == "" || item.Status != persistence.StatusGenerated {
		return nil, false, nil
	}
	return item, true, nil
}
