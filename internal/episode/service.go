package episode

import (
	"context"
	"fmt"

	"github.com/mgpai22/comcut/internal/logging"
)

// Service resolves recordings through the stored selection, TVDB and the
// optional picker, in that order.
type Service struct {
	lookup        Lookup
	store         CandidateStore
	picker        Picker // nil disables llm disambiguation
	minConfidence float64
	log           *logging.Logger
}

var _ Resolver = (*Service)(nil)

func NewService(
	lookup Lookup,
	store CandidateStore,
	picker Picker,
	minConfidence float64,
	log *logging.Logger,
) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		lookup:        lookup,
		store:         store,
		picker:        picker,
		minConfidence: minConfidence,
		log:           log,
	}
}

func (s *Service) Resolve(ctx context.Context, rec Recording) (*Identity, error) {
	selected, err := s.store.Selected(ctx, rec.Filename)
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	if selected != nil {
		s.log.Debugw("Using stored selection", "file", rec.Filename, "episode", selected.Code())
		return newIdentity(rec, *selected, "selected"), nil
	}

	if rec.Series == "" {
		return nil, fmt.Errorf("%w: %s has no series title", ErrUnresolved, rec.Filename)
	}
	if rec.EpisodeName == "" && rec.AirDate == "" {
		return nil, fmt.Errorf("%w: %s has neither episode name nor air date", ErrUnresolved, rec.Filename)
	}

	if err := s.lookup.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("tvdb session: %w", err)
	}
	candidates, err := s.lookup.FindEpisodes(ctx, rec.Series, rec.EpisodeName, rec.AirDate)
	if err != nil {
		return nil, fmt.Errorf("tvdb lookup: %w", err)
	}

	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: no tvdb match for %s (%q, %s)",
			ErrUnresolved, rec.Series, rec.EpisodeName, rec.AirDate)
	case 1:
		return newIdentity(rec, candidates[0], "tvdb"), nil
	}

	if s.picker != nil {
		choice, err := s.picker.Pick(ctx, rec, candidates)
		switch {
		case err != nil:
			s.log.Warnw("Episode picker failed", "file", rec.Filename, "error", err)
		case choice.Index < 1 || choice.Index > len(candidates):
			s.log.Warnw("Episode picker failed",
				"file", rec.Filename,
				"error", fmt.Sprintf("index %d out of range 1-%d", choice.Index, len(candidates)),
			)
		case choice.Confidence >= s.minConfidence:
			picked := candidates[choice.Index-1]
			s.log.Infow("Episode picked",
				"file", rec.Filename,
				"episode", picked.Code(),
				"confidence", choice.Confidence,
				"reason", choice.Reason,
			)
			return newIdentity(rec, picked, "llm"), nil
		default:
			s.log.Infow("Episode pick below confidence threshold",
				"file", rec.Filename,
				"confidence", choice.Confidence,
				"threshold", s.minConfidence,
			)
		}
	}

	if err := s.store.StoreCandidates(ctx, rec, candidates); err != nil {
		return nil, fmt.Errorf("store candidates: %w", err)
	}
	return nil, fmt.Errorf("%w: %d candidates for %s stored for 'comcut resolve'",
		ErrUnresolved, len(candidates), rec.Filename)
}
