package episode

import (
	"context"
	"errors"
	"testing"

	"github.com/mgpai22/comcut/internal/wtv"
)

type stubLookup struct {
	episodes []Episode
	err      error
	calls    int
}

func (s *stubLookup) Refresh(ctx context.Context) error { return nil }

func (s *stubLookup) FindEpisodes(ctx context.Context, series, name, airDate string) ([]Episode, error) {
	s.calls++
	return s.episodes, s.err
}

type stubStore struct {
	selected *Episode
	stored   []Episode
}

func (s *stubStore) Selected(ctx context.Context, filename string) (*Episode, error) {
	return s.selected, nil
}

func (s *stubStore) StoreCandidates(ctx context.Context, rec Recording, candidates []Episode) error {
	s.stored = candidates
	return nil
}

type stubPicker struct {
	choice Choice
	err    error
}

func (s stubPicker) Pick(ctx context.Context, rec Recording, candidates []Episode) (Choice, error) {
	return s.choice, s.err
}

func TestServiceResolve(t *testing.T) {
	rec := Recording{Filename: "a.wtv", Series: "Parking Wars", AirDate: "2009-03-03"}
	one := []Episode{testCandidates[1]}

	tests := []struct {
		name       string
		lookup     *stubLookup
		store      *stubStore
		picker     Picker
		wantSource string
		wantID     int64
		wantStored int
	}{
		{
			name:       "stored selection skips tvdb",
			lookup:     &stubLookup{err: errors.New("must not be called")},
			store:      &stubStore{selected: &testCandidates[0]},
			wantSource: "selected",
			wantID:     2,
		},
		{
			name:       "single tvdb match",
			lookup:     &stubLookup{episodes: one},
			store:      &stubStore{},
			wantSource: "tvdb",
			wantID:     3,
		},
		{
			name:       "confident pick",
			lookup:     &stubLookup{episodes: testCandidates},
			store:      &stubStore{},
			picker:     stubPicker{choice: Choice{Index: 2, Confidence: 0.95}},
			wantSource: "llm",
			wantID:     3,
		},
		{
			name:       "unsure pick stores candidates",
			lookup:     &stubLookup{episodes: testCandidates},
			store:      &stubStore{},
			picker:     stubPicker{choice: Choice{Index: 2, Confidence: 0.3}},
			wantStored: 2,
		},
		{
			name:       "failed pick stores candidates",
			lookup:     &stubLookup{episodes: testCandidates},
			store:      &stubStore{},
			picker:     stubPicker{err: errors.New("quota")},
			wantStored: 2,
		},
		{
			name:       "zero index stores candidates",
			lookup:     &stubLookup{episodes: testCandidates},
			store:      &stubStore{},
			picker:     stubPicker{choice: Choice{Index: 0, Confidence: 1}},
			wantStored: 2,
		},
		{
			name:       "index past end stores candidates",
			lookup:     &stubLookup{episodes: testCandidates},
			store:      &stubStore{},
			picker:     stubPicker{choice: Choice{Index: 3, Confidence: 1}},
			wantStored: 2,
		},
		{
			name:       "no picker stores candidates",
			lookup:     &stubLookup{episodes: testCandidates},
			store:      &stubStore{},
			wantStored: 2,
		},
		{
			name:   "no match",
			lookup: &stubLookup{},
			store:  &stubStore{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.lookup, tt.store, tt.picker, 0.8, nil)
			id, err := svc.Resolve(context.Background(), rec)

			if tt.wantSource == "" {
				if !errors.Is(err, ErrUnresolved) {
					t.Fatalf("expected ErrUnresolved, got %v (%+v)", err, id)
				}
				if len(tt.store.stored) != tt.wantStored {
					t.Errorf("stored %d candidates, want %d", len(tt.store.stored), tt.wantStored)
				}
				return
			}

			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if id.Source != tt.wantSource || id.Episode.ID != tt.wantID {
				t.Errorf("Resolve() = %+v, want source %s id %d", id, tt.wantSource, tt.wantID)
			}
			if id.Series != "Parking Wars" {
				t.Errorf("series = %q", id.Series)
			}
		})
	}
}

func TestServiceResolveRequiresIdentity(t *testing.T) {
	lookup := &stubLookup{episodes: testCandidates[:1]}
	svc := NewService(lookup, &stubStore{}, nil, 0.8, nil)

	for _, rec := range []Recording{
		{Filename: "a.wtv", EpisodeName: "Towed"},
		{Filename: "a.wtv", Series: "Parking Wars"},
	} {
		if _, err := svc.Resolve(context.Background(), rec); !errors.Is(err, ErrUnresolved) {
			t.Errorf("Resolve(%+v) = %v, want ErrUnresolved", rec, err)
		}
	}
	if lookup.calls != 0 {
		t.Errorf("tvdb consulted %d times", lookup.calls)
	}
}

func TestServiceLookupError(t *testing.T) {
	svc := NewService(&stubLookup{err: ErrSeriesNotFound}, &stubStore{}, nil, 0.8, nil)
	_, err := svc.Resolve(context.Background(), Recording{Filename: "a.wtv", Series: "X", AirDate: "2020-01-01"})
	if !errors.Is(err, ErrSeriesNotFound) {
		t.Errorf("expected ErrSeriesNotFound, got %v", err)
	}
}

func TestIdentityName(t *testing.T) {
	ep := Episode{Name: "Towed", Season: 1, Number: 2}

	if got := newIdentity(Recording{EpisodeName: "Guide Title"}, ep, "tvdb").Name; got != "Guide Title" {
		t.Errorf("recording name not preferred: %q", got)
	}
	if got := newIdentity(Recording{}, ep, "tvdb").Name; got != "Towed" {
		t.Errorf("tvdb name not used: %q", got)
	}
	if got := newIdentity(Recording{}, Episode{Number: 7}, "tvdb").Name; got != "Episode #7" {
		t.Errorf("fallback name = %q", got)
	}
}

func TestNewRecording(t *testing.T) {
	meta := wtv.Metadata{
		wtv.FieldTitle:                     {Kind: wtv.KindString, Str: "Parking Wars"},
		wtv.FieldSubTitle:                  {Kind: wtv.KindString, Str: "Towed"},
		wtv.FieldSubTitleDescription:       {Kind: wtv.KindString, Str: "Philadelphia drivers."},
		wtv.FieldOriginalBroadcastDateTime: {Kind: wtv.KindString, Str: "0001-01-01T00:00:00Z"},
	}

	rec := NewRecording(meta, "/rec/Parking Wars_AE_2009_03_03_20_00_00.wtv", wtv.AirDateResolver{})
	want := Recording{
		Filename:    "Parking Wars_AE_2009_03_03_20_00_00.wtv",
		Series:      "Parking Wars",
		EpisodeName: "Towed",
		Description: "Philadelphia drivers.",
		AirDate:     "2009-03-03",
	}
	if rec != want {
		t.Errorf("NewRecording() = %+v, want %+v", rec, want)
	}
}
