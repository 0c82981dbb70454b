package episode

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mgpai22/comcut/internal/wtv"
)

// ErrUnresolved reports a recording whose episode could not be identified
// automatically. Candidates, when any were found, are left in the store for
// 'comcut resolve'.
var ErrUnresolved = errors.New("episode unresolved")

// what the recorder knows about a recording
type Recording struct {
	Filename    string // base name; the store key
	Series      string
	EpisodeName string
	Description string
	AirDate     string // YYYY-MM-DD, may be empty
}

// NewRecording reads the identifying fields from decoded metadata. The air
// date falls back to the filename convention of airDates.
func NewRecording(meta wtv.Metadata, path string, airDates wtv.AirDateResolver) Recording {
	filename := filepath.Base(path)
	airDate, _ := airDates.Resolve(meta, filename, true)
	return Recording{
		Filename:    filename,
		Series:      meta.String(wtv.FieldTitle),
		EpisodeName: meta.String(wtv.FieldSubTitle),
		Description: meta.String(wtv.FieldSubTitleDescription),
		AirDate:     airDate,
	}
}

// single episode as listed by TVDB
type Episode struct {
	ID         int64
	SeriesID   int64
	Name       string
	Overview   string
	FirstAired string
	Season     int
	Number     int
}

// season/episode label, e.g. s01e05
func (e Episode) Code() string {
	return fmt.Sprintf("s%02de%02d", e.Season, e.Number)
}

// Identity is everything output naming needs about a recording.
type Identity struct {
	Series  string
	Season  int
	Number  int
	Name    string
	Source  string // selected, tvdb or llm
	Episode Episode
}

func newIdentity(rec Recording, ep Episode, source string) *Identity {
	name := rec.EpisodeName
	if name == "" {
		name = ep.Name
	}
	if name == "" {
		name = fmt.Sprintf("Episode #%d", ep.Number)
	}
	return &Identity{
		Series:  rec.Series,
		Season:  ep.Season,
		Number:  ep.Number,
		Name:    name,
		Source:  source,
		Episode: ep,
	}
}

// Resolver maps a recording to its episode. Implementations return an error
// wrapping ErrUnresolved when the recording needs a human decision.
type Resolver interface {
	Resolve(ctx context.Context, rec Recording) (*Identity, error)
}
