package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// default output layout relative to the output directory
const DefaultPattern = "${series}/Season ${season}/${orig_basename} - ${series} - s${season_padded}e${episode_padded} - ${episode_name}.${ext}"

// output extensions; subtitles carry the language before their own extension
const (
	VideoExt     = "mp4"
	SubtitleLang = "eng"
)

// values substituted into a pattern
type Fields struct {
	Series       string
	Season       int
	Episode      int
	EpisodeName  string
	OrigBasename string // recording name without extension
	Ext          string
}

// UnknownPlaceholderError reports placeholders the pattern cannot fill.
type UnknownPlaceholderError struct {
	Names []string
}

func (e *UnknownPlaceholderError) Error() string {
	return fmt.Sprintf("unknown placeholder(s) in output pattern: %s", strings.Join(e.Names, ", "))
}

// Template renders output paths from a ${name} pattern.
type Template struct {
	pattern string
}

// New checks pattern against the known placeholders.
func New(pattern string) (*Template, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, errors.New("output pattern is empty")
	}
	if !strings.Contains(pattern, "${ext}") {
		return nil, errors.New("output pattern must contain ${ext}")
	}
	t := &Template{pattern: pattern}
	if _, err := t.expand(Fields{}); err != nil {
		return nil, err
	}
	return t, nil
}

// Path renders the pattern under dir.
func (t *Template) Path(dir string, f Fields) (string, error) {
	rel, err := t.expand(f)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(rel)), nil
}

func (t *Template) expand(f Fields) (string, error) {
	values := map[string]string{
		"series":         clean(f.Series),
		"season":         strconv.Itoa(f.Season),
		"episode":        strconv.Itoa(f.Episode),
		"episode_name":   clean(f.EpisodeName),
		"ext":            f.Ext,
		"season_padded":  pad(f.Season),
		"episode_padded": pad(f.Episode),
		"orig_basename":  clean(f.OrigBasename),
	}

	unknown := map[string]struct{}{}
	out := os.Expand(t.pattern, func(name string) string {
		v, ok := values[name]
		if !ok {
			unknown[name] = struct{}{}
		}
		return v
	})
	if len(unknown) > 0 {
		names := make([]string, 0, len(unknown))
		for name := range unknown {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", &UnknownPlaceholderError{Names: names}
	}
	return out, nil
}

// two digits minimum
func pad(n int) string {
	return fmt.Sprintf("%02d", n)
}

var unsafe = strings.NewReplacer("/", "-", "\\", "-", ":", " -", "\x00", "")

// values must not add directory levels
func clean(s string) string {
	return strings.TrimSpace(unsafe.Replace(s))
}
