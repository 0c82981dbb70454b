package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"
)

// parsed subtitle file that preserves format specific metadata
type File interface {
	Format() Format
	Subtitle() *Subtitle
	// Replace swaps the cue list for entries, typically the output of Retime.
	Replace(entries []Entry) error
	Write(path string) error
}

func Open(path string) (File, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return parseSRTFile(path)
	case ".vtt":
		return parseVTTFile(path)
	case ".ass", ".ssa":
		return parseASSFile(path)
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", ext)
	}
}

// Save writes f to path. A path whose extension names a different format is
// written as a plain cue list in that format.
func Save(f File, path string) error {
	format := GetFormatFromExtension(path)
	if format == f.Format() {
		return f.Write(path)
	}

	writer, err := NewWriter(format)
	if err != nil {
		return err
	}
	return writer.Write(f.Subtitle(), path)
}
