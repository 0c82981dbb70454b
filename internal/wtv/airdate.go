package wtv

import (
	"path/filepath"
	"strings"
)

// broadcast date Media Center writes when the guide had none
const unsetBroadcastDate = "0001-01-01T00:00:00Z"

// AirDateResolver derives an original air date (YYYY-MM-DD) from metadata,
// falling back to the recording's filename.
type AirDateResolver struct {
	// ParseFilename extracts a date from a recording filename. Nil means
	// RecorderFilenameDate.
	ParseFilename func(filename string) (string, bool)
}

// Resolve returns the date portion of the broadcast date field. When the
// field is absent, empty or unset and allowFallback is true, the filename
// parser is consulted instead.
func (r AirDateResolver) Resolve(
	meta Metadata,
	filename string,
	allowFallback bool,
) (string, bool) {
	value := meta.String(FieldOriginalBroadcastDateTime)
	if value != "" && value != unsetBroadcastDate {
		date, _, _ := strings.Cut(value, "T")
		return date, true
	}

	if !allowFallback || filename == "" {
		return "", false
	}

	parse := r.ParseFilename
	if parse == nil {
		parse = RecorderFilenameDate
	}
	return parse(filename)
}

// AirDate resolves with the default filename convention.
func AirDate(meta Metadata, filename string, allowFallback bool) (string, bool) {
	return AirDateResolver{}.Resolve(meta, filename, allowFallback)
}

// RecorderFilenameDate reads the Media Center naming convention
// Series_Channel_YYYY_MM_DD_hh_mm_ss.wtv and returns YYYY-MM-DD.
func RecorderFilenameDate(filename string) (string, bool) {
	tokens := strings.Split(filepath.Base(filename), "_")
	if len(tokens) < 5 {
		return "", false
	}
	return strings.Join(tokens[2:5], "-"), true
}
