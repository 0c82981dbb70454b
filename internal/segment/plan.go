package segment

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/comcut/internal/commercial"
	"github.com/mgpai22/comcut/internal/ffmpeg"
)

// one keep-range to cut and encode into TempPath
type Entry struct {
	Index    int
	Range    commercial.Range
	TempPath string
}

// ordered cut plan for one recording plus the concat manifest that joins it
type Plan struct {
	InputPath    string
	OutputPath   string
	ManifestPath string
	Options      ffmpeg.EncodeOptions
	Entries      []Entry
}

// Layout computes the plan for keep without touching the filesystem.
func Layout(
	keep []commercial.Range,
	inputPath, tempDir, outputPath string,
	opts ffmpeg.EncodeOptions,
) (*Plan, error) {
	if len(keep) == 0 {
		return nil, fmt.Errorf("no keep ranges for %s", inputPath)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	plan := &Plan{
		InputPath:    inputPath,
		OutputPath:   outputPath,
		ManifestPath: filepath.Join(tempDir, base+".txt"),
		Options:      opts,
		Entries:      make([]Entry, 0, len(keep)),
	}
	for i, r := range keep {
		plan.Entries = append(plan.Entries, Entry{
			Index:    i,
			Range:    r,
			TempPath: filepath.Join(tempDir, fmt.Sprintf("%s.%d.mp4", base, i)),
		})
	}
	return plan, nil
}

// Build lays out one temp segment per keep-range under tempDir and writes
// the concat manifest. Temp files left by an earlier plan for the same input
// are removed, so building twice yields the same plan.
func Build(
	keep []commercial.Range,
	inputPath, tempDir, outputPath string,
	opts ffmpeg.EncodeOptions,
) (*Plan, error) {
	plan, err := Layout(keep, inputPath, tempDir, outputPath, opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	for _, e := range plan.Entries {
		if err := os.Remove(e.TempPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale segment %s: %w", e.TempPath, err)
		}
	}

	if err := writeManifest(plan.ManifestPath, plan.Entries); err != nil {
		return nil, err
	}

	return plan, nil
}

// writes the concat demuxer list, one file line per segment
func writeManifest(path string, entries []Entry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create concat manifest: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	w := bufio.NewWriter(file)
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "file '%s'\n", quote(e.TempPath)); err != nil {
			return fmt.Errorf("failed to write concat manifest: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write concat manifest: %w", err)
	}
	return file.Close()
}

// single quotes inside a quoted concat path are written as '\''
func quote(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

// EncodeArgs returns the ffmpeg arguments for entry i.
func (p *Plan) EncodeArgs(i int) []string {
	e := p.Entries[i]
	return ffmpeg.EncodeArgs(p.InputPath, e.TempPath, e.Range, p.Options)
}

// ConcatArgs returns the ffmpeg arguments that join the segments.
func (p *Plan) ConcatArgs() []string {
	return ffmpeg.ConcatArgs(p.ManifestPath, p.OutputPath)
}

// TempFiles lists every file the plan owns in the temp directory.
func (p *Plan) TempFiles() []string {
	files := make([]string, 0, len(p.Entries)+1)
	for _, e := range p.Entries {
		files = append(files, e.TempPath)
	}
	return append(files, p.ManifestPath)
}
