package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/comcut/internal/transcode"
)

// side files a recording needs before it can be cut
type SideFiles struct {
	Commercials string // comskip XML
	Subtitles   string // SRT
}

// Locate returns where the side files of recording are expected.
func Locate(recording, commercialDir, subtitleDir string) SideFiles {
	base := strings.TrimSuffix(filepath.Base(recording), filepath.Ext(recording))
	return SideFiles{
		Commercials: filepath.Join(commercialDir, base+".xml"),
		Subtitles:   filepath.Join(subtitleDir, base+".srt"),
	}
}

// defines interface for producing missing side files
type Processor interface {
	// runs commercial detection, writing the XML into outputDir
	DetectCommercials(ctx context.Context, recording, outputDir string) error

	// extracts closed captions of recording into outputPath
	ExtractSubtitles(ctx context.Context, recording, outputPath string) error
}

// holds the external tool settings
type Options struct {
	Comskip     string // comskip executable
	ComskipINI  string // optional comskip.ini
	CCExtractor string // ccextractor executable
}

// default implementation running comskip and ccextractor
type DefaultProcessor struct {
	runner transcode.Runner
	opts   Options
}

func NewProcessor(runner transcode.Runner, opts Options) *DefaultProcessor {
	return &DefaultProcessor{
		runner: runner,
		opts:   opts,
	}
}

// ComskipArgs returns the comskip command line for recording.
func ComskipArgs(exe, ini, recording, outputDir string) []string {
	args := []string{exe}
	if ini != "" {
		args = append(args, "--ini="+ini)
	}
	return append(args, "--output="+outputDir, recording)
}

// CCExtractorArgs returns the ccextractor command line for recording.
func CCExtractorArgs(exe, recording, outputPath string) []string {
	return []string{exe, recording, "-o", outputPath}
}

func (p *DefaultProcessor) DetectCommercials(
	ctx context.Context,
	recording, outputDir string,
) error {
	if _, err := os.Stat(recording); os.IsNotExist(err) {
		return fmt.Errorf("recording not found: %s", recording)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create commercial directory: %w", err)
	}

	argv := ComskipArgs(p.opts.Comskip, p.opts.ComskipINI, recording, outputDir)
	return transcode.Check(ctx, p.runner, "comskip", argv)
}

func (p *DefaultProcessor) ExtractSubtitles(
	ctx context.Context,
	recording, outputPath string,
) error {
	if _, err := os.Stat(recording); os.IsNotExist(err) {
		return fmt.Errorf("recording not found: %s", recording)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create subtitle directory: %w", err)
	}

	argv := CCExtractorArgs(p.opts.CCExtractor, recording, outputPath)
	return transcode.Check(ctx, p.runner, "ccextractor", argv)
}
