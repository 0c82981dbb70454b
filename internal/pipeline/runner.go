// Package pipeline runs the per-recording steps over a directory of
// recordings: side files, episode identity, subtitle retiming, cut and
// concat, output validation and source cleanup.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mgpai22/comcut/internal/commercial"
	"github.com/mgpai22/comcut/internal/config"
	"github.com/mgpai22/comcut/internal/episode"
	"github.com/mgpai22/comcut/internal/ffmpeg"
	"github.com/mgpai22/comcut/internal/logging"
	"github.com/mgpai22/comcut/internal/naming"
	"github.com/mgpai22/comcut/internal/segment"
	"github.com/mgpai22/comcut/internal/subtitle"
	"github.com/mgpai22/comcut/internal/video"
	"github.com/mgpai22/comcut/internal/wtv"
)

// Executor runs a segment plan; *transcode.Driver in production.
type Executor interface {
	Execute(ctx context.Context, plan *segment.Plan) error
}

// Forgetter drops disambiguation state for a finished recording.
type Forgetter interface {
	Forget(ctx context.Context, filename string) error
}

// Prober reports the media duration of a file.
type Prober func(ctx context.Context, path string) (time.Duration, error)

// Deps are the collaborators of a Runner.
type Deps struct {
	Resolver  episode.Resolver
	Forgetter Forgetter // optional
	Processor video.Processor
	Executor  Executor
	Prober    Prober
	Template  *naming.Template
	Now       func() time.Time // defaults to time.Now
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeUnresolved
	outcomeFailed
)

// Runner processes recordings one at a time.
type Runner struct {
	cfg  *config.Config
	deps Deps
	log  *logging.Logger

	stats RunStats
}

func NewRunner(cfg *config.Config, deps Deps, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Runner{cfg: cfg, deps: deps, log: log}
}

// Run processes every settled recording in the input directory. Per-file
// failures are logged and counted; the file stays in place for a later run.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	r.stats = RunStats{}
	base := r.log
	r.log = base.With("run_id", uuid.NewString())
	defer func() {
		r.log = base
	}()

	lock, err := AcquireLock(r.cfg.Directories.TempDir)
	if err != nil {
		return r.stats, err
	}
	defer func() {
		_ = lock.Unlock()
	}()

	files, err := Discover(r.cfg.Directories.TVIn, r.cfg.Directories.TVPattern)
	if err != nil {
		return r.stats, fmt.Errorf("discover recordings: %w", err)
	}
	return r.RunFiles(ctx, files), nil
}

// RunFiles processes the given recordings without discovery or locking.
func (r *Runner) RunFiles(ctx context.Context, files []string) RunStats {
	r.stats.Total = len(files)
	r.log.Infow("Starting batch",
		"recordings", len(files),
		"input", r.cfg.Directories.TVIn,
		"output", r.cfg.Directories.OutDir,
	)

	for i, path := range files {
		if ctx.Err() != nil {
			r.log.Warnw("Interrupted", "remaining", len(files)-i)
			break
		}
		r.ProcessFile(ctx, path)
	}

	r.log.Infow("Batch finished", "summary", r.stats.Summary())
	return r.stats
}

// Stats returns the counters of the current run.
func (r *Runner) Stats() RunStats {
	return r.stats
}

// ProcessFile runs every step for one recording and reports success.
func (r *Runner) ProcessFile(ctx context.Context, path string) bool {
	log := r.log.With("file", filepath.Base(path))

	result, err := r.process(ctx, path, log)
	switch result {
	case outcomeProcessed:
		r.stats.Processed++
	case outcomeSkipped:
		r.stats.Skipped++
	case outcomeUnresolved:
		r.stats.Unresolved++
		log.Warnw("Episode unresolved, skipping", "reason", err)
	case outcomeFailed:
		r.stats.Failed++
		log.Errorw("Processing failed", "path", path, "error", err)
	}
	return result == outcomeProcessed
}

func (r *Runner) process(ctx context.Context, path string, log *logging.Logger) (outcome, error) {
	dirs := r.cfg.Directories

	info, err := os.Stat(path)
	if err != nil {
		return outcomeFailed, fmt.Errorf("stat recording: %w", err)
	}
	minAge := time.Duration(dirs.MinAgeMinutes) * time.Minute
	if !Settled(info, minAge, r.deps.Now()) {
		log.Debugw("Recording modified recently, skipping", "modified", info.ModTime())
		return outcomeSkipped, nil
	}

	side := r.ensureSideFiles(ctx, path, log)
	if !exists(side.Commercials) || !exists(side.Subtitles) {
		log.Warnw("No commercial or subtitle file, skipping",
			"commercials", side.Commercials,
			"subtitles", side.Subtitles,
		)
		return outcomeSkipped, nil
	}

	log.Infow("Processing", "path", path)

	meta, err := wtv.DecodeFile(path)
	if err != nil {
		return outcomeFailed, fmt.Errorf("read metadata: %w", err)
	}
	rec := episode.NewRecording(meta, path, wtv.AirDateResolver{})

	identity, err := r.deps.Resolver.Resolve(ctx, rec)
	if err != nil {
		if errors.Is(err, episode.ErrUnresolved) {
			return outcomeUnresolved, err
		}
		return outcomeFailed, fmt.Errorf("identify episode: %w", err)
	}
	log.Infow("Identified episode",
		"series", identity.Series,
		"episode", identity.Episode.Code(),
		"name", identity.Name,
		"source", identity.Source,
	)

	markers, err := commercial.LoadFile(side.Commercials)
	if err != nil {
		return outcomeFailed, err
	}
	keep, err := commercial.InvertStrict(markers)
	if err != nil {
		return outcomeFailed, fmt.Errorf("commercial markers: %w", err)
	}

	fields := naming.Fields{
		Series:       identity.Series,
		Season:       identity.Season,
		Episode:      identity.Number,
		EpisodeName:  identity.Name,
		OrigBasename: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	subs, err := subtitle.Open(side.Subtitles)
	if err != nil {
		return outcomeFailed, fmt.Errorf("open subtitles: %w", err)
	}
	fields.Ext = naming.SubtitleLang + subtitle.GetExtensionForFormat(subs.Format())
	outSubtitles, err := r.deps.Template.Path(dirs.OutDir, fields)
	if err != nil {
		return outcomeFailed, err
	}
	if err := subs.Replace(subtitle.Retime(subs.Subtitle().Entries, keep)); err != nil {
		return outcomeFailed, fmt.Errorf("retime subtitles: %w", err)
	}

	fields.Ext = naming.VideoExt
	outVideo, err := r.deps.Template.Path(dirs.OutDir, fields)
	if err != nil {
		return outcomeFailed, err
	}

	plan, err := segment.Build(keep, path, dirs.TempDir, outVideo, r.encodeOptions())
	if err != nil {
		return outcomeFailed, fmt.Errorf("plan segments: %w", err)
	}
	log.Infow("Cutting commercials",
		"commercials", len(markers),
		"segments", len(plan.Entries),
		"output", outVideo,
	)

	start := time.Now()
	if err := r.deps.Executor.Execute(ctx, plan); err != nil {
		return outcomeFailed, err
	}

	// nothing reaches the library unless video and subtitles both do
	if err := r.validate(ctx, path, outVideo, keep, log); err != nil {
		removeOutput(outVideo, log)
		return outcomeFailed, err
	}
	if err := subtitle.Save(subs, outSubtitles); err != nil {
		removeOutput(outVideo, log)
		removeOutput(outSubtitles, log)
		return outcomeFailed, fmt.Errorf("write subtitles: %w", err)
	}

	r.stats.InputBytes += info.Size()
	if outInfo, err := os.Stat(outVideo); err == nil {
		r.stats.OutputBytes += outInfo.Size()
	}

	r.cleanup(ctx, rec.Filename, path, side, log)
	log.Infow("Completed", "output", outVideo, "subtitles", outSubtitles, "elapsed", time.Since(start).Round(time.Second))
	return outcomeProcessed, nil
}

func removeOutput(path string, log *logging.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnw("Failed to remove partial output", "path", path, "error", err)
	}
}

// runs comskip / ccextractor for side files that are missing and enabled
func (r *Runner) ensureSideFiles(ctx context.Context, path string, log *logging.Logger) video.SideFiles {
	dirs := r.cfg.Directories
	side := video.Locate(path, dirs.CommercialIn, dirs.SRTIn)

	if !exists(side.Commercials) && r.cfg.Comskip.RunIfMissing && r.deps.Processor != nil {
		log.Debugw("No commercial file, running comskip", "expected", side.Commercials)
		if err := r.deps.Processor.DetectCommercials(ctx, path, dirs.CommercialIn); err != nil {
			log.Warnw("comskip failed", "error", err)
		}
	}
	if !exists(side.Subtitles) && r.cfg.CCExtractor.RunIfMissing && r.deps.Processor != nil {
		log.Debugw("No subtitle file, running ccextractor", "expected", side.Subtitles)
		if err := r.deps.Processor.ExtractSubtitles(ctx, path, side.Subtitles); err != nil {
			log.Warnw("ccextractor failed", "error", err)
		}
	}
	return side
}

// the output must be readable by ffprobe; its duration is logged next to
// the expected kept duration
func (r *Runner) validate(
	ctx context.Context,
	source, output string,
	keep []commercial.Range,
	log *logging.Logger,
) error {
	if r.deps.Prober == nil {
		return nil
	}

	got, err := r.deps.Prober(ctx, output)
	if err != nil {
		return fmt.Errorf("validate output: %w", err)
	}

	var total float64
	if d, err := r.deps.Prober(ctx, source); err == nil {
		total = d.Seconds()
	} else {
		log.Debugw("Source duration unavailable", "error", err)
	}
	expected := time.Duration(commercial.KeptDuration(keep, total) * float64(time.Second))
	if total > 0 {
		r.stats.Removed += time.Duration(total*float64(time.Second)) - expected
	}

	log.Infow("Output duration",
		"actual", got.Round(time.Second),
		"expected", expected.Round(time.Second),
	)
	return nil
}

func (r *Runner) cleanup(
	ctx context.Context,
	filename, path string,
	side video.SideFiles,
	log *logging.Logger,
) {
	if r.deps.Forgetter != nil {
		if err := r.deps.Forgetter.Forget(ctx, filename); err != nil {
			log.Warnw("Failed to clear stored candidates", "error", err)
		}
	}

	if r.cfg.Main.Debug || !r.cfg.Directories.DeleteSourceFiles {
		return
	}
	for _, f := range []string{path, side.Commercials, side.Subtitles} {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			log.Warnw("Failed to delete source file", "path", f, "error", err)
		}
	}
}

func (r *Runner) encodeOptions() ffmpeg.EncodeOptions {
	return ffmpeg.EncodeOptions{
		VideoCodec: r.cfg.FFmpeg.VideoCodec,
		Preset:     r.cfg.FFmpeg.Preset,
		CRF:        r.cfg.FFmpeg.CRF,
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
