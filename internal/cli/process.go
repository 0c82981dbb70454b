package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/comcut/internal/config"
	"github.com/mgpai22/comcut/internal/episode"
	"github.com/mgpai22/comcut/internal/ffmpeg"
	"github.com/mgpai22/comcut/internal/naming"
	"github.com/mgpai22/comcut/internal/pipeline"
	"github.com/mgpai22/comcut/internal/transcode"
	"github.com/mgpai22/comcut/internal/video"
)

var processCmd = &cobra.Command{
	Use:   "process [recording...]",
	Short: "Cut commercials from recordings",
	Long: `Process every settled recording in directories.tv_in, or only the
recordings given as arguments.

Each recording needs a comskip XML in directories.commercial_in and an
SRT in directories.srt_in; comskip and ccextractor run first when enabled.
Recordings whose episode cannot be identified are left in place and can
be resolved with 'comcut resolve'.

Examples:
  comcut process
  comcut process --debug ~/Recorded\ TV/Show_WXYZ_2020_01_02_20_00_00.wtv`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := cfg.ValidateBatch(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runner, closeStore, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var stats pipeline.RunStats
	if len(args) == 0 {
		stats, err = runner.Run(ctx)
		if err != nil {
			return err
		}
	} else {
		lock, err := pipeline.AcquireLock(cfg.Directories.TempDir)
		if err != nil {
			return err
		}
		defer func() {
			_ = lock.Unlock()
		}()

		files := make([]string, 0, len(args))
		for _, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			files = append(files, abs)
		}
		stats = runner.RunFiles(ctx, files)
	}

	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d recordings failed", stats.Failed, stats.Total)
	}
	return ctx.Err()
}

// wires the pipeline from configuration; the returned func closes the store
func newPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Runner, func(), error) {
	bins, err := ffmpeg.Locate(cfg.FFmpeg.Executable, cfg.FFmpeg.FFprobe)
	if err != nil {
		return nil, nil, err
	}
	logger.Debugw("Using ffmpeg", "ffmpeg", bins.FFmpeg, "ffprobe", bins.FFprobe)

	tmpl, err := naming.New(cfg.Directories.OutPattern)
	if err != nil {
		return nil, nil, err
	}

	tvdb, err := episode.NewClient(episode.TVDBSettings{
		APIKey:      cfg.TVDB.APIKey,
		Username:    cfg.TVDB.Username,
		UserKey:     cfg.TVDB.UserKey,
		BaseURL:     cfg.TVDB.BaseURL,
		Language:    cfg.TVDB.Language,
		SeriesCache: cfg.TVDB.SeriesCache,
		Timeout:     time.Duration(cfg.TVDB.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}

	var picker episode.Picker
	if cfg.Disambiguation.Provider != "" {
		picker, err = episode.NewPicker(
			ctx,
			episode.Provider(cfg.Disambiguation.Provider),
			cfg.Disambiguation.APIKey,
			episode.PickerOptions{Model: cfg.Disambiguation.Model},
		)
		if err != nil {
			return nil, nil, err
		}
	}

	store, err := episode.OpenStore(ctx, cfg.Main.DatabaseFile)
	if err != nil {
		return nil, nil, err
	}

	exec := transcode.NewExecRunner(cfg.NiceExecutable(), logger)
	deps := pipeline.Deps{
		Resolver: episode.NewService(
			tvdb,
			store,
			picker,
			cfg.Disambiguation.MinConfidence,
			logger.Named("episode"),
		),
		Forgetter: store,
		Processor: video.NewProcessor(exec, video.Options{
			Comskip:     cfg.Comskip.Executable,
			ComskipINI:  cfg.Comskip.INI,
			CCExtractor: cfg.CCExtractor.Executable,
		}),
		Executor: &transcode.Driver{
			Runner: exec,
			FFmpeg: bins.FFmpeg,
			Debug:  cfg.Main.Debug,
			Log:    logger.Named("transcode"),
		},
		Prober: func(ctx context.Context, path string) (time.Duration, error) {
			return ffmpeg.Duration(ctx, bins.FFprobe, path)
		},
		Template: tmpl,
	}

	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warnw("Failed to close database", "error", err)
		}
	}
	return pipeline.NewRunner(cfg, deps, logger), closeStore, nil
}
