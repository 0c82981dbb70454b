package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/comcut/internal/config"
	"github.com/mgpai22/comcut/internal/logging"
)

var (
	configPath string
	verbose    bool
	debug      bool
	logger     *logging.Logger
	cfg        *config.Config
)

// commands annotated with skipConfig run without loading the config file
const skipConfig = "skip-config"

var rootCmd = &cobra.Command{
	Use:   "comcut",
	Short: "Cut commercials out of Windows Media Center recordings",
	Long: `Comcut turns .wtv recordings into commercial-free mp4 files.

It reads the recording's metadata, identifies the episode on TVDB,
inverts the comskip commercial list into keep ranges, retimes the
closed-caption subtitles and drives ffmpeg to cut and join the segments.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfig] != "" {
			logger = logging.NewLogger(verbose)
			return nil
		}

		loaded, resolved, exists, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if debug {
			loaded.Main.Debug = true
		}
		cfg = loaded

		logger, err = logging.New(logging.Options{
			Verbose: verbose || cfg.Main.Debug,
			File:    cfg.Main.LogFile,
		})
		if err != nil {
			return err
		}
		logger.Debugw("Configuration loaded", "path", resolved, "exists", exists)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	},
}

// Execute runs the root command, cancelling on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// post-run hooks are skipped when a command fails
	defer func() {
		if logger != nil {
			_ = logger.Close()
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file (default ~/.config/comcut/config.toml)")
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVar(&debug, "debug", false, "Keep temp files and source files (overrides main.debug)")
}
