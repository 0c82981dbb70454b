package transcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mgpai22/comcut/internal/logging"
	"github.com/mgpai22/comcut/internal/segment"
)

// Driver executes a segment plan: one ffmpeg encode per entry, then a
// stream-copy concat into the plan's output path.
type Driver struct {
	Runner Runner
	FFmpeg string
	// Debug keeps temp segments and the manifest after the run.
	Debug bool
	Log   *logging.Logger
}

// Execute runs the plan. The first failing encode aborts the remaining
// steps. A pre-existing output is removed only once every segment encoded,
// and a failed concat leaves nothing at the output path.
func (d *Driver) Execute(ctx context.Context, plan *segment.Plan) error {
	log := d.Log
	if log == nil {
		log = logging.Nop()
	}
	defer d.cleanup(plan, log)

	for i, e := range plan.Entries {
		log.Debugw("Encoding segment",
			"index", e.Index,
			"range", e.Range.String(),
			"temp", e.TempPath,
		)
		argv := append([]string{d.FFmpeg}, plan.EncodeArgs(i)...)
		if err := Check(ctx, d.Runner, fmt.Sprintf("encode segment %d", e.Index), argv); err != nil {
			return err
		}
	}

	if err := os.Remove(plan.OutputPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing output: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(plan.OutputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	log.Debugw("Joining segments",
		"segments", len(plan.Entries),
		"output", plan.OutputPath,
	)
	argv := append([]string{d.FFmpeg}, plan.ConcatArgs()...)
	if err := Check(ctx, d.Runner, "concat", argv); err != nil {
		if rmErr := os.Remove(plan.OutputPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warnw("Failed to remove partial output",
				"path", plan.OutputPath,
				"error", rmErr,
			)
		}
		return err
	}

	if _, err := os.Stat(plan.OutputPath); err != nil {
		return fmt.Errorf("concat produced no output: %w", err)
	}

	return nil
}

func (d *Driver) cleanup(plan *segment.Plan, log *logging.Logger) {
	if d.Debug {
		log.Infow("Debug mode, keeping temp files", "manifest", plan.ManifestPath)
		return
	}
	for _, path := range plan.TempFiles() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warnw("Failed to remove temp file", "path", path, "error", err)
		}
	}
}
