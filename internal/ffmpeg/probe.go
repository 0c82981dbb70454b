package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Duration asks ffprobe for the container duration of path.
func Duration(ctx context.Context, ffprobePath, path string) (time.Duration, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("file not found: %s", path)
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return ParseDuration(stdout.Bytes())
}

// ParseDuration reads format.duration from ffprobe JSON output.
func ParseDuration(probe []byte) (time.Duration, error) {
	if !gjson.ValidBytes(probe) {
		return 0, fmt.Errorf("failed to parse ffprobe output: invalid json")
	}

	field := gjson.GetBytes(probe, "format.duration")
	if !field.Exists() {
		return 0, fmt.Errorf("ffprobe output has no format.duration")
	}

	seconds := field.Float()
	if seconds <= 0 {
		return 0, fmt.Errorf("invalid duration %q", field.String())
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
