package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

const (
	FFmpegPathEnv  = "COMCUT_FFMPEG_PATH"
	FFprobePathEnv = "COMCUT_FFPROBE_PATH"
)

var ErrNotFound = errors.New("executable not found")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Locate resolves ffmpeg and ffprobe. Each binary is taken from the
// configured path when set, then the environment override, then PATH.
func Locate(ffmpegPath, ffprobePath string) (BinaryPaths, error) {
	var paths BinaryPaths
	var err error

	if paths.FFmpeg, err = Executable("ffmpeg", ffmpegPath, FFmpegPathEnv); err != nil {
		return BinaryPaths{}, err
	}
	if paths.FFprobe, err = Executable("ffprobe", ffprobePath, FFprobePathEnv); err != nil {
		return BinaryPaths{}, err
	}
	return paths, nil
}

// Executable resolves one external tool: configured, then $env (when env is
// not empty), then a PATH lookup of name. Explicit paths must exist.
func Executable(name, configured, env string) (string, error) {
	if configured != "" {
		return checkFile(name, configured)
	}
	if env != "" {
		if p := os.Getenv(env); p != "" {
			return checkFile(name, p)
		}
	}

	found, err := exec.LookPath(name + executableSuffix())
	if err != nil {
		return "", fmt.Errorf("%s: %w in PATH", name, ErrNotFound)
	}
	return found, nil
}

func checkFile(name, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w at %s", name, ErrNotFound, path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: %s is a directory", name, path)
	}
	return path, nil
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
