package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Directories locates recordings, their side files and the outputs.
type Directories struct {
	TVIn              string `toml:"tv_in"`
	TVPattern         string `toml:"tv_pattern"`
	CommercialIn      string `toml:"commercial_in"`
	SRTIn             string `toml:"srt_in"`
	TempDir           string `toml:"temp_dir"`
	OutDir            string `toml:"out_dir"`
	OutPattern        string `toml:"out_pattern"`
	DeleteSourceFiles bool   `toml:"delete_source_files"`
	MinAgeMinutes     int    `toml:"min_age_minutes"`
}

// FFmpeg holds transcoder locations and the per-segment encode settings.
type FFmpeg struct {
	Executable string `toml:"executable"`
	FFprobe    string `toml:"ffprobe"`
	VideoCodec string `toml:"video_codec"`
	Preset     string `toml:"preset"`
	CRF        int    `toml:"crf"`
}

// Nice wraps every external command with nice when enabled.
type Nice struct {
	Enabled    bool   `toml:"enabled"`
	Executable string `toml:"executable"`
}

// Comskip produces the commercial XML for recordings that lack one.
type Comskip struct {
	RunIfMissing bool   `toml:"run_if_missing"`
	Executable   string `toml:"executable"`
	INI          string `toml:"ini"`
}

// CCExtractor produces the SRT for recordings that lack one.
type CCExtractor struct {
	RunIfMissing bool   `toml:"run_if_missing"`
	Executable   string `toml:"executable"`
}

// TVDB contains credentials for the episode lookup service.
type TVDB struct {
	APIKey      string `toml:"api_key"`
	Username    string `toml:"username"`
	UserKey     string `toml:"user_key"`
	BaseURL     string `toml:"base_url"`
	SeriesCache string `toml:"series_cache"`
	Language    string `toml:"language"`
	TimeoutSecs int    `toml:"timeout_seconds"`
}

// Disambiguation configures the optional LLM that picks between several
// candidate episodes before falling back to manual resolution.
type Disambiguation struct {
	Provider      string  `toml:"provider"` // "", gemini, openai or anthropic
	Model         string  `toml:"model"`
	APIKey        string  `toml:"api_key"`
	MinConfidence float64 `toml:"min_confidence"`
}

// Main holds run-wide switches.
type Main struct {
	Debug        bool   `toml:"debug"`
	DatabaseFile string `toml:"database_file"`
	LogFile      string `toml:"log_file"`
}

// Config encapsulates all configuration values for comcut.
type Config struct {
	Directories    Directories    `toml:"directories"`
	FFmpeg         FFmpeg         `toml:"ffmpeg"`
	Nice           Nice           `toml:"nice"`
	Comskip        Comskip        `toml:"comskip"`
	CCExtractor    CCExtractor    `toml:"ccextractor"`
	TVDB           TVDB           `toml:"tvdb"`
	Disambiguation Disambiguation `toml:"disambiguation"`
	Main           Main           `toml:"main"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/comcut/config.toml")
}

// Load locates, parses and normalizes a configuration file. A missing file
// yields the defaults. The resolved path and whether it existed are returned
// alongside.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer func() {
			_ = file.Close()
		}()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("comcut.toml")
	if err != nil {
		return "", false, err
	}

	for _, candidate := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working directories a batch run writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Directories.TempDir, c.Directories.OutDir}
	if c.Comskip.RunIfMissing {
		dirs = append(dirs, c.Directories.CommercialIn)
	}
	if c.CCExtractor.RunIfMissing {
		dirs = append(dirs, c.Directories.SRTIn)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// NiceExecutable returns the nice wrapper, or "" when disabled.
func (c *Config) NiceExecutable() string {
	if !c.Nice.Enabled {
		return ""
	}
	return c.Nice.Executable
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes the sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
