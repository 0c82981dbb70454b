package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable by every command.
func (c *Config) Validate() error {
	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return fmt.Errorf("ffmpeg.crf must be between 0 and 51, got %d", c.FFmpeg.CRF)
	}
	if !strings.Contains(c.Directories.OutPattern, "${ext}") {
		return errors.New("directories.out_pattern must contain ${ext}")
	}
	switch c.Disambiguation.Provider {
	case "", "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("disambiguation.provider must be gemini, openai or anthropic, got %q", c.Disambiguation.Provider)
	}
	if c.Disambiguation.MinConfidence < 0 || c.Disambiguation.MinConfidence > 1 {
		return errors.New("disambiguation.min_confidence must be between 0 and 1")
	}
	return nil
}

// ValidateBatch checks the settings the process command needs on top of
// Validate.
func (c *Config) ValidateBatch() error {
	d := c.Directories
	required := []struct {
		name, value string
	}{
		{"directories.tv_in", d.TVIn},
		{"directories.temp_dir", d.TempDir},
		{"directories.out_dir", d.OutDir},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s must be set", r.name)
		}
	}

	if d.TempDir == d.TVIn || d.TempDir == d.OutDir {
		return errors.New("directories.temp_dir must differ from tv_in and out_dir")
	}

	if c.TVDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/comcut/config.toml"
		}
		return fmt.Errorf("tvdb.api_key is required. Set TVDB_API_KEY env var or edit %s (create with 'comcut config init')", defaultPath)
	}

	if c.Disambiguation.Provider != "" && c.Disambiguation.APIKey == "" {
		return fmt.Errorf("disambiguation.api_key is required for provider %s", c.Disambiguation.Provider)
	}
	return nil
}
