package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeDirectories(); err != nil {
		return err
	}
	if err := c.normalizeExecutables(); err != nil {
		return err
	}
	c.normalizeTVDB()
	c.normalizeDisambiguation()
	return c.normalizeMain()
}

func (c *Config) normalizeDirectories() error {
	d := &c.Directories
	fields := []struct {
		name  string
		value *string
	}{
		{"directories.tv_in", &d.TVIn},
		{"directories.commercial_in", &d.CommercialIn},
		{"directories.srt_in", &d.SRTIn},
		{"directories.temp_dir", &d.TempDir},
		{"directories.out_dir", &d.OutDir},
	}
	for _, f := range fields {
		expanded, err := expandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}

	// side files live next to the recordings unless configured otherwise
	if d.CommercialIn == "" {
		d.CommercialIn = d.TVIn
	}
	if d.SRTIn == "" {
		d.SRTIn = d.TVIn
	}
	if strings.TrimSpace(d.TVPattern) == "" {
		d.TVPattern = defaultTVPattern
	}
	if strings.TrimSpace(d.OutPattern) == "" {
		d.OutPattern = defaultOutPattern
	}
	if d.MinAgeMinutes < 0 {
		d.MinAgeMinutes = 0
	}
	return nil
}

// executables may be bare names resolved through PATH; only values that look
// like paths are expanded
func (c *Config) normalizeExecutables() error {
	values := []struct {
		name  string
		value *string
	}{
		{"ffmpeg.executable", &c.FFmpeg.Executable},
		{"ffmpeg.ffprobe", &c.FFmpeg.FFprobe},
		{"nice.executable", &c.Nice.Executable},
		{"comskip.executable", &c.Comskip.Executable},
		{"comskip.ini", &c.Comskip.INI},
		{"ccextractor.executable", &c.CCExtractor.Executable},
	}
	for _, v := range values {
		trimmed := strings.TrimSpace(*v.value)
		if strings.ContainsAny(trimmed, `/\`) || strings.HasPrefix(trimmed, "~") {
			expanded, err := expandPath(trimmed)
			if err != nil {
				return fmt.Errorf("%s: %w", v.name, err)
			}
			trimmed = expanded
		}
		*v.value = trimmed
	}

	if c.Nice.Executable == "" {
		c.Nice.Executable = defaultNiceExecutable
	}
	if c.Comskip.Executable == "" {
		c.Comskip.Executable = defaultComskipBinary
	}
	if c.CCExtractor.Executable == "" {
		c.CCExtractor.Executable = defaultCCExtractorName
	}
	c.FFmpeg.VideoCodec = strings.TrimSpace(c.FFmpeg.VideoCodec)
	if c.FFmpeg.VideoCodec == "" {
		c.FFmpeg.VideoCodec = defaultVideoCodec
	}
	c.FFmpeg.Preset = strings.TrimSpace(c.FFmpeg.Preset)
	if c.FFmpeg.Preset == "" {
		c.FFmpeg.Preset = defaultPreset
	}
	return nil
}

func (c *Config) normalizeTVDB() {
	t := &c.TVDB
	t.APIKey = strings.TrimSpace(t.APIKey)
	if t.APIKey == "" {
		if value, ok := os.LookupEnv("TVDB_API_KEY"); ok {
			t.APIKey = strings.TrimSpace(value)
		}
	}
	t.BaseURL = strings.TrimRight(strings.TrimSpace(t.BaseURL), "/")
	if t.BaseURL == "" {
		t.BaseURL = defaultTVDBBaseURL
	}
	if strings.TrimSpace(t.Language) == "" {
		t.Language = defaultTVDBLanguage
	}
	if t.TimeoutSecs <= 0 {
		t.TimeoutSecs = defaultTVDBTimeout
	}
	if t.SeriesCache == "" {
		t.SeriesCache = defaultSeriesCache
	}
}

func (c *Config) normalizeDisambiguation() {
	d := &c.Disambiguation
	d.Provider = strings.ToLower(strings.TrimSpace(d.Provider))
	d.Model = strings.TrimSpace(d.Model)
	d.APIKey = strings.TrimSpace(d.APIKey)

	var env, model string
	switch d.Provider {
	case "gemini":
		env, model = "GEMINI_API_KEY", defaultGeminiModel
	case "openai":
		env, model = "OPENAI_API_KEY", defaultOpenAIModel
	case "anthropic":
		env, model = "ANTHROPIC_API_KEY", defaultAnthropicModel
	default:
		return
	}
	if d.APIKey == "" {
		if value, ok := os.LookupEnv(env); ok {
			d.APIKey = strings.TrimSpace(value)
		}
	}
	if d.Model == "" {
		d.Model = model
	}
}

func (c *Config) normalizeMain() error {
	var err error
	if c.TVDB.SeriesCache, err = expandPath(c.TVDB.SeriesCache); err != nil {
		return fmt.Errorf("tvdb.series_cache: %w", err)
	}
	if c.Main.DatabaseFile == "" {
		c.Main.DatabaseFile = defaultDatabaseFile
	}
	if c.Main.DatabaseFile, err = expandPath(c.Main.DatabaseFile); err != nil {
		return fmt.Errorf("main.database_file: %w", err)
	}
	if c.Main.LogFile, err = expandPath(strings.TrimSpace(c.Main.LogFile)); err != nil {
		return fmt.Errorf("main.log_file: %w", err)
	}
	return nil
}
