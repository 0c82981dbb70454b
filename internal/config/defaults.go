package config

const (
	defaultTVPattern       = "*.wtv"
	defaultTempDir         = "~/.cache/comcut/tmp"
	defaultOutPattern      = "${series}/Season ${season}/${orig_basename} - ${series} - s${season_padded}e${episode_padded} - ${episode_name}.${ext}"
	defaultMinAgeMinutes   = 5
	defaultVideoCodec      = "libx264"
	defaultPreset          = "veryfast"
	defaultCRF             = 20
	defaultNiceExecutable  = "nice"
	defaultTVDBBaseURL     = "https://api.thetvdb.com"
	defaultTVDBLanguage    = "en"
	defaultTVDBTimeout     = 30
	defaultSeriesCache     = "~/.cache/comcut/series.json"
	defaultMinConfidence   = 0.8
	defaultDatabaseFile    = "~/.local/share/comcut/comcut.db"
	defaultGeminiModel     = "gemini-2.5-flash"
	defaultOpenAIModel     = "gpt-5-mini"
	defaultAnthropicModel  = "claude-haiku-4-5"
	defaultComskipBinary   = "comskip"
	defaultCCExtractorName = "ccextractor"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Directories: Directories{
			TVPattern:         defaultTVPattern,
			TempDir:           defaultTempDir,
			OutPattern:        defaultOutPattern,
			DeleteSourceFiles: true,
			MinAgeMinutes:     defaultMinAgeMinutes,
		},
		FFmpeg: FFmpeg{
			VideoCodec: defaultVideoCodec,
			Preset:     defaultPreset,
			CRF:        defaultCRF,
		},
		Nice: Nice{
			Executable: defaultNiceExecutable,
		},
		Comskip: Comskip{
			Executable: defaultComskipBinary,
		},
		CCExtractor: CCExtractor{
			Executable: defaultCCExtractorName,
		},
		TVDB: TVDB{
			BaseURL:     defaultTVDBBaseURL,
			SeriesCache: defaultSeriesCache,
			Language:    defaultTVDBLanguage,
			TimeoutSecs: defaultTVDBTimeout,
		},
		Disambiguation: Disambiguation{
			MinConfidence: defaultMinConfidence,
		},
		Main: Main{
			DatabaseFile: defaultDatabaseFile,
		},
	}
}
