package config

const (
	defaultLogDir           = "~/.local/share/vpipe/logs"
	defaultCacheDir         = "~/.local/share/vpipe/cache"
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultHandBrakeBinary  = "HandBrakeCLI"
	defaultWhisperBinary    = "whisper"
	defaultToolTimeout      = 0 // unbounded; heavy encodes can run for hours
	defaultWhisperModel     = "medium"
	defaultSampleSeconds    = 30
	defaultSampleCount      = 3
	defaultLongTrackSeconds = 600
	defaultTranslationMode  = "local"
	defaultLocalTranslator  = "opus-mt"
	defaultGoogleEndpoint   = "https://translate.googleapis.com/translate_a/single"
	defaultTranslateTimeout = 120
	defaultWorkers          = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
		},
		Log: Log{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Tools: Tools{
			FFmpeg:         defaultFFmpegBinary,
			FFprobe:        defaultFFprobeBinary,
			HandBrake:      defaultHandBrakeBinary,
			Whisper:        defaultWhisperBinary,
			TimeoutSeconds: defaultToolTimeout,
		},
		Whisper: Whisper{
			Model:            defaultWhisperModel,
			SampleSeconds:    defaultSampleSeconds,
			SampleCount:      defaultSampleCount,
			LongTrackSeconds: defaultLongTrackSeconds,
		},
		Translation: Translation{
			Mode:           defaultTranslationMode,
			LocalCommand:   defaultLocalTranslator,
			GoogleEndpoint: defaultGoogleEndpoint,
			TimeoutSeconds: defaultTranslateTimeout,
		},
		Merge: Merge{
			TargetLanguages: []string{"eng"},
			DataLanguages:   []string{"spa", "glg"},
		},
		Pipeline: Pipeline{
			Workers:        defaultWorkers,
			DetectionCache: true,
		},
	}
}
