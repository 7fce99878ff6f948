package config

const (
	defaultWorkDir       = "~/.local/share/turntable/work"
	defaultOutputDir     = "~/videos/turntable"
	defaultLogDir        = "~/.local/share/turntable/logs"
	defaultChannelName   = "Turntable Review"
	defaultDateFormat    = "January 2, 2006"
	defaultRenderProfile = "quality"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Branding: Branding{
			ChannelName: defaultChannelName,
			DateFormat:  defaultDateFormat,
		},
		Render: Render{
			DefaultProfile: defaultRenderProfile,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
