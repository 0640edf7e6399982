package config

const (
	defaultWorkingDir           = "~/.local/share/clippub/work"
	defaultCredentialDir        = "~/.local/share/clippub/cookies"
	defaultSoundDir             = "~/.local/share/clippub/sounds"
	defaultLogDir               = "~/.local/share/clippub/logs"
	defaultAPIBind              = "127.0.0.1:8048"
	defaultPublishTimeout       = 600
	defaultUploadURL            = "https://www.tiktok.com/upload"
	defaultFFmpegBinary         = "ffmpeg"
	defaultMixTimeout           = 120
	defaultHistoryRetentionDays = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkingDir:    defaultWorkingDir,
			CredentialDir: defaultCredentialDir,
			SoundDir:      defaultSoundDir,
			LogDir:        defaultLogDir,
			APIBind:       defaultAPIBind,
		},
		Admission: Admission{
			Enabled: true,
		},
		Publish: Publish{
			Timeout:   defaultPublishTimeout,
			Headless:  true,
			UploadURL: defaultUploadURL,
		},
		Mixer: Mixer{
			FFmpegBinary: defaultFFmpegBinary,
			Timeout:      defaultMixTimeout,
		},
		History: History{
			RetentionDays: defaultHistoryRetentionDays,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
