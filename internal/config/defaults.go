package config

const (
	defaultStateDir       = "~/.local/share/plexmaint"
	defaultLogDir         = "~/.local/share/plexmaint/logs"
	defaultDownloadDir    = "./downloads"
	defaultHost           = "192.168.1.20"
	defaultPort           = 32400
	defaultAccountURL     = "https://plex.tv"
	defaultRequestTimeout = 10
	defaultProduct        = "plexmaint"
	defaultChunkSize      = 256 * 1024
	defaultExtension      = ".mp4"
	defaultLogFormat      = "console"
	defaultLogLevel       = "warn"

	credentialsFileName = "plex_config.json"
	jobDBFileName       = "jobs.db"
	logFileName         = "plexmaint.log"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
			DownloadDir: defaultDownloadDir,
		},
		Plex: Plex{
			DefaultHost:    defaultHost,
			DefaultPort:    defaultPort,
			AccountURL:     defaultAccountURL,
			RequestTimeout: defaultRequestTimeout,
			Product:        defaultProduct,
		},
		Download: Download{
			ChunkSize: defaultChunkSize,
			Extension: defaultExtension,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
