package config

const (
	defaultLogFile           = "inkdesk.log"
	defaultLogLevel          = "info"
	defaultLogFileMaxSize    = 20
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 28
	defaultLogCompress       = false
	defaultPort              = 8321
	defaultHost              = "127.0.0.1"
	defaultData              = "/var/opt/inkdesk"
	defaultAPIBaseURL        = "https://catalogue.inkdesk.app"
	defaultDownloadTimeout   = 30
)

var Opts *Options

// Why use mapstructure instead of json, if use json as field tags, it can't recgnize the field, since the viper use mapstructure.
// see: https://pkg.go.dev/github.com/mitchellh/mapstructure#hdr-Field_Tags
type Options struct {
	// LogFile is the file to write logs to
	LogFile string `mapstructure:"log_file"`
	// LogLevel is the level of logging to show
	LogLevel string `mapstructure:"log_level"`
	// LogFileMaxSize is the maximum size of the log file before it is rotated
	LogFileMaxSize int `mapstructure:"log_file_max_size"`
	// LogFileMaxBackups is the maximum number of log files to keep
	LogFileMaxBackups int `mapstructure:"log_file_max_backups"`
	// LogFileMaxAge is the maximum number of days to keep a log file
	LogFileMaxAge int `mapstructure:"log_file_max_age"`
	// LogCompress is whether or not to compress the log files
	LogCompress bool `mapstructure:"log_compress"`
	// DSN is the path of the catalogue database (sqlite)
	DSN string `mapstructure:"dsn_uri"`
	// Port is the port the local API listens on
	Port int `mapstructure:"port"`
	// Host is the host the local API listens on
	Host string `mapstructure:"host"`
	// Data is the directory to store the database and downloaded images
	Data string `mapstructure:"data"`
	// APIBaseURL is the origin of the remote catalogue service
	APIBaseURL string `mapstructure:"api_base_url"`
	// DownloadTimeout bounds a single image download, in seconds
	DownloadTimeout int `mapstructure:"download_timeout"`
}

func GetDefaultOptions() *Options {
	Opts = &Options{
		LogFile:           defaultLogFile,
		LogLevel:          defaultLogLevel,
		LogFileMaxSize:    defaultLogFileMaxSize,
		LogFileMaxBackups: defaultLogFileMaxBackups,
		LogFileMaxAge:     defaultLogFileMaxAge,
		LogCompress:       defaultLogCompress,
		DSN:               defaultData + "/inkdesk.db",
		Port:              defaultPort,
		Host:              defaultHost,
		Data:              defaultData,
		APIBaseURL:        defaultAPIBaseURL,
		DownloadTimeout:   defaultDownloadTimeout,
	}
	return Opts
}
