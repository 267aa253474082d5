package logger

// Console configures logging to stdout/stderr.
type Console struct {
	Enabled bool `mapstructure:"enabled"`
	// Pretty switches from JSON lines to zerolog's human readable ConsoleWriter.
	Pretty bool `mapstructure:"pretty"`
}

// LogFile configures rolling log files, split by level.
type LogFile struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`

	InfoLog  string `mapstructure:"info"`
	WarnLog  string `mapstructure:"warn"`
	ErrorLog string `mapstructure:"error"`
	TraceLog string `mapstructure:"trace"`

	MaxSize    int  `mapstructure:"max_size"` // megabytes
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"` // days
	Compress   bool `mapstructure:"compress"`
}

// Log implements the logger config.
type Log struct {
	LogLevel     string `mapstructure:"level"` // trace, debug, info, warn, error.
	ReportCaller bool   `mapstructure:"report_caller"`

	AppName     string `mapstructure:"app_name"`
	ServiceName string `mapstructure:"service_name"`

	Console Console `mapstructure:"console"`
	File    LogFile `mapstructure:"file"`
}
