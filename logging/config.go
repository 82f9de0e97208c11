package logging

// Config defines the logging section of todoparty.yml.
type Config struct {
	// Level is the minimum log level to output (e.g., "debug", "info", "warn", "error").
	// Can be overridden by the TODO_LOG_LEVEL environment variable.
	Level string `yaml:"level"`

	// ReportCaller, if true, includes the file, line, and function name in the log output.
	ReportCaller bool `yaml:"report_caller"`

	// Format is "text" (default) or "json".
	Format string `yaml:"format"`

	// File, when set, receives every log line in addition to stderr.
	File string `yaml:"file"`

	// Stderr controls when logs are sent to stderr.
	// Can be "auto" (default), "always", or "never".
	Stderr string `yaml:"stderr"`
}
