package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

// ErrorLogFormat defines the formatting string for error log messages.
const ErrorLogFormat = "Error: %v"

// ConfigFileName is the name of the optional configuration file read from the working directory.
const ConfigFileName = ".engineci.yaml"

// LoggerInitializationFailedMessageFormat reports a logger construction failure.
const LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"

// UnsupportedLogLevelMessageFormat reports an unknown --log-level value.
const UnsupportedLogLevelMessageFormat = "unsupported log level %q"

// GitExecutableName is the name of the git binary looked up on PATH.
const GitExecutableName = "git"

// VersionTemplate formats the --version output with the tool name and version.
const VersionTemplate = "%s version: %s\n"
