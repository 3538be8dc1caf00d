package config

const (
	LogLevelDebug   string = "debug"
	LogLevelInfo    string = "info"
	LogLevelWarning string = "warn"
	LogLevelError   string = "error"

	LogFilePath string = "zoneraid/log/log_output.txt"
)

const (
	// MetaZones is the count of logical zones reserved at the front of the
	// device for the enclosing filesystem's superblock. They are fixed to
	// RaidMode None and mapped 1:1 to the same zone index on every child
	// device; the allocator never reassigns them.
	MetaZones = 2

	// Version is reported by the CLI's `version` subcommand.
	Version = "0.1.0"
)
