package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile  = flag.String("log-file", "", "Write logs to a rotating file")
	flagFormat   = flag.String("format", "", "Output format: text or yaml")
	flagLimit    = flag.Int("limit", -1, "Max records per dump (0 for all)")
	flagEncoding = flag.String("encoding", "", "Texture name encoding")
)

// ParseFlags parses command-line flags. Call this early in main().
// Flags must come before the command name.
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
	if *flagLimit >= 0 {
		cfg.Output.Limit = *flagLimit
	}
	if *flagEncoding != "" {
		cfg.Names.Encoding = *flagEncoding
	}
}
