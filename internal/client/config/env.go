package config

import "github.com/kelseyhightower/envconfig"

// EnvPrefix prefixes every environment variable, e.g. REGKEEPER_DSN.
const EnvPrefix = "REGKEEPER"

// parseEnv overlays cfg with REGKEEPER_* variables. Unset variables leave the
// field untouched. Malformed values panic, like malformed flags do.
func parseEnv(cfg *Config) {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		panic(err)
	}
}
