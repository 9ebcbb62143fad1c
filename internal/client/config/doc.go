// Package config loads runtime configuration for the regkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. REGKEEPER_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override everything else.
//
// # JSON schema
//
//	{
//	  "lms_url": "https://lms.example.edu",
//	  "registry_url": "https://registry.example.gov",
//	  "db_driver": "sqlite",
//	  "dsn": "regkeeper.db",
//	  "store_secret": "change-me",
//	  "credentials_file": "service-accounts.json",
//	  "admin_users": ["ops@example.edu"],
//	  "refresh_interval": "30m",
//	  "refresh_lookahead": "1h",
//	  "http_timeout": "30s",
//	  "log_file": "regkeeper.log",
//	  "log_level": "info"
//	}
package config
