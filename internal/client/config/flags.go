package config

import (
	"flag"
	"os"
	"strings"

	"github.com/dmitrijs2005/regkeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-lms string                LMS base URL
//	-registry string           registry base URL
//	-db-driver string          sqlite or postgres
//	-dsn string                database DSN
//	-credentials string        service-account credentials file
//	-admins string             comma separated admin usernames
//	-refresh-interval duration auto-refresh period
//	-lookahead duration        rotate tokens expiring within this window
//	-timeout duration          HTTP client timeout
//	-log-file string           log file (empty: stderr)
//	-log-level string          debug, info, warn or error
//	-archive-bucket string     S3 bucket for accepted submissions
//
// Only these flags are read from os.Args; anything else is ignored.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.LMSURL, "lms", cfg.LMSURL, "LMS base URL")
	fs.StringVar(&cfg.RegistryURL, "registry", cfg.RegistryURL, "registry base URL")
	fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "database driver (sqlite or postgres)")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "database DSN")
	fs.StringVar(&cfg.CredentialsFile, "credentials", cfg.CredentialsFile, "service-account credentials file")
	admins := fs.String("admins", strings.Join(cfg.AdminUsers, ","), "comma separated admin usernames")
	fs.DurationVar(&cfg.RefreshInterval, "refresh-interval", cfg.RefreshInterval, "auto-refresh period")
	fs.DurationVar(&cfg.RefreshLookahead, "lookahead", cfg.RefreshLookahead, "rotate tokens expiring within this window")
	fs.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP client timeout")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.ArchiveBucket, "archive-bucket", cfg.ArchiveBucket, "S3 bucket for accepted submissions")

	if err := flagx.ParseOwn(fs, os.Args[1:]); err != nil {
		panic(err)
	}

	cfg.AdminUsers = splitList(*admins)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
