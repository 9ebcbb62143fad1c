package config

import (
	"time"
)

// Config holds runtime settings for the regkeeper CLI.
type Config struct {
	// LMSURL is the base URL of the LMS that staff sign in to.
	LMSURL string `envconfig:"LMS_URL"`
	// LMSService is the LMS web-service name tokens are requested for.
	LMSService string `envconfig:"LMS_SERVICE"`
	// RegistryURL is the base URL of the student registry API.
	RegistryURL string `envconfig:"REGISTRY_URL"`
	// PublicKeyFile overrides the built-in registry public key (PEM).
	PublicKeyFile string `envconfig:"PUBLIC_KEY_FILE"`
	// DeviceInfo is reported to the registry on every login.
	DeviceInfo string `envconfig:"DEVICE_INFO"`

	DBDriver string `envconfig:"DB_DRIVER"`
	DSN      string `envconfig:"DSN"`
	// StoreSecret, when set, seals stored tokens with a key derived from it.
	StoreSecret string `envconfig:"STORE_SECRET"`

	CredentialsFile string   `envconfig:"CREDENTIALS_FILE"`
	AdminUsers      []string `envconfig:"ADMIN_USERS"`

	RefreshInterval  time.Duration `envconfig:"REFRESH_INTERVAL"`
	RefreshLookahead time.Duration `envconfig:"REFRESH_LOOKAHEAD"`
	HTTPTimeout      time.Duration `envconfig:"HTTP_TIMEOUT"`

	LogFile  string `envconfig:"LOG_FILE"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	// DefaultInstituteID is used by registry lookups when none is given.
	DefaultInstituteID int64 `envconfig:"INSTITUTE_ID"`

	// Archive* configure the optional S3 archive of accepted submissions.
	ArchiveBucket   string `envconfig:"ARCHIVE_BUCKET"`
	ArchiveRegion   string `envconfig:"ARCHIVE_REGION"`
	ArchiveEndpoint string `envconfig:"ARCHIVE_ENDPOINT"`
	ArchivePrefix   string `envconfig:"ARCHIVE_PREFIX"`
	// Static archive credentials. Empty means the default AWS chain.
	ArchiveAccessKeyID     string `envconfig:"ARCHIVE_ACCESS_KEY_ID"`
	ArchiveSecretAccessKey string `envconfig:"ARCHIVE_SECRET_ACCESS_KEY"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.LMSURL = "https://lms.snuchennai.edu.in"
	c.LMSService = "moodle_mobile_app"
	c.RegistryURL = "https://umisapi.tnega.org"
	c.DeviceInfo = "regkeeper"
	c.DBDriver = "sqlite"
	c.DSN = "regkeeper.db"
	c.RefreshInterval = 30 * time.Minute
	c.RefreshLookahead = time.Hour
	c.HTTPTimeout = 30 * time.Second
	c.LogLevel = "info"
	c.DefaultInstituteID = 5871
	c.ArchivePrefix = "submissions/"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
