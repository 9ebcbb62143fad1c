package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/regkeeper/internal/flagx"
	"github.com/dmitrijs2005/regkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so they can be written as "30m" or as nanoseconds. Absent
// keys leave the corresponding Config field unchanged.
type JsonConfig struct {
	LMSURL             *string         `json:"lms_url"`
	LMSService         *string         `json:"lms_service"`
	RegistryURL        *string         `json:"registry_url"`
	PublicKeyFile      *string         `json:"public_key_file"`
	DeviceInfo         *string         `json:"device_info"`
	DBDriver           *string         `json:"db_driver"`
	DSN                *string         `json:"dsn"`
	StoreSecret        *string         `json:"store_secret"`
	CredentialsFile    *string         `json:"credentials_file"`
	AdminUsers         []string        `json:"admin_users"`
	RefreshInterval    *timex.Duration `json:"refresh_interval"`
	RefreshLookahead   *timex.Duration `json:"refresh_lookahead"`
	HTTPTimeout        *timex.Duration `json:"http_timeout"`
	LogFile            *string         `json:"log_file"`
	LogLevel           *string         `json:"log_level"`
	DefaultInstituteID *int64          `json:"institute_id"`
	ArchiveBucket      *string         `json:"archive_bucket"`
	ArchiveRegion      *string         `json:"archive_region"`
	ArchiveEndpoint    *string         `json:"archive_endpoint"`
	ArchivePrefix      *string         `json:"archive_prefix"`
	ArchiveAccessKeyID *string         `json:"archive_access_key_id"`
	ArchiveSecretKey   *string         `json:"archive_secret_access_key"`
}

// parseJson overlays Config with values from the JSON file named by -c or
// -config. Without either flag nothing happens. Read or decode errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.LMSURL, jc.LMSURL)
	setString(&cfg.LMSService, jc.LMSService)
	setString(&cfg.RegistryURL, jc.RegistryURL)
	setString(&cfg.PublicKeyFile, jc.PublicKeyFile)
	setString(&cfg.DeviceInfo, jc.DeviceInfo)
	setString(&cfg.DBDriver, jc.DBDriver)
	setString(&cfg.DSN, jc.DSN)
	setString(&cfg.StoreSecret, jc.StoreSecret)
	setString(&cfg.CredentialsFile, jc.CredentialsFile)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.ArchiveBucket, jc.ArchiveBucket)
	setString(&cfg.ArchiveRegion, jc.ArchiveRegion)
	setString(&cfg.ArchiveEndpoint, jc.ArchiveEndpoint)
	setString(&cfg.ArchivePrefix, jc.ArchivePrefix)
	setString(&cfg.ArchiveAccessKeyID, jc.ArchiveAccessKeyID)
	setString(&cfg.ArchiveSecretAccessKey, jc.ArchiveSecretKey)

	if jc.AdminUsers != nil {
		cfg.AdminUsers = jc.AdminUsers
	}
	if jc.RefreshInterval != nil {
		cfg.RefreshInterval = jc.RefreshInterval.Duration
	}
	if jc.RefreshLookahead != nil {
		cfg.RefreshLookahead = jc.RefreshLookahead.Duration
	}
	if jc.HTTPTimeout != nil {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	if jc.DefaultInstituteID != nil {
		cfg.DefaultInstituteID = *jc.DefaultInstituteID
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
