package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mpavlovs/filestore/internal/flagx"
	"github.com/mpavlovs/filestore/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr                 string         `json:"endpoint_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	DataDir                      string         `json:"data_dir"`
	CacheDir                     string         `json:"cache_dir"`
	CacheTTL                     timex.Duration `json:"cache_ttl"`
	WriteWorkers                 int            `json:"write_workers"`
	WriteTimeout                 timex.Duration `json:"write_timeout"`
	SweepInterval                timex.Duration `json:"sweep_interval"`
	PendingMaxAge                timex.Duration `json:"pending_max_age"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
//
// The caller is expected to merge these values with defaults and
// command-line flags as part of the full configuration process.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	config.DataDir = c.DataDir
	config.CacheDir = c.CacheDir
	config.CacheTTL = time.Duration(c.CacheTTL.Duration)
	config.WriteWorkers = c.WriteWorkers
	config.WriteTimeout = time.Duration(c.WriteTimeout.Duration)
	config.SweepInterval = time.Duration(c.SweepInterval.Duration)
	config.PendingMaxAge = time.Duration(c.PendingMaxAge.Duration)
}
