package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/parlor-chat/parlor/internal/flagx"
	"github.com/parlor-chat/parlor/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// It uses timex.Duration for the sweep interval, which allows parsing both
// string values such as "30m" and integer nanoseconds; day-granularity ages
// stay plain ints to match the key names. Zero values mean "not set" and
// leave the default in place.
type JsonConfig struct {
	EndpointAddr           string          `json:"endpoint_addr"`
	DatabaseDSN            string          `json:"database_dsn"`
	SecretKey              string          `json:"secret_key"`
	TokenStaleDays         int             `json:"token_stale_days"`
	TokenExpiryDays        int             `json:"token_expiry_days"`
	TokensSweepInterval    *timex.Duration `json:"tokens_sweep_interval"`
	MinPasswordLen         int             `json:"min_password_len"`
	MaxPasswordLen         int             `json:"max_password_len"`
	MinUsernameLen         int             `json:"min_username_len"`
	MaxUsernameLen         int             `json:"max_username_len"`
	MinDisplayNameLen      int             `json:"min_display_name_len"`
	MaxDisplayNameLen      int             `json:"max_display_name_len"`
	MaxMessageLen          int             `json:"max_message_len"`
	MaxInvitesPerCommunity int             `json:"max_invite_codes_per_community"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flags; if
// neither is set, no JSON file is loaded.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenStaleDays > 0 {
		config.TokenStaleAge = time.Duration(c.TokenStaleDays) * 24 * time.Hour
	}
	if c.TokenExpiryDays > 0 {
		config.TokenExpiryAge = time.Duration(c.TokenExpiryDays) * 24 * time.Hour
	}
	if c.TokensSweepInterval != nil {
		config.TokensSweepInterval = c.TokensSweepInterval.Duration
	}
	if c.MinPasswordLen > 0 {
		config.MinPasswordLen = c.MinPasswordLen
	}
	if c.MaxPasswordLen > 0 {
		config.MaxPasswordLen = c.MaxPasswordLen
	}
	if c.MinUsernameLen > 0 {
		config.MinUsernameLen = c.MinUsernameLen
	}
	if c.MaxUsernameLen > 0 {
		config.MaxUsernameLen = c.MaxUsernameLen
	}
	if c.MinDisplayNameLen > 0 {
		config.MinDisplayNameLen = c.MinDisplayNameLen
	}
	if c.MaxDisplayNameLen > 0 {
		config.MaxDisplayNameLen = c.MaxDisplayNameLen
	}
	if c.MaxMessageLen > 0 {
		config.MaxMessageLen = c.MaxMessageLen
	}
	if c.MaxInvitesPerCommunity > 0 {
		config.MaxInvitesPerCommunity = c.MaxInvitesPerCommunity
	}
	return nil
}
