package core

import (
	"fmt"
	"strings"
	"time"
)

// MatchConfig tunes how page URLs are matched against stored records.
type MatchConfig struct {
	MatchURLScheme    bool `koanf:"match_url_scheme" mapstructure:"match_url_scheme"`
	SearchInAllVaults bool `koanf:"search_in_all_vaults" mapstructure:"search_in_all_vaults"`
	SortByTitle       bool `koanf:"sort_by_title" mapstructure:"sort_by_title"`
	BestMatchOnly     bool `koanf:"best_match_only" mapstructure:"best_match_only"`
}

// AccessConfig tunes how disclosure decisions are made.
type AccessConfig struct {
	AlwaysAllowAccess       bool `koanf:"always_allow_access" mapstructure:"always_allow_access"`
	AlwaysAllowUpdate       bool `koanf:"always_allow_update" mapstructure:"always_allow_update"`
	HTTPAuthPermission      bool `koanf:"http_auth_permission" mapstructure:"http_auth_permission"`
	AllowExpiredCredentials bool `koanf:"allow_expired_credentials" mapstructure:"allow_expired_credentials"`
}

// SessionConfig tunes client session lifecycle.
type SessionConfig struct {
	// IdleTTL of zero keeps sessions alive for the process lifetime.
	IdleTTL       time.Duration `koanf:"idle_ttl" mapstructure:"idle_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval" mapstructure:"sweep_interval"`
}

type Config struct {
	ServiceName string `koanf:"service_name" mapstructure:"service_name"`
	Locale      string `koanf:"locale" mapstructure:"locale"`

	Match   MatchConfig   `koanf:"match" mapstructure:"match"`
	Access  AccessConfig  `koanf:"access" mapstructure:"access"`
	Session SessionConfig `koanf:"session" mapstructure:"session"`

	SupportKPHFields     bool `koanf:"support_kph_fields" mapstructure:"support_kph_fields"`
	NoMigrationPrompt    bool `koanf:"no_migration_prompt" mapstructure:"no_migration_prompt"`
	UnlockVaultOnRequest bool `koanf:"unlock_vault_on_request" mapstructure:"unlock_vault_on_request"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "credbroker",
		Match: MatchConfig{
			MatchURLScheme: true,
		},
		Session: SessionConfig{
			SweepInterval: time.Minute,
		},
		UnlockVaultOnRequest: true,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Session.IdleTTL < 0 {
		return fmt.Errorf("core: session.idle_ttl must not be negative")
	}
	if c.Session.IdleTTL > 0 && c.Session.SweepInterval <= 0 {
		return fmt.Errorf("core: session.sweep_interval is required when session.idle_ttl is set")
	}
	return nil
}
