// Package config holds runtime settings for the TaskVault CLI, assembled
// from defaults, an optional JSON file, and command-line flags (later
// sources override earlier ones).
package config

import "github.com/andrejsk/taskvault/internal/keystore"

// Config holds runtime settings.
//
// Fields:
//   - DatabaseDSN: path of the sqlite database file.
//   - MasterKeyPath: location of the persisted master secret.
//   - LegacyPasswordMigration: accept-and-upgrade plaintext credential
//     records on login. A migration switch, meant to be disabled once all
//     stored records carry hashes.
type Config struct {
	DatabaseDSN             string
	MasterKeyPath           string
	LegacyPasswordMigration bool
}

// LoadDefaults populates c with sensible defaults. The master key default
// honors the TASKVAULT_MASTER_KEY_PATH environment override.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "taskvault.db"
	c.MasterKeyPath = keystore.DefaultPath()
	c.LegacyPasswordMigration = true
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
