package config

import (
	"encoding/json"
	"os"

	"github.com/andrejsk/taskvault/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from zero values so a partial file only
// overrides what it names.
type JsonConfig struct {
	DatabaseDSN             *string `json:"database_dsn"`
	MasterKeyPath           *string `json:"master_key_path"`
	LegacyPasswordMigration *bool   `json:"legacy_password_migration"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// the -c/-config flags. If no file is named, nothing happens. Read or
// unmarshal errors panic; the process cannot run on half a config.
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

	if jc.DatabaseDSN != nil {
		cfg.DatabaseDSN = *jc.DatabaseDSN
	}
	if jc.MasterKeyPath != nil {
		cfg.MasterKeyPath = *jc.MasterKeyPath
	}
	if jc.LegacyPasswordMigration != nil {
		cfg.LegacyPasswordMigration = *jc.LegacyPasswordMigration
	}
}
