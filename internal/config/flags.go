package config

import (
	"flag"
	"os"

	"github.com/andrejsk/taskvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string   path of the sqlite database file
//	-k string   path of the master secret file
//	-legacy     enable the legacy plaintext-password migration path
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-k", "-legacy"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "path of the sqlite database file")
	fs.StringVar(&cfg.MasterKeyPath, "k", cfg.MasterKeyPath, "path of the master secret file")
	fs.BoolVar(&cfg.LegacyPasswordMigration, "legacy", cfg.LegacyPasswordMigration, "accept and upgrade legacy plaintext passwords")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
