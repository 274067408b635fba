package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/andrejsk/taskvault/internal/buildinfo"
	"github.com/andrejsk/taskvault/internal/cli"
	"github.com/andrejsk/taskvault/internal/config"
	"github.com/andrejsk/taskvault/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}
