package main

import (
	"flag"
	"log/slog"
	"os"

	"remarkcli/internal/app"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file (defaults to REMARK_CONFIG_FILE or configs/config.yaml)")
	flag.Parse()

	application, err := app.NewApplication(*configFile)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
