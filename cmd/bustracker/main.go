package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"bus-tracker/internal/config"
	"bus-tracker/internal/logging"

	_ "time/tzdata"
)

func main() {
	app := &cli.App{
		Name:  "bustracker",
		Usage: "Live bus tracking over a simulated position and status feed",

		Commands: []*cli.Command{
			serveCommand(),
			trackCommand(),
			searchCommand(),
			routesCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

// loadConfig reads configuration from .env and the environment and sets up
// logging. Store settings are only read when withStore is set.
func loadConfig(withStore bool) (*config.Config, error) {
	load := config.LoadWithoutStore
	if withStore {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.LogJSON, cfg.LogDebug)
	return cfg, nil
}
