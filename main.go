package main

import (
	"github.com/rs/zerolog/log"
	"os"
	"worker-analysis/cmd"
	"worker-analysis/config"
)

func main() {
	path, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	root := cmd.Root(cfg)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
