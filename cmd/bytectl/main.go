package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/bytectl/internal/logging"
	"github.com/danmuck/bytectl/internal/service"
	"github.com/rs/zerolog/log"
)

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "bytectl: %v\n", err)
		os.Exit(2)
	}

	logging.ConfigureRuntime()
	cfg, err := resolveConfig(opts)
	if err != nil {
		log.Error().Err(err).Msg("bytectl config")
		os.Exit(1)
	}

	svc, err := service.New(cfg)
	if err != nil {
		log.Error().Err(err).Msg("bytectl init")
		os.Exit(1)
	}
	if err := svc.Run(); err != nil {
		log.Error().Err(err).Msg("bytectl exited")
		os.Exit(1)
	}
}
