package main

import (
	"flag"
	"os"

	"github.com/danmuck/bytectl/internal/config"
	"github.com/danmuck/bytectl/internal/logging"
	"github.com/rs/zerolog/log"
)

const defaultPath = "cmd/bytectl/config.toml"

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("configgen failed")
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("configgen", flag.ContinueOnError)
	output := fs.String("output", defaultPath, "output path for config template")
	validate := fs.Bool("validate", false, "validate an existing config file")
	input := fs.String("input", defaultPath, "config path for validation")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *validate {
		cfg, err := config.Load(*input)
		if err != nil {
			return err
		}
		log.Info().Str("path", *input).Str("listen", cfg.ListenAddr()).Msg("configgen validated config")
		return nil
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		return err
	}
	log.Info().Str("path", *output).Msg("configgen wrote config template")
	return nil
}
