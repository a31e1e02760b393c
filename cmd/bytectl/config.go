package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/bytectl/internal/config"
)

type options struct {
	configPath string
	adminAddr  string
	address    string
	port       string
}

func parseOptions(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("bytectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: bytectl [flags] [address [port]]")
		fs.PrintDefaults()
	}

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	fs.StringVar(&opts.adminAddr, "admin", "", "admin HTTP listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	rest := fs.Args()
	if len(rest) > 2 {
		fs.Usage()
		return options{}, fmt.Errorf("too many arguments: %s", strings.Join(rest, " "))
	}
	if len(rest) > 0 {
		opts.address = rest[0]
	}
	if len(rest) > 1 {
		opts.port = rest[1]
	}
	return opts, nil
}

// resolveConfig layers defaults, the optional config file, then flags and
// positional arguments.
func resolveConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if v := strings.TrimSpace(opts.address); v != "" {
		cfg.Address = v
	}
	if opts.port != "" {
		port, err := config.ParsePort(opts.port)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Port = port
	}
	if v := strings.TrimSpace(opts.adminAddr); v != "" {
		cfg.AdminAddr = v
	}
	return cfg, config.Validate(cfg)
}
