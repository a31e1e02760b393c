package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/bytectl/internal/client"
	"github.com/danmuck/bytectl/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:2323", "server address host:port")
	timeout := flag.Duration("timeout", 5*time.Second, "per-response read timeout")
	flag.Parse()

	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *addr, *timeout, flag.Args(), os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Str("addr", *addr).Msg("bytequery failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, addr string, timeout time.Duration, values []string, in io.Reader, out io.Writer) error {
	cfg := client.DefaultConfig()
	cfg.ReadTimeout = timeout
	c, err := client.Dial(ctx, addr, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	ask := func(v string) error {
		resp, err := c.Query(v)
		if errors.Is(err, client.ErrControlQuery) || errors.Is(err, client.ErrInvalidQuery) {
			log.Warn().Err(err).Str("value", v).Msg("bytequery skipped value")
			return nil
		}
		if err != nil {
			return err
		}
		if resp != "" {
			fmt.Fprintln(out, resp)
		}
		return nil
	}

	if len(values) > 0 {
		for _, v := range values {
			if err := ask(v); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if err := ask(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}
