package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/bytectl/internal/server"
	"github.com/danmuck/bytectl/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) string {
	t.Helper()
	cfg := server.DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv := server.New(cfg)
	addr, err := srv.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return addr.String()
}

func TestRunValues(t *testing.T) {
	testlog.Start(t)
	addr := startServer(t)

	var out bytes.Buffer
	err := run(context.Background(), addr, time.Second, []string{"5", "x", "\x03", "-2"}, strings.NewReader(""), &out)
	require.NoError(t, err)
	require.Equal(t, "0b101\ndoesn't look like an integer :(\n-0b10\n", out.String())
}

func TestRunStdin(t *testing.T) {
	testlog.Start(t)
	addr := startServer(t)

	var out bytes.Buffer
	err := run(context.Background(), addr, time.Second, nil, strings.NewReader("1\n\n8\n"), &out)
	require.NoError(t, err)
	require.Equal(t, "0b1\n0b1000\n", out.String())
}
