package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/danmuck/bytectl/internal/protocol"
	"github.com/rs/zerolog/log"
)

var (
	ErrDialFailed       = errors.New("client: dial failed")
	ErrInvalidQuery     = errors.New("client: query must be a single line")
	ErrControlQuery     = errors.New("client: control query ends the session, use Close")
	ErrUnexpectedPrompt = errors.New("client: unexpected prompt")
	ErrClosed           = errors.New("client: closed")
)

// Config defines dial and read behavior.
type Config struct {
	DialTimeout time.Duration
	ReadTimeout time.Duration
	MaxAttempts int
	Backoff     BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		DialTimeout: 2 * time.Second,
		ReadTimeout: 5 * time.Second,
		MaxAttempts: 3,
		Backoff: BackoffConfig{
			InitialDelay: 100 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     2 * time.Second,
			Jitter:       true,
		},
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}

// Client speaks the byte line protocol over one connection. It is not safe
// for concurrent use; the protocol is strictly request/response.
type Client struct {
	cfg    Config
	conn   net.Conn
	reader *bufio.Reader
	closed bool
}

// Dial connects to addr, retrying with backoff, and consumes the first prompt.
func Dial(ctx context.Context, addr string, cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	retry := newDialRetry(cfg)
	dialer := net.Dialer{Timeout: cfg.DialTimeout}

	for attempt := 1; ; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			c := &Client{cfg: cfg, conn: conn, reader: bufio.NewReader(conn)}
			if err := c.readPrompt(); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return c, nil
		}

		delay, werr := retry.wait(ctx, attempt)
		switch {
		case errors.Is(werr, errAttemptsSpent):
			return nil, fmt.Errorf("%w: addr=%q attempts=%d: %w", ErrDialFailed, addr, attempt, err)
		case werr != nil:
			return nil, fmt.Errorf("%w: addr=%q: %w", ErrDialFailed, addr, werr)
		}
		log.Debug().Str("addr", addr).Int("attempt", attempt).Dur("delay", delay).Err(err).Msg("bytectl.client dial retry")
	}
}

func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Query sends one line and returns the response without its CRLF. An empty
// line returns "" once the server re-prompts.
func (c *Client) Query(line string) (string, error) {
	if c.closed {
		return "", ErrClosed
	}
	if strings.ContainsAny(line, "\r\n") {
		return "", ErrInvalidQuery
	}
	q := protocol.ClassifyText(protocol.DecodeLine([]byte(line)))
	if q.Terminal() {
		return "", ErrControlQuery
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.ReadTimeout))
	if _, err := io.WriteString(c.conn, line+"\n"); err != nil {
		return "", err
	}

	var resp string
	if q.Kind != protocol.KindEmpty {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		raw, err := c.reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		resp = strings.TrimSuffix(raw, protocol.CRLF)
	}
	if err := c.readPrompt(); err != nil {
		return "", err
	}
	return resp, nil
}

// Close sends the control disconnect signal and closes the connection.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.ReadTimeout))
	_, werr := io.WriteString(c.conn, "\x03\n")
	cerr := c.conn.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

func (c *Client) readPrompt() error {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	buf := make([]byte, len(protocol.Prompt))
	if _, err := io.ReadFull(c.reader, buf); err != nil {
		return err
	}
	if string(buf) != protocol.Prompt {
		return fmt.Errorf("%w: %q", ErrUnexpectedPrompt, buf)
	}
	return nil
}
