package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"time"

	"github.com/danmuck/bytectl/internal/observability"
	"github.com/danmuck/bytectl/internal/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Close reasons reported in logs and metrics.
const (
	CloseControl     = "control"
	CloseEOF         = "eof"
	CloseIdleTimeout = "idle_timeout"
	CloseLineTooLong = "line_too_long"
	CloseIOError     = "io_error"
	CloseShutdown    = "shutdown"
)

// handler owns one connection for its entire lifetime.
type handler struct {
	conn      net.Conn
	reader    *bufio.Reader
	writer    *bufio.Writer
	cfg       Config
	sessions  *Registry
	sessionID string
	logger    zerolog.Logger
	draining  func() bool
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()

	started := time.Now()
	id := s.sessions.Open(conn)
	active := s.activeClients.Add(1)
	observability.RecordConnectionOpened()

	logger := log.With().Str("session", id).Str("remote", conn.RemoteAddr().String()).Logger()
	logger.Info().Int64("active_clients", active).Msg("bytectl.server client connected")

	h := &handler{
		conn:      conn,
		reader:    bufio.NewReaderSize(conn, s.cfg.MaxLineBytes),
		writer:    bufio.NewWriter(conn),
		cfg:       s.cfg,
		sessions:  s.sessions,
		sessionID: id,
		logger:    logger,
		draining:  s.draining.Load,
	}
	reason := h.run()

	s.sessions.SetState(id, StateClosing)
	_ = conn.Close()
	final, _ := s.sessions.Remove(id)
	remaining := s.activeClients.Add(-1)
	observability.RecordConnectionClosed(reason, time.Since(started))
	logger.Info().
		Str("reason", reason).
		Uint64("queries", final.Queries).
		Int64("active_clients", remaining).
		Msg("bytectl.server client disconnected")
}

// run drives await_input -> processing until the session ends and returns
// the close reason.
func (h *handler) run() string {
	for {
		h.sessions.SetState(h.sessionID, StateAwaitInput)
		if err := h.prompt(); err != nil {
			return h.ioFailure("write", err)
		}

		line, readErr := h.readLine()
		if readErr != nil && (len(line) == 0 || !errors.Is(readErr, io.EOF)) {
			return h.readFailure(readErr)
		}

		h.sessions.SetState(h.sessionID, StateProcessing)
		q := protocol.Classify(line)
		observability.RecordQuery(string(q.Kind))
		h.logger.Debug().Str("query", q.Text).Str("kind", string(q.Kind)).Msg("bytectl.server received")
		if q.Terminal() {
			return CloseControl
		}
		if resp, ok := protocol.Respond(q); ok {
			if err := h.write(resp); err != nil {
				return h.ioFailure("write", err)
			}
			h.sessions.Answered(h.sessionID)
		}
		// A fragment ended by EOF loops once more: the prompt goes out and the
		// next read reports the empty stream.
	}
}

func (h *handler) prompt() error {
	return h.write([]byte(protocol.Prompt))
}

func (h *handler) write(p []byte) error {
	if _, err := h.writer.Write(p); err != nil {
		return err
	}
	return h.writer.Flush()
}

// readLine returns one line including its terminator. A final fragment is
// returned together with io.EOF; later reads return io.EOF alone.
func (h *handler) readLine() ([]byte, error) {
	if h.cfg.IdleTimeout > 0 {
		_ = h.conn.SetReadDeadline(time.Now().Add(h.cfg.IdleTimeout))
	}
	line, err := h.reader.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return nil, ErrLineTooLong
	}
	return line, err
}

func (h *handler) readFailure(err error) string {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF):
		return CloseEOF
	case errors.Is(err, ErrLineTooLong):
		h.logger.Warn().Int("max_line_bytes", h.cfg.MaxLineBytes).Msg("bytectl.server line too long")
		return CloseLineTooLong
	case h.draining():
		return CloseShutdown
	case errors.As(err, &ne) && ne.Timeout():
		h.logger.Info().Dur("idle_timeout", h.cfg.IdleTimeout).Msg("bytectl.server idle timeout")
		return CloseIdleTimeout
	default:
		return h.ioFailure("read", err)
	}
}

func (h *handler) ioFailure(op string, err error) string {
	if h.draining() {
		h.logger.Debug().Str("op", op).Err(err).Msg("bytectl.server io during shutdown")
		return CloseShutdown
	}
	h.logger.Warn().Str("op", op).Err(err).Msg("bytectl.server io error")
	return CloseIOError
}
