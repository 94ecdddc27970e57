// Package server runs a goroutine-per-connection TCP accept loop in front
// of the query core: it frames requests and replies, and serializes every
// dispatched request through the engine's single-writer lock.
package server

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gibsoncached/gibsoncached/internal/engine"
	"github.com/gibsoncached/gibsoncached/internal/query"
	"github.com/gibsoncached/gibsoncached/internal/reply"
)

// maxFrameLen bounds a single incoming request frame to guard against a
// corrupt or hostile length prefix exhausting memory on read.
const maxFrameLen = 64 * 1024 * 1024

// Server accepts TCP connections and dispatches framed requests to a
// shared *engine.Engine.
type Server struct {
	host string
	port int

	eng *engine.Engine

	mu       sync.Mutex
	listener net.Listener
	running  atomic.Bool
}

// New returns a Server bound to host:port, driving eng.
func New(host string, port int, eng *engine.Engine) *Server {
	return &Server{host: host, port: port, eng: eng}
}

// Start listens and accepts connections until Stop is called or the
// listener otherwise fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.running.Store(true)

	log.Info().Str("addr", addr).Msg("server listening")

	for s.running.Load() {
		conn, err := ln.Accept()
		if err != nil {
			if s.running.Load() {
				log.Error().Err(err).Msg("accept failed")
			}
			continue
		}

		s.eng.IncConnections()
		go s.handleConnection(conn)
	}

	return nil
}

// Stop closes the listener, causing Start's accept loop to return.
func (s *Server) Stop() {
	s.running.Store(false)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		s.listener.Close()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer s.eng.DecClients()

	remote := conn.RemoteAddr().String()
	clog := log.With().Str("remote", remote).Logger()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		op, payload, err := readFrame(reader)
		if err != nil {
			if err != io.EOF {
				clog.Debug().Err(err).Msg("read failed")
			}
			return
		}

		r := s.dispatch(op, payload, clog)

		if err := writeFrame(writer, r); err != nil {
			clog.Warn().Err(err).Msg("write failed")
			return
		}
		if err := writer.Flush(); err != nil {
			clog.Warn().Err(err).Msg("flush failed")
			return
		}

		if r.Close {
			return
		}
	}
}

func (s *Server) dispatch(op query.Opcode, payload []byte, clog zerolog.Logger) reply.Reply {
	s.eng.Lock()
	defer s.eng.Unlock()

	s.eng.IncRequests()
	r, err := query.Dispatch(s.eng, op, payload)
	if err != nil {
		clog.Warn().Err(err).Uint16("opcode", uint16(op)).Msg("unknown opcode")
		return reply.StatusClose(reply.Err)
	}
	return r
}

// readFrame reads one request frame: a 4-byte big-endian length prefix
// covering everything that follows, a 2-byte big-endian opcode, and the
// remaining payload bytes.
func readFrame(r *bufio.Reader) (query.Opcode, []byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length < 2 || length > maxFrameLen {
		return 0, nil, fmt.Errorf("invalid frame length %d", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}

	op := query.Opcode(binary.BigEndian.Uint16(body[:2]))
	return op, body[2:], nil
}

// writeFrame writes r's encoded reply with its own 4-byte length prefix.
func writeFrame(w *bufio.Writer, r reply.Reply) error {
	body := reply.Encode(r)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))

	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
