// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/decred/dcrd/container/apbf"
	"github.com/decred/dcrd/wire"
	"github.com/decred/mixrelay/mixwire"
)

const (
	// DefaultIdleTimeout is the default duration an inbound connection may
	// go without sending a complete message before it is closed.
	DefaultIdleTimeout = 2 * time.Minute

	// DefaultSeenFilterSize is the default minimum number of recently seen
	// relays remembered for duplicate detection.
	DefaultSeenFilterSize = 20000

	// seenFilterFPRate is the false positive rate of the recently seen
	// relay filter.  A false positive drops a relay that was not seen.
	seenFilterFPRate = 0.0001
)

// Handler is invoked with each new relay received by a Server along with the
// address of the connection it arrived on.
type Handler func(msg *mixwire.MsgMixRelay, from net.Addr)

// ServerConfig describes the behavior of a Server.
type ServerConfig struct {
	// Net is the network frames must be for.
	Net wire.CurrencyNet

	// ProtocolVersion is the protocol version messages are decoded with.
	ProtocolVersion uint32

	// Handler is invoked with every relay not recently seen.  It is called
	// from the goroutine reading the connection the relay arrived on.
	Handler Handler

	// IdleTimeout is the maximum duration between messages before an
	// inbound connection is closed.  Defaults to DefaultIdleTimeout.
	IdleTimeout time.Duration

	// SeenFilterSize is the minimum number of recently seen relays to
	// remember.  Defaults to DefaultSeenFilterSize.
	SeenFilterSize uint32
}

// Server reads relays from inbound connections.  It is safe for concurrent
// access.
type Server struct {
	cfg ServerConfig

	// seenMtx makes checking and adding to the seen filter atomic.
	seenMtx sync.Mutex
	seen    *apbf.Filter

	mtx   sync.Mutex
	conns map[net.Conn]struct{}
	quit  bool
	wg    sync.WaitGroup
}

// NewServer returns a new Server with the provided configuration.
func NewServer(cfg *ServerConfig) *Server {
	s := &Server{
		cfg:   *cfg,
		conns: make(map[net.Conn]struct{}),
	}
	if s.cfg.IdleTimeout <= 0 {
		s.cfg.IdleTimeout = DefaultIdleTimeout
	}
	if s.cfg.SeenFilterSize == 0 {
		s.cfg.SeenFilterSize = DefaultSeenFilterSize
	}
	s.seen = apbf.NewFilter(s.cfg.SeenFilterSize, seenFilterFPRate)
	return s
}

// HandleConn takes ownership of an inbound connection and reads relays from
// it until it fails, goes idle, or the server is stopped.  It does not block
// and is suitable as the OnAccept callback of a connection manager.
func (s *Server) HandleConn(conn net.Conn) {
	s.mtx.Lock()
	if s.quit {
		s.mtx.Unlock()
		conn.Close()
		return
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	s.mtx.Unlock()

	go func() {
		defer s.wg.Done()
		s.inHandler(conn)

		s.mtx.Lock()
		delete(s.conns, conn)
		s.mtx.Unlock()
		conn.Close()
	}()
}

// inHandler reads messages from conn until an unrecoverable error occurs.
func (s *Server) inHandler(conn net.Conn) {
	remote := conn.RemoteAddr()
	log.Debugf("Accepted relay connection from %v", remote)

	for {
		err := conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		if err != nil {
			return
		}
		msg, _, err := mixwire.ReadMessage(conn, s.cfg.ProtocolVersion,
			s.cfg.Net)
		switch {
		case errors.Is(err, wire.ErrUnknownCmd):
			// The frame was consumed, so keep reading.
			log.Debugf("Ignoring frame from %v: %v", remote, err)
			continue

		case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			log.Debugf("Relay connection from %v closed", remote)
			return

		case err != nil:
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				log.Debugf("Relay connection from %v idle for %v", remote,
					s.cfg.IdleTimeout)
				return
			}
			log.Warnf("Unable to read message from %v: %v", remote, err)
			return
		}

		relayMsg, ok := msg.(*mixwire.MsgMixRelay)
		if !ok {
			continue
		}
		s.handleRelay(relayMsg, remote)
	}
}

// handleRelay passes relays not recently seen to the handler.
func (s *Server) handleRelay(msg *mixwire.MsgMixRelay, from net.Addr) {
	hash := msg.Hash()
	s.seenMtx.Lock()
	if s.seen.Contains(hash[:]) {
		s.seenMtx.Unlock()
		log.Tracef("Ignoring duplicate relay %v from %v", hash, from)
		return
	}
	s.seen.Add(hash[:])
	s.seenMtx.Unlock()

	log.Debugf("Received relay %v from %v", hash, from)
	if s.cfg.Handler != nil {
		s.cfg.Handler(msg, from)
	}
}

// Run waits until ctx is done, then closes every inbound connection and
// waits for their handlers to return.
func (s *Server) Run(ctx context.Context) {
	<-ctx.Done()

	s.mtx.Lock()
	s.quit = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mtx.Unlock()

	s.wg.Wait()
}
