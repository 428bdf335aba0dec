// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/decred/dcrd/wire"
	"github.com/decred/go-socks/socks"
	"github.com/decred/mixrelay/mixwire"
	"github.com/decred/mixrelay/relay"
)

// DefaultDialTimeout is the default duration allowed for establishing a
// connection to a relay node.
const DefaultDialTimeout = 10 * time.Second

// DialFunc connects to the address on the named network.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Config describes how relay nodes are reached.
type Config struct {
	// Net is the network magic written in every frame header.
	Net wire.CurrencyNet

	// ProtocolVersion is the protocol version messages are encoded with.
	ProtocolVersion uint32

	// Dial overrides how connections are established.  When nil,
	// connections are made through Proxy when set, or directly otherwise.
	Dial DialFunc

	// Proxy is an optional SOCKS5 proxy used to reach relay nodes.
	Proxy *socks.Proxy

	// DialTimeout bounds establishing a connection.  Defaults to
	// DefaultDialTimeout.
	DialTimeout time.Duration
}

// Transport opens sessions to relay nodes.  It implements relay.Transport
// and is safe for concurrent access.
type Transport struct {
	cfg  Config
	dial DialFunc
}

var _ relay.Transport = (*Transport)(nil)

// New returns a new Transport with the provided configuration.
func New(cfg *Config) *Transport {
	t := &Transport{cfg: *cfg}
	if t.cfg.DialTimeout <= 0 {
		t.cfg.DialTimeout = DefaultDialTimeout
	}
	switch {
	case t.cfg.Dial != nil:
		t.dial = t.cfg.Dial
	case t.cfg.Proxy != nil:
		t.dial = t.cfg.Proxy.DialContext
	default:
		var d net.Dialer
		t.dial = d.DialContext
	}
	return t
}

// Connect opens a session to the relay node at addr.
//
// This is part of the relay.Transport interface implementation.
func (t *Transport) Connect(ctx context.Context, addr string) (relay.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.DialTimeout)
	defer cancel()

	conn, err := t.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s: %w", addr, err)
	}
	log.Debugf("Connected to relay node %s", addr)
	return newSession(conn, t.cfg.Net, t.cfg.ProtocolVersion), nil
}

// session is an open connection to a relay node.
type session struct {
	conn   net.Conn
	dcrnet wire.CurrencyNet
	pver   uint32

	// writeMtx serializes frames written to conn.
	writeMtx sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func newSession(conn net.Conn, dcrnet wire.CurrencyNet, pver uint32) *session {
	return &session{conn: conn, dcrnet: dcrnet, pver: pver}
}

// SendMessage frames and writes msg to the relay node.  The write is
// abandoned when ctx is done.
//
// This is part of the relay.Session interface implementation.
func (s *session) SendMessage(ctx context.Context, msg wire.Message) error {
	s.writeMtx.Lock()
	defer s.writeMtx.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.conn.SetWriteDeadline(time.Time{}); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		// Unblock the pending write.
		s.conn.SetWriteDeadline(time.Unix(1, 0))
	})
	defer stop()

	_, err := mixwire.WriteMessageN(s.conn, msg, s.pver, s.dcrnet)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("unable to write %s message to %s: %w",
			msg.Command(), s.conn.RemoteAddr(), err)
	}
	return nil
}

// Close closes the connection.  It is safe to call multiple times.
//
// This is part of the relay.Session interface implementation.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
