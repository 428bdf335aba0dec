// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/dcrd/connmgr/v3"
	"github.com/decred/mixrelay/mixwire"
	"github.com/decred/mixrelay/rankings"
	"github.com/decred/mixrelay/relay"
	"github.com/decred/mixrelay/transport"
	"golang.org/x/sync/errgroup"
)

// simpleAddr implements the net.Addr interface with two struct fields.
type simpleAddr struct {
	net, addr string
}

// String returns the address.
//
// This is part of the net.Addr interface.
func (a simpleAddr) String() string {
	return a.addr
}

// Network returns the network.
//
// This is part of the net.Addr interface.
func (a simpleAddr) Network() string {
	return a.net
}

// Ensure simpleAddr implements the net.Addr interface.
var _ net.Addr = simpleAddr{}

// relayStats tracks the relays handled by the server.
type relayStats struct {
	received  atomic.Uint64
	rejected  atomic.Uint64
	forwarded atomic.Uint64
}

// server accepts relays from inbound connections and optionally forwards
// them through ranked relay nodes.
type server struct {
	cfg         *config
	ranker      *rankings.Ranker
	relayer     *relay.Relayer
	inbound     *transport.Server
	connManager *connmgr.ConnManager
	stats       relayStats

	// forwardCtx is the context forwarded relays are sent under.  It is
	// set when the server is run.
	forwardCtx context.Context

	// forwardWg tracks relays being forwarded.
	forwardWg sync.WaitGroup
}

// handleRelay is invoked by the inbound server with every relay not seen
// recently.
func (s *server) handleRelay(msg *mixwire.MsgMixRelay, from net.Addr) {
	s.stats.received.Add(1)
	hash := msg.Hash()

	if s.cfg.SharedSecret != "" && !relay.VerifyRelay(msg, s.cfg.SharedSecret) {
		s.stats.rejected.Add(1)
		mxrdLog.Warnf("Rejecting relay %v from %v: session signature does "+
			"not verify", hash, from)
		return
	}

	mxrdLog.Infof("Relay %v from %v: %v", hash, from, msg)
	mxrdLog.Tracef("%v", logClosure(func() string {
		return spew.Sdump(msg)
	}))

	if s.relayer == nil {
		return
	}

	// Forwarding waits on remote relay nodes, so it must not hold up reads
	// from the inbound connection.
	s.forwardWg.Add(1)
	go s.forwardRelay(msg)
}

// forwardRelay relays msg through the ranked relay nodes.
//
// This must be run as a goroutine.
func (s *server) forwardRelay(msg *mixwire.MsgMixRelay) {
	defer s.forwardWg.Done()

	results := s.relayer.RelayWithStatus(s.forwardCtx, msg)
	var sent int
	for _, res := range results {
		if res.Err == nil {
			sent++
		}
	}
	if sent > 0 {
		s.stats.forwarded.Add(1)
	}
	mxrdLog.Debugf("Forwarded relay %v through %d of %d relay nodes",
		msg.Hash(), sent, len(results))
}

// Run starts the server and blocks until the provided context is cancelled.
func (s *server) Run(ctx context.Context) error {
	mxrdLog.Trace("Starting server")
	s.forwardCtx = ctx

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.inbound.Run(ctx)
		return nil
	})
	if s.connManager != nil {
		g.Go(func() error {
			s.connManager.Run(ctx)
			return nil
		})
	}
	err := g.Wait()

	// The inbound server has stopped invoking handleRelay, so no forwards
	// are started after this point.
	s.forwardWg.Wait()

	mxrdLog.Infof("Received %d relays (%d rejected, %d forwarded)",
		s.stats.received.Load(), s.stats.rejected.Load(),
		s.stats.forwarded.Load())
	mxrdLog.Trace("Server stopped")
	return err
}

// parseListeners determines whether each listen address is IPv4 and IPv6 and
// returns a slice of appropriate net.Addrs to listen on with TCP.  It also
// properly detects addresses which apply to "all interfaces" and adds the
// address as both IPv4 and IPv6.
func parseListeners(addrs []string) ([]net.Addr, error) {
	netAddrs := make([]net.Addr, 0, len(addrs)*2)
	for _, addr := range addrs {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			// Shouldn't happen due to already being normalized.
			return nil, err
		}

		// Empty host or host of * on plan9 is both IPv4 and IPv6.
		if host == "" || (host == "*" && runtime.GOOS == "plan9") {
			netAddrs = append(netAddrs, simpleAddr{net: "tcp4", addr: addr})
			netAddrs = append(netAddrs, simpleAddr{net: "tcp6", addr: addr})
			continue
		}

		// Strip IPv6 zone id if present since net.ParseIP does not
		// handle it.
		zoneIndex := strings.LastIndex(host, "%")
		if zoneIndex > 0 {
			host = host[:zoneIndex]
		}

		ip := net.ParseIP(host)
		if ip == nil {
			return nil, fmt.Errorf("'%s' is not a valid IP address", host)
		}

		// To4 returns nil when the IP is not an IPv4 address, so use
		// this determine the address type.
		if ip.To4() == nil {
			netAddrs = append(netAddrs, simpleAddr{net: "tcp6", addr: addr})
		} else {
			netAddrs = append(netAddrs, simpleAddr{net: "tcp4", addr: addr})
		}
	}
	return netAddrs, nil
}

// initListeners listens for TCP connections at the configured addresses.
// Addresses that can not be listened on are skipped.
func initListeners(ctx context.Context, listenAddrs []string) ([]net.Listener, error) {
	netAddrs, err := parseListeners(listenAddrs)
	if err != nil {
		return nil, err
	}

	listeners := make([]net.Listener, 0, len(netAddrs))
	for _, addr := range netAddrs {
		var listenConfig net.ListenConfig
		listener, err := listenConfig.Listen(ctx, addr.Network(), addr.String())
		if err != nil {
			mxrdLog.Warnf("Can't listen on %s: %v", addr, err)
			continue
		}
		mxrdLog.Infof("Listening for relays on %s", listener.Addr())
		listeners = append(listeners, listener)
	}
	return listeners, nil
}

// newServer returns a new server configured by cfg.
func newServer(ctx context.Context, cfg *config) (*server, error) {
	s := &server{
		cfg:    cfg,
		ranker: rankings.New(0),
	}
	for _, node := range cfg.relayNodes {
		if err := s.ranker.AddNode(node); err != nil {
			return nil, err
		}
	}
	for _, pubKey := range cfg.disabledNodes {
		if err := s.ranker.SetEnabled(pubKey, false); err != nil {
			return nil, err
		}
	}

	tr := transport.New(&transport.Config{
		Net:             cfg.params.Net,
		ProtocolVersion: cfg.ProtocolVersion,
		Proxy:           cfg.proxy,
		DialTimeout:     cfg.DialTimeout,
	})
	if cfg.Forward {
		relayer, err := relay.New(&relay.Config{
			Rankings:        s.ranker,
			Transport:       tr,
			ProtocolVersion: cfg.ProtocolVersion,
			MaxRelayers:     cfg.MaxRelayers,
			LegTimeout:      cfg.LegTimeout,
		})
		if err != nil {
			return nil, err
		}
		s.relayer = relayer
	}

	s.inbound = transport.NewServer(&transport.ServerConfig{
		Net:             cfg.params.Net,
		ProtocolVersion: cfg.ProtocolVersion,
		Handler:         s.handleRelay,
		IdleTimeout:     cfg.IdleTimeout,
		SeenFilterSize:  cfg.SeenFilterSize,
	})

	if len(cfg.Listeners) == 0 {
		mxrdLog.Info("Listening for relays is disabled")
		return s, nil
	}
	listeners, err := initListeners(ctx, cfg.Listeners)
	if err != nil {
		return nil, err
	}
	if len(listeners) == 0 {
		return nil, fmt.Errorf("no valid listen address")
	}

	// The connection manager owns the listeners and hands accepted
	// connections to the inbound server.  Relays are never requested, so
	// its dialer only serves manual connection requests.
	dial := (&net.Dialer{}).DialContext
	if cfg.proxy != nil {
		dial = cfg.proxy.DialContext
	}
	cmgr, err := connmgr.New(&connmgr.Config{
		Listeners: listeners,
		OnAccept:  s.inbound.HandleConn,
		Dial:      dial,
		Timeout:   cfg.DialTimeout,
	})
	if err != nil {
		for _, l := range listeners {
			l.Close()
		}
		return nil, err
	}
	s.connManager = cmgr
	return s, nil
}
