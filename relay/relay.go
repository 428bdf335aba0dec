// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/wire"
	"github.com/decred/mixrelay/mixwire"
)

// DefaultLegTimeout is the default duration allowed for resolving, connecting
// to, and sending to a single relay peer.
const DefaultLegTimeout = 30 * time.Second

// RankedPeer describes a relay peer at a rank of the ranking service.
type RankedPeer struct {
	Rank   int
	Addr   string
	PubKey *secp256k1.PublicKey
}

// RankingService provides the set of enabled relay peers ordered by rank.
// Implementations must be safe for concurrent access.
type RankingService interface {
	// CountEnabled returns the number of enabled relay peers supporting
	// the protocol version pver.
	CountEnabled(pver uint32) int

	// RankedPeer returns the peer at the 1-based rank for the block
	// height and protocol version.  It returns false when no peer exists
	// at that rank.
	RankedPeer(rank int, height uint32, pver uint32) (*RankedPeer, bool)
}

// Session is an open transport session to a relay peer.
type Session interface {
	// SendMessage frames and writes msg to the peer.
	SendMessage(ctx context.Context, msg wire.Message) error

	// Close releases the session.
	Close() error
}

// Transport opens sessions to relay peers.
type Transport interface {
	// Connect opens a session to the peer at addr.
	Connect(ctx context.Context, addr string) (Session, error)
}

// Config describes the collaborators and policy of a Relayer.
type Config struct {
	// Rankings is the ranking service used to resolve relay peers.
	Rankings RankingService

	// Transport opens sessions to relay peers.
	Transport Transport

	// ProtocolVersion is the protocol version relay peers must support.
	ProtocolVersion uint32

	// MaxRelayers limits relay targets to the highest ranked peers.
	// Defaults to DefaultMaxRelayers.
	MaxRelayers int

	// LegTimeout bounds each relay leg.  Defaults to DefaultLegTimeout.
	LegTimeout time.Duration

	// Rand is the source of randomness for choosing relay ranks.  It
	// defaults to the process CSPRNG and must never be a source shared
	// with consensus code.
	Rand RandSource
}

// LegResult describes the outcome of relaying a message through a single
// peer.  Err is nil when the message was written to the peer.
type LegResult struct {
	Rank int
	Addr string
	Err  error
}

// Relayer relays mix relay messages through randomly chosen ranked peers.
// It is safe for concurrent access.
type Relayer struct {
	cfg Config
}

// New returns a new Relayer with the provided configuration.
func New(cfg *Config) (*Relayer, error) {
	if cfg.Rankings == nil {
		return nil, relayError(ErrMissingRankings, "config: rankings "+
			"cannot be nil")
	}
	if cfg.Transport == nil {
		return nil, relayError(ErrMissingTransport, "config: transport "+
			"cannot be nil")
	}
	r := &Relayer{cfg: *cfg}
	if r.cfg.MaxRelayers <= 0 {
		r.cfg.MaxRelayers = DefaultMaxRelayers
	}
	if r.cfg.LegTimeout <= 0 {
		r.cfg.LegTimeout = DefaultLegTimeout
	}
	if r.cfg.Rand == nil {
		r.cfg.Rand = cryptoRand{}
	}
	return r, nil
}

// Propose creates and signs a relay message for the proposed input and
// output and relays it.  Errors creating the message are returned before any
// network activity occurs.  Failures of individual relay legs are not
// errors and are only reported by the returned results.
func (r *Relayer) Propose(ctx context.Context, identity *wire.TxIn,
	identitySig []byte, height, relayType uint32, in *wire.TxIn,
	out *wire.TxOut, sharedSecret string) ([]LegResult, error) {

	msg, err := NewRelayMessage(identity, identitySig, height, relayType,
		in, out, sharedSecret)
	if err != nil {
		return nil, err
	}
	return r.RelayWithStatus(ctx, msg), nil
}

// Relay sends msg through two distinct randomly chosen relay peers.  Delivery
// is best effort: peers that can not be resolved or reached are skipped and
// Relay always returns nil once every leg has been attempted.
func (r *Relayer) Relay(ctx context.Context, msg *mixwire.MsgMixRelay) error {
	r.RelayWithStatus(ctx, msg)
	return nil
}

// RelayWithStatus is the same as Relay except it returns the outcome of each
// attempted leg.
func (r *Relayer) RelayWithStatus(ctx context.Context, msg *mixwire.MsgMixRelay) []LegResult {
	pver := r.cfg.ProtocolVersion
	enabled := r.cfg.Rankings.CountEnabled(pver)
	ranks := SelectRanks(enabled, r.cfg.MaxRelayers, r.cfg.Rand)
	if len(ranks) == 0 {
		log.Debugf("No enabled relay peers for protocol version %d", pver)
		return nil
	}

	log.Tracef("Relaying message through %s %v: %v", pickNoun(len(ranks),
		"rank", "ranks"), ranks, newLogClosure(func() string {
		return spew.Sdump(msg)
	}))

	results := make([]LegResult, len(ranks))
	var wg sync.WaitGroup
	wg.Add(len(ranks))
	for i, rank := range ranks {
		go func(i, rank int) {
			defer wg.Done()
			results[i] = r.relayThroughPeer(ctx, rank, msg)
		}(i, rank)
	}
	wg.Wait()

	for _, res := range results {
		if res.Err != nil {
			log.Debugf("Relay through rank %d skipped: %v", res.Rank,
				res.Err)
			continue
		}
		log.Debugf("Relayed %v through rank %d peer %s", msg.Hash(),
			res.Rank, res.Addr)
	}
	return results
}

// relayThroughPeer resolves the peer at rank and sends msg to it.  The
// transport session is always closed before returning.
func (r *Relayer) relayThroughPeer(ctx context.Context, rank int, msg *mixwire.MsgMixRelay) LegResult {
	res := LegResult{Rank: rank}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.LegTimeout)
	defer cancel()

	pver := r.cfg.ProtocolVersion
	peer, ok := r.cfg.Rankings.RankedPeer(rank, msg.Height, pver)
	if !ok {
		str := fmt.Sprintf("no relay peer at rank %d for height %d",
			rank, msg.Height)
		res.Err = relayError(ErrPeerUnavailable, str)
		return res
	}
	res.Addr = peer.Addr

	session, err := r.cfg.Transport.Connect(ctx, peer.Addr)
	if err != nil {
		str := fmt.Sprintf("unable to connect to relay peer %s: %v",
			peer.Addr, err)
		res.Err = RelayError{Err: ErrConnectFailure, Description: str}
		return res
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Tracef("Closing session to %s: %v", peer.Addr, err)
		}
	}()

	if err := session.SendMessage(ctx, msg); err != nil {
		str := fmt.Sprintf("unable to send to relay peer %s: %v",
			peer.Addr, err)
		res.Err = RelayError{Err: ErrSendFailure, Description: str}
	}
	return res
}
