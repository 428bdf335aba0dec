// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/chaincfg/v3"
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/txscript/v4/stdaddr"
	"github.com/decred/dcrd/wire"
	"github.com/decred/mixrelay/rankings"
	"github.com/decred/mixrelay/relay"
	"github.com/decred/mixrelay/transport"
)

type config struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`

	TestNet bool `long:"testnet" description:"Use the test network"`
	SimNet  bool `long:"simnet" description:"Use the simulation test network"`
	RegNet  bool `long:"regnet" description:"Use the regression test network"`

	RelayNodes      []string      `long:"relaynode" description:"Add a relay node of the form host:port,pubkey[,pver]; may be specified multiple times"`
	ListNodes       bool          `long:"listnodes" description:"List the eligible relay nodes in rank order at the round height and exit"`
	ProtocolVersion uint32        `long:"pver" description:"Protocol version relay nodes must support"`
	MaxRelayers     int           `long:"maxrelayers" description:"Relay only through nodes within this many top ranks"`
	DialTimeout     time.Duration `long:"dialtimeout" description:"How long to wait for connections to relay nodes to complete"`
	LegTimeout      time.Duration `long:"legtimeout" description:"How long a single relay leg may take before it is abandoned"`
	Proxy           string        `long:"proxy" description:"Connect to relay nodes via SOCKS5 proxy (eg. 127.0.0.1:9050)"`

	Identity    string `long:"identity" description:"Identity outpoint of the form txid:index[:tree]"`
	IdentitySig string `long:"identitysig" description:"Hex encoded signature identifying the sender"`
	Height      uint32 `long:"height" description:"Block height of the mixing round"`
	RelayType   uint32 `long:"relaytype" description:"Relay phase tag"`
	Input       string `long:"input" description:"Proposed input outpoint of the form txid:index[:tree]"`
	InputAmount string `long:"inputamount" description:"Value of the proposed input in DCR"`
	InputScript string `long:"inputscript" description:"Hex encoded signature script of the proposed input"`
	Address     string `long:"address" description:"Address paid by the proposed output"`
	Amount      string `long:"amount" description:"Value of the proposed output in DCR"`
	Secret      string `long:"secret" env:"SENDRELAY_SECRET" description:"Shared secret of the mixing round (may be set with SENDRELAY_SECRET)"`
}

func defaultConfig() config {
	return config{
		DebugLevel:      "info",
		ProtocolVersion: wire.ProtocolVersion,
		MaxRelayers:     relay.DefaultMaxRelayers,
		DialTimeout:     transport.DefaultDialTimeout,
		LegTimeout:      relay.DefaultLegTimeout,
	}
}

// params returns the network parameters selected by the config.
func (cfg *config) params() (*chaincfg.Params, error) {
	params := chaincfg.MainNetParams()
	numNets := 0
	if cfg.TestNet {
		numNets++
		params = chaincfg.TestNet3Params()
	}
	if cfg.SimNet {
		numNets++
		params = chaincfg.SimNetParams()
	}
	if cfg.RegNet {
		numNets++
		params = chaincfg.RegNetParams()
	}
	if numNets > 1 {
		return nil, errors.New("the testnet, regnet, and simnet options " +
			"can't be used together -- choose one of the three")
	}
	return params, nil
}

// parseOutPoint parses an outpoint of the form txid:index[:tree].  The tree
// defaults to the regular transaction tree.
func parseOutPoint(s string) (*wire.OutPoint, error) {
	fields := strings.Split(s, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return nil, fmt.Errorf("outpoint %q is not of the form "+
			"txid:index[:tree]", s)
	}
	hash, err := chainhash.NewHashFromStr(fields[0])
	if err != nil {
		return nil, fmt.Errorf("outpoint %q: invalid txid: %w", s, err)
	}
	index, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("outpoint %q: invalid index: %w", s, err)
	}
	tree := wire.TxTreeRegular
	if len(fields) == 3 {
		t, err := strconv.ParseInt(fields[2], 10, 8)
		if err != nil || (int8(t) != wire.TxTreeRegular &&
			int8(t) != wire.TxTreeStake) {
			return nil, fmt.Errorf("outpoint %q: invalid tree %q", s,
				fields[2])
		}
		tree = int8(t)
	}
	return wire.NewOutPoint(hash, uint32(index), tree), nil
}

// parseAmount parses an amount in DCR.  An empty string is zero.
func parseAmount(s string) (dcrutil.Amount, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	amount, err := dcrutil.NewAmount(f)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if amount < 0 {
		return 0, fmt.Errorf("invalid amount %q: negative", s)
	}
	return amount, nil
}

// proposal is a relay proposal described by the command line.
type proposal struct {
	identity    *wire.TxIn
	identitySig []byte
	input       *wire.TxIn
	output      *wire.TxOut
}

// buildProposal creates the relay proposal described by cfg.
func buildProposal(cfg *config, params *chaincfg.Params) (*proposal, error) {
	if cfg.Identity == "" || cfg.Input == "" || cfg.Address == "" {
		return nil, errors.New("the identity, input, and address options " +
			"are required")
	}
	if cfg.Secret == "" {
		return nil, errors.New("a shared secret is required")
	}

	identityOp, err := parseOutPoint(cfg.Identity)
	if err != nil {
		return nil, err
	}
	identitySig, err := hex.DecodeString(cfg.IdentitySig)
	if err != nil {
		return nil, fmt.Errorf("invalid identity signature: %w", err)
	}

	inputOp, err := parseOutPoint(cfg.Input)
	if err != nil {
		return nil, err
	}
	inputAmount, err := parseAmount(cfg.InputAmount)
	if err != nil {
		return nil, err
	}
	inputScript, err := hex.DecodeString(cfg.InputScript)
	if err != nil {
		return nil, fmt.Errorf("invalid input script: %w", err)
	}

	addr, err := stdaddr.DecodeAddress(cfg.Address, params)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}
	amount, err := parseAmount(cfg.Amount)
	if err != nil {
		return nil, err
	}
	scriptVersion, pkScript := addr.PaymentScript()
	output := wire.NewTxOut(int64(amount), pkScript)
	output.Version = scriptVersion

	return &proposal{
		identity:    wire.NewTxIn(identityOp, 0, nil),
		identitySig: identitySig,
		input:       wire.NewTxIn(inputOp, int64(inputAmount), inputScript),
		output:      output,
	}, nil
}

// relayNodes parses the configured relay nodes.  Addresses without a port use
// the network's default port.
func relayNodes(cfg *config, params *chaincfg.Params) ([]*rankings.Node, error) {
	if len(cfg.RelayNodes) == 0 {
		return nil, errors.New("at least one relay node is required")
	}
	nodes := make([]*rankings.Node, 0, len(cfg.RelayNodes))
	for _, s := range cfg.RelayNodes {
		fields := strings.SplitN(s, ",", 2)
		if len(fields) == 2 {
			addr := strings.TrimSpace(fields[0])
			if _, _, err := net.SplitHostPort(addr); err != nil {
				addr = net.JoinHostPort(addr, params.DefaultPort)
			}
			s = addr + "," + fields[1]
		}
		node, err := rankings.ParseNode(s, cfg.ProtocolVersion)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
