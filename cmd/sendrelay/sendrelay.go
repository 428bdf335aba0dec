// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/decred/go-socks/socks"
	"github.com/decred/mixrelay/internal/version"
	"github.com/decred/mixrelay/rankings"
	"github.com/decred/mixrelay/relay"
	"github.com/decred/mixrelay/transport"
	"github.com/decred/slog"
	flags "github.com/jessevdk/go-flags"
)

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

// writeRanked writes the relay nodes eligible at height in rank order and
// returns how many were written.
func writeRanked(w io.Writer, ranker *rankings.Ranker, height, pver uint32) int {
	nodes := ranker.Ranked(height, pver)
	for i := range nodes {
		fmt.Fprintf(w, "rank %d %s %x\n", i+1, nodes[i].Addr,
			nodes[i].PubKey.SerializeCompressed())
	}
	return len(nodes)
}

func main() {
	cfg := defaultConfig()
	parser := flags.NewParser(&cfg, flags.Default)
	_, err := parser.Parse()
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if cfg.ShowVersion {
		fmt.Printf("sendrelay version %s\n", version.String())
		os.Exit(0)
	}

	level, ok := slog.LevelFromString(cfg.DebugLevel)
	if !ok {
		fatalf("invalid debug level %q\n", cfg.DebugLevel)
	}
	backend := slog.NewBackend(os.Stderr)
	for subsystem, useLogger := range map[string]func(slog.Logger){
		"RLAY": relay.UseLogger,
		"RANK": rankings.UseLogger,
		"TRNS": transport.UseLogger,
	} {
		logger := backend.Logger(subsystem)
		logger.SetLevel(level)
		useLogger(logger)
	}

	params, err := cfg.params()
	if err != nil {
		fatalf("%v\n", err)
	}
	nodes, err := relayNodes(&cfg, params)
	if err != nil {
		fatalf("%v\n", err)
	}
	ranker := rankings.New(0)
	for _, node := range nodes {
		if err := ranker.AddNode(node); err != nil {
			fatalf("%v\n", err)
		}
	}
	if cfg.ListNodes {
		if writeRanked(os.Stdout, ranker, cfg.Height, cfg.ProtocolVersion) == 0 {
			fatalf("no enabled relay nodes support protocol version %d\n",
				cfg.ProtocolVersion)
		}
		return
	}

	prop, err := buildProposal(&cfg, params)
	if err != nil {
		fatalf("%v\n", err)
	}
	if cfg.Secret == "" {
		cfg.Secret, err = promptSecret()
		if err != nil {
			fatalf("%v\n", err)
		}
	}

	tcfg := &transport.Config{
		Net:             params.Net,
		ProtocolVersion: cfg.ProtocolVersion,
		DialTimeout:     cfg.DialTimeout,
	}
	if cfg.Proxy != "" {
		tcfg.Proxy = &socks.Proxy{Addr: cfg.Proxy}
	}
	relayer, err := relay.New(&relay.Config{
		Rankings:        ranker,
		Transport:       transport.New(tcfg),
		ProtocolVersion: cfg.ProtocolVersion,
		MaxRelayers:     cfg.MaxRelayers,
		LegTimeout:      cfg.LegTimeout,
	})
	if err != nil {
		fatalf("%v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results, err := relayer.Propose(ctx, prop.identity, prop.identitySig,
		cfg.Height, cfg.RelayType, prop.input, prop.output, cfg.Secret)
	if err != nil {
		stop()
		fatalf("unable to create relay: %v\n", err)
	}
	if len(results) == 0 {
		stop()
		fatalf("no enabled relay nodes support protocol version %d\n",
			cfg.ProtocolVersion)
	}

	var sent int
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("rank %d %s: %v\n", res.Rank, res.Addr, res.Err)
			continue
		}
		sent++
		fmt.Printf("rank %d %s: sent\n", res.Rank, res.Addr)
	}
	if sent == 0 {
		stop()
		os.Exit(1)
	}
}
