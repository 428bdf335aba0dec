// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/wire"
	"github.com/decred/mixrelay/relay"
	"github.com/decred/mixrelay/sampleconfig"
)

// testArgs returns arguments that keep loadConfig from touching anything
// outside of a temporary directory.
func testArgs(t *testing.T, extra ...string) []string {
	t.Helper()
	return append([]string{"--appdata=" + t.TempDir(), "--nofilelogging"},
		extra...)
}

// TestLoadConfigDefaults ensures the defaults are applied when no options are
// given.
func TestLoadConfigDefaults(t *testing.T) {
	cfg, _, err := loadConfig("mixrelayd", testArgs(t))
	if err != nil {
		t.Fatalf("loadConfig: unexpected error: %v", err)
	}
	if cfg.params.Net != wire.MainNet {
		t.Errorf("unexpected network %v", cfg.params.Net)
	}
	wantListen := []string{":" + cfg.params.DefaultPort}
	if !reflect.DeepEqual(cfg.Listeners, wantListen) {
		t.Errorf("unexpected listeners %v, want %v", cfg.Listeners, wantListen)
	}
	if cfg.MaxRelayers != relay.DefaultMaxRelayers {
		t.Errorf("unexpected maxrelayers %d", cfg.MaxRelayers)
	}
	if cfg.ProtocolVersion != wire.ProtocolVersion {
		t.Errorf("unexpected pver %d", cfg.ProtocolVersion)
	}
	if cfg.proxy != nil || cfg.Forward || len(cfg.relayNodes) != 0 {
		t.Errorf("unexpected outbound config %+v", cfg)
	}
}

// TestLoadConfigOptions ensures command line options are parsed and
// normalized.
func TestLoadConfigOptions(t *testing.T) {
	pubKey := secp256k1.PrivKeyFromBytes([]byte{31: 1}).PubKey()
	pkHex := hex.EncodeToString(pubKey.SerializeCompressed())

	cfg, _, err := loadConfig("mixrelayd", testArgs(t,
		"--simnet",
		"--listen=127.0.0.1",
		"--listen=127.0.0.1:18555",
		"--relaynode=10.0.0.1,"+pkHex,
		"--relaynode=10.0.0.2:1234,"+pkHex+",9",
		"--forward",
		"--maxrelayers=5",
		"--legtimeout=5s",
		"--proxy=127.0.0.1:9050",
		"--torisolation",
	))
	if err != nil {
		t.Fatalf("loadConfig: unexpected error: %v", err)
	}
	if cfg.params.Net != wire.SimNet {
		t.Errorf("unexpected network %v", cfg.params.Net)
	}
	port := cfg.params.DefaultPort
	wantListen := []string{"127.0.0.1:" + port, "127.0.0.1:18555"}
	if port == "18555" {
		wantListen = wantListen[:1]
	}
	if !reflect.DeepEqual(cfg.Listeners, wantListen) {
		t.Errorf("unexpected listeners %v, want %v", cfg.Listeners, wantListen)
	}
	if len(cfg.relayNodes) != 2 {
		t.Fatalf("got %d relay nodes, want 2", len(cfg.relayNodes))
	}
	if addr := cfg.relayNodes[0].Addr; addr != "10.0.0.1:"+port {
		t.Errorf("unexpected relay node address %s", addr)
	}
	if pver := cfg.relayNodes[1].ProtocolVersion; pver != 9 {
		t.Errorf("unexpected relay node pver %d", pver)
	}
	if cfg.MaxRelayers != 5 || cfg.LegTimeout != 5*time.Second {
		t.Errorf("unexpected relay policy %d %v", cfg.MaxRelayers,
			cfg.LegTimeout)
	}
	if cfg.proxy == nil || cfg.proxy.Addr != "127.0.0.1:9050" ||
		!cfg.proxy.TorIsolation {
		t.Errorf("unexpected proxy %+v", cfg.proxy)
	}
}

// TestLoadConfigFile ensures options are read from the config file and that
// the command line takes precedence.
func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "test.conf")
	contents := "[Application Options]\nmaxrelayers=7\nnolisten=1\n"
	if err := os.WriteFile(configFile, []byte(contents), 0600); err != nil {
		t.Fatalf("WriteFile: unexpected error: %v", err)
	}

	cfg, _, err := loadConfig("mixrelayd", testArgs(t,
		"--configfile="+configFile))
	if err != nil {
		t.Fatalf("loadConfig: unexpected error: %v", err)
	}
	if cfg.MaxRelayers != 7 || len(cfg.Listeners) != 0 {
		t.Errorf("config file not applied: maxrelayers %d, listeners %v",
			cfg.MaxRelayers, cfg.Listeners)
	}

	cfg, _, err = loadConfig("mixrelayd", testArgs(t,
		"--configfile="+configFile, "--maxrelayers=3"))
	if err != nil {
		t.Fatalf("loadConfig: unexpected error: %v", err)
	}
	if cfg.MaxRelayers != 3 {
		t.Errorf("command line did not take precedence: maxrelayers %d",
			cfg.MaxRelayers)
	}
}

// TestLoadConfigErrors ensures invalid option combinations are rejected.
func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"multiple networks", []string{"--testnet", "--simnet"}},
		{"bad debug level", []string{"--debuglevel=loud"}},
		{"bad subsystem", []string{"--debuglevel=NOPE=debug"}},
		{"zero maxrelayers", []string{"--maxrelayers=0"}},
		{"negative leg timeout", []string{"--legtimeout=-1s"}},
		{"bad relay node", []string{"--relaynode=10.0.0.1:9108,zz"}},
		{"bad disabled node", []string{"--disablenode=zz"}},
		{"invalid disabled node", []string{"--disablenode=0200"}},
		{"forward without nodes", []string{"--forward"}},
		{"bad proxy", []string{"--proxy=127.0.0.1"}},
		{"isolation without proxy", []string{"--torisolation"}},
		{"unknown option", []string{"--bogus"}},
	}

	for _, test := range tests {
		_, _, err := loadConfig("mixrelayd", testArgs(t, test.args...))
		if err == nil {
			t.Errorf("%q: expected error", test.name)
		}
	}
}

// TestParseAndSetDebugLevels ensures debug levels are parsed per subsystem.
func TestParseAndSetDebugLevels(t *testing.T) {
	defer setLogLevels(defaultLogLevel)

	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"RLAY=trace,TRNS=warn", true},
		{"RLAY=trace,", false},
		{"RLAY", false},
		{"XXXX=info", false},
		{"RANK=loud", false},
		{"loud", false},
	}
	for _, test := range tests {
		err := parseAndSetDebugLevels(test.level)
		if (err == nil) != test.valid {
			t.Errorf("%q: unexpected result %v", test.level, err)
		}
	}

	want := []string{"CMGR", "MXRD", "RANK", "RLAY", "TRNS"}
	if got := supportedSubsystems(); !reflect.DeepEqual(got, want) {
		t.Errorf("supportedSubsystems: got %v, want %v", got, want)
	}
}

// TestLoadConfigCreatesDefault ensures the sample config file is written to
// the home directory when no config file exists.
func TestLoadConfigCreatesDefault(t *testing.T) {
	home := t.TempDir()
	_, _, err := loadConfig("mixrelayd", []string{"--appdata=" + home,
		"--nofilelogging"})
	if err != nil {
		t.Fatalf("loadConfig: unexpected error: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(home, defaultConfigFilename))
	if err != nil {
		t.Fatalf("default config file not created: %v", err)
	}
	if string(b) != sampleconfig.Mixrelayd() {
		t.Fatal("default config file does not match the sample config")
	}
}
