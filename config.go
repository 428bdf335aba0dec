// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/decred/dcrd/chaincfg/v3"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/wire"
	"github.com/decred/go-socks/socks"
	"github.com/decred/mixrelay/internal/version"
	"github.com/decred/mixrelay/rankings"
	"github.com/decred/mixrelay/relay"
	"github.com/decred/mixrelay/sampleconfig"
	"github.com/decred/mixrelay/transport"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "mixrelayd.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "mixrelayd.log"
	defaultSeenFilterSize = transport.DefaultSeenFilterSize
)

var (
	defaultHomeDir    = dcrutil.AppDataDir("mixrelayd", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// errSuppressUsage signifies that an error that happened during the initial
// configuration phase should suppress the usage output since it was not caused
// by the user.
type errSuppressUsage string

// Error implements the error interface.
func (e errSuppressUsage) Error() string {
	return string(e)
}

// config defines the configuration options for mixrelayd.
//
// See loadConfig for details on the configuration load process.
type config struct {
	// General application behavior.
	ShowVersion   bool   `short:"V" long:"version" description:"Display version information and exit"`
	HomeDir       string `short:"A" long:"appdata" description:"Path to application home directory"`
	ConfigFile    string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir        string `long:"logdir" description:"Directory to log output"`
	NoFileLogging bool   `long:"nofilelogging" description:"Disable file logging"`
	DebugLevel    string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`

	// Network settings.
	TestNet bool `long:"testnet" description:"Use the test network"`
	SimNet  bool `long:"simnet" description:"Use the simulation test network"`
	RegNet  bool `long:"regnet" description:"Use the regression test network"`

	// Inbound relay settings.
	Listeners      []string      `long:"listen" description:"Add an interface/port to listen for relays (default all interfaces port: 9108, testnet: 19108)"`
	NoListen       bool          `long:"nolisten" description:"Disable listening for incoming relays"`
	IdleTimeout    time.Duration `long:"idletimeout" description:"Duration an inbound connection may go without sending a relay before it is closed"`
	SeenFilterSize uint32        `long:"seenfiltersize" description:"Minimum number of recently seen relays remembered to drop duplicates"`
	SharedSecret   string        `long:"sharedsecret" description:"Shared secret of the current mixing round used to verify received relays (never written to disk)"`

	// Outbound relay settings.
	RelayNodes      []string      `long:"relaynode" description:"Add a relay node of the form host:port,pubkey[,pver]"`
	DisableNodes    []string      `long:"disablenode" description:"Keep the relay node with this hex encoded public key registered but ineligible to relay"`
	Forward         bool          `long:"forward" description:"Forward verified relays through ranked relay nodes"`
	ProtocolVersion uint32        `long:"pver" description:"Protocol version relay nodes must support"`
	MaxRelayers     int           `long:"maxrelayers" description:"Relay only through nodes within this many top ranks"`
	DialTimeout     time.Duration `long:"dialtimeout" description:"How long to wait for connections to relay nodes to complete before giving up"`
	LegTimeout      time.Duration `long:"legtimeout" description:"How long a single relay leg may take before it is abandoned"`

	// Proxy settings.
	Proxy        string `long:"proxy" description:"Connect to relay nodes via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser    string `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass    string `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	TorIsolation bool   `long:"torisolation" description:"Enable Tor stream isolation by randomizing user credentials for each connection"`

	params        *chaincfg.Params
	relayNodes    []*rankings.Node
	disabledNodes []*secp256k1.PublicKey
	proxy         *socks.Proxy
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Nothing to do when no path is given.
	if path == "" {
		return path
	}

	// Expand initial ~ to the current user's home directory, or ~otheruser
	// to otheruser's home directory.  On Windows, both forward and backward
	// slashes can be used.
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = homeDir + path[1:]
		}
	}

	return filepath.Clean(os.ExpandEnv(path))
}

// normalizeAddress returns addr with the passed default port appended if
// there is not already a port specified.
func normalizeAddress(addr, defaultPort string) string {
	_, _, err := net.SplitHostPort(addr)
	if err != nil {
		return net.JoinHostPort(addr, defaultPort)
	}
	return addr
}

// normalizeAddresses returns a new slice with all the passed peer addresses
// normalized with the given default port, and all duplicates removed.
func normalizeAddresses(addrs []string, defaultPort string) []string {
	result := make([]string, 0, len(addrs))
	seen := map[string]struct{}{}
	for _, addr := range addrs {
		addr = normalizeAddress(addr, defaultPort)
		if _, ok := seen[addr]; !ok {
			result = append(result, addr)
			seen[addr] = struct{}{}
		}
	}
	return result
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// createDefaultConfigFile writes the sample config file to destPath,
// creating any missing directories.
func createDefaultConfigFile(destPath string) error {
	err := os.MkdirAll(filepath.Dir(destPath), 0700)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte(sampleconfig.Mixrelayd()), 0600)
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfg *config, options flags.Options) *flags.Parser {
	return flags.NewParser(cfg, options)
}

// defaultConfig returns the configuration used when no options are set.
func defaultConfig() config {
	return config{
		HomeDir:         defaultHomeDir,
		ConfigFile:      defaultConfigFile,
		LogDir:          defaultLogDir,
		DebugLevel:      defaultLogLevel,
		IdleTimeout:     transport.DefaultIdleTimeout,
		SeenFilterSize:  defaultSeenFilterSize,
		ProtocolVersion: wire.ProtocolVersion,
		MaxRelayers:     relay.DefaultMaxRelayers,
		DialTimeout:     transport.DefaultDialTimeout,
		LegTimeout:      relay.DefaultLegTimeout,
	}
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in mixrelayd functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
func loadConfig(appName string, args []string) (*config, []string, error) {
	cfg := defaultConfig()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.  Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := newConfigParser(&preCfg, flags.HelpFlag|flags.PassDoubleDash)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
	}

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, version.String())
		os.Exit(0)
	}

	// Update the home directory if specified.  Since the home directory is
	// updated, other variables need to be updated to reflect the new
	// changes.
	usingDefaultConfig := preCfg.ConfigFile == defaultConfigFile
	if preCfg.HomeDir != "" {
		cfg.HomeDir = cleanAndExpandPath(preCfg.HomeDir)
		if preCfg.ConfigFile == defaultConfigFile {
			preCfg.ConfigFile = filepath.Join(cfg.HomeDir,
				defaultConfigFilename)
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(cfg.HomeDir, defaultLogDirname)
		}
	}

	// Create a default config file when one does not exist and the user
	// did not specify an override.
	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	if usingDefaultConfig && !fileExists(configFile) {
		err := createDefaultConfigFile(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating a default config "+
				"file: %v\n", err)
		}
	}

	// Load additional config from file.
	parser := newConfigParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		var e *os.PathError
		if !errors.As(err, &e) {
			err := fmt.Errorf("error parsing config file: %w", err)
			return nil, nil, err
		}
		// A missing config file is not an error.
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	// Create the home directory if it doesn't already exist.
	funcName := "loadConfig"
	err = os.MkdirAll(cfg.HomeDir, 0700)
	if err != nil {
		str := "%s: failed to create home directory: %v"
		err := fmt.Errorf(str, funcName, err)
		return nil, nil, errSuppressUsage(err.Error())
	}

	// Multiple networks can't be selected simultaneously.  Count number of
	// network flags passed and assign the active network params.
	numNets := 0
	cfg.params = chaincfg.MainNetParams()
	if cfg.TestNet {
		numNets++
		cfg.params = chaincfg.TestNet3Params()
	}
	if cfg.SimNet {
		numNets++
		cfg.params = chaincfg.SimNetParams()
	}
	if cfg.RegNet {
		numNets++
		cfg.params = chaincfg.RegNetParams()
	}
	if numNets > 1 {
		str := "%s: the testnet, regnet, and simnet params can't be " +
			"used together -- choose one of the three"
		return nil, nil, fmt.Errorf(str, funcName)
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation.  After log rotation has been initialized,
	// the logger variables may be used.  Logs are written to a directory
	// per network.
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.params.Name)
	if !cfg.NoFileLogging {
		logPath := filepath.Join(cfg.LogDir, defaultLogFilename)
		if err := initLogRotator(logPath); err != nil {
			return nil, nil, errSuppressUsage(err.Error())
		}
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", funcName, err)
	}

	// Listen on all interfaces on the network's default port unless
	// listening is disabled.
	switch {
	case cfg.NoListen:
		cfg.Listeners = nil
	case len(cfg.Listeners) == 0:
		cfg.Listeners = []string{net.JoinHostPort("", cfg.params.DefaultPort)}
	default:
		cfg.Listeners = normalizeAddresses(cfg.Listeners,
			cfg.params.DefaultPort)
	}

	if cfg.MaxRelayers < 1 {
		str := "%s: the maxrelayers option must be positive -- parsed [%d]"
		return nil, nil, fmt.Errorf(str, funcName, cfg.MaxRelayers)
	}
	if cfg.DialTimeout <= 0 || cfg.LegTimeout <= 0 || cfg.IdleTimeout <= 0 {
		str := "%s: the dialtimeout, legtimeout, and idletimeout options " +
			"must be positive"
		return nil, nil, fmt.Errorf(str, funcName)
	}

	// Parse the relay nodes.  Addresses without a port use the network's
	// default port.
	for _, s := range cfg.RelayNodes {
		fields := strings.SplitN(s, ",", 2)
		if len(fields) == 2 {
			fields[0] = normalizeAddress(strings.TrimSpace(fields[0]),
				cfg.params.DefaultPort)
			s = fields[0] + "," + fields[1]
		}
		node, err := rankings.ParseNode(s, cfg.ProtocolVersion)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", funcName, err)
		}
		cfg.relayNodes = append(cfg.relayNodes, node)
	}
	for _, s := range cfg.DisableNodes {
		pkBytes, err := hex.DecodeString(strings.TrimSpace(s))
		if err != nil {
			str := "%s: disabled relay node public key '%s' is not hex: %v"
			return nil, nil, fmt.Errorf(str, funcName, s, err)
		}
		pubKey, err := secp256k1.ParsePubKey(pkBytes)
		if err != nil {
			str := "%s: disabled relay node public key '%s' is invalid: %v"
			return nil, nil, fmt.Errorf(str, funcName, s, err)
		}
		cfg.disabledNodes = append(cfg.disabledNodes, pubKey)
	}
	if cfg.Forward && len(cfg.relayNodes) == 0 {
		str := "%s: the forward option requires at least one relaynode"
		return nil, nil, fmt.Errorf(str, funcName)
	}

	// Setup the proxy used to reach relay nodes when requested.
	if cfg.Proxy != "" {
		_, _, err := net.SplitHostPort(cfg.Proxy)
		if err != nil {
			str := "%s: proxy address '%s' is invalid: %v"
			return nil, nil, fmt.Errorf(str, funcName, cfg.Proxy, err)
		}
		cfg.proxy = &socks.Proxy{
			Addr:         cfg.Proxy,
			Username:     cfg.ProxyUser,
			Password:     cfg.ProxyPass,
			TorIsolation: cfg.TorIsolation,
		}
	} else if cfg.TorIsolation {
		str := "%s: the torisolation option requires a proxy"
		return nil, nil, fmt.Errorf(str, funcName)
	}

	return &cfg, remainingArgs, nil
}
