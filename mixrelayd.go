// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/decred/mixrelay/internal/version"
)

// mixrelaydMain is the real main function for mixrelayd.  It is necessary to
// work around the fact that deferred functions do not run when os.Exit() is
// called.
func mixrelaydMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	cfg, _, err := loadConfig(appName, os.Args[1:])
	if err != nil {
		usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
		fmt.Fprintln(os.Stderr, err)
		var e errSuppressUsage
		if !errors.As(err, &e) {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Get a context that will be canceled when a shutdown signal has been
	// triggered from an OS signal such as SIGINT (Ctrl+C).
	ctx := shutdownListener()
	defer mxrdLog.Info("Shutdown complete")

	// Show version and home dir at startup.
	mxrdLog.Infof("Version %s (Go version %s %s/%s)", version.String(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
	mxrdLog.Infof("Home dir: %s", cfg.HomeDir)
	mxrdLog.Infof("Active network: %s", cfg.params.Name)
	if cfg.NoFileLogging {
		mxrdLog.Info("File logging disabled")
	}
	if cfg.SharedSecret != "" {
		mxrdLog.Info("Verifying session signatures of received relays")
	}

	// Return now if a shutdown signal was triggered.
	if shutdownRequested(ctx) {
		return nil
	}

	s, err := newServer(ctx, cfg)
	if err != nil {
		mxrdLog.Errorf("Unable to start server: %v", err)
		return err
	}
	mxrdLog.Infof("Loaded %d relay nodes (forwarding %v)",
		len(cfg.relayNodes), cfg.Forward)

	return s.Run(ctx)
}

func main() {
	// Work around defer not working after os.Exit()
	if err := mixrelaydMain(); err != nil {
		os.Exit(1)
	}
}
