// Copyright (c) 2017-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

func zero(b []byte) {
	for i := 0; i < len(b); i++ {
		b[i] = 0x00
	}
}

// promptSecret reads the shared secret of the mixing round from the terminal
// without echoing it.
func promptSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("a shared secret is required: set --secret " +
			"or SENDRELAY_SECRET, or run from a terminal to be prompted")
	}

	fmt.Fprint(os.Stderr, "Shared secret: ")
	secret, err := term.ReadPassword(fd)
	fmt.Fprint(os.Stderr, "\n")
	if err != nil {
		return "", fmt.Errorf("unable to read secret: %w", err)
	}
	defer zero(secret)
	if len(secret) == 0 {
		return "", errors.New("empty shared secret")
	}
	return string(secret), nil
}
