// Copyright (c) 2017-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sampleconfig provides the commented example config file written by
// mixrelayd when no config file exists.
package sampleconfig

import (
	_ "embed"
)

// sampleMixrelaydConf is a string containing the commented example config
// for mixrelayd.
//
//go:embed sample-mixrelayd.conf
var sampleMixrelaydConf string

// Mixrelayd returns a string containing the commented example config for
// mixrelayd.
func Mixrelayd() string {
	return sampleMixrelaydConf
}
