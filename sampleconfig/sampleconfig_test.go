// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sampleconfig

import (
	"strings"
	"testing"
)

// TestMixrelayd ensures the sample config is embedded and only contains
// commented out options.
func TestMixrelayd(t *testing.T) {
	conf := Mixrelayd()
	if !strings.HasPrefix(conf, "[Application Options]") {
		t.Fatal("sample config does not start with the options section")
	}
	for i, line := range strings.Split(conf, "\n")[1:] {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, ";") {
			t.Errorf("line %d is not a comment: %q", i+2, line)
		}
	}
}
