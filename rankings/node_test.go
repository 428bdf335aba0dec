// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rankings

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// TestParseNode ensures relay node descriptions are parsed as expected.
func TestParseNode(t *testing.T) {
	pubKey := secp256k1.PrivKeyFromBytes([]byte{31: 1}).PubKey()
	pkHex := hex.EncodeToString(pubKey.SerializeCompressed())

	tests := []struct {
		name string
		s    string
		addr string
		pver uint32
		err  error
	}{{
		name: "default pver",
		s:    "127.0.0.1:9108," + pkHex,
		addr: "127.0.0.1:9108",
		pver: 11,
	}, {
		name: "explicit pver with spaces",
		s:    "node.example.com:19108, " + pkHex + " , 9",
		addr: "node.example.com:19108",
		pver: 9,
	}, {
		name: "uncompressed key",
		s:    "[::1]:9108," + hex.EncodeToString(pubKey.SerializeUncompressed()),
		addr: "[::1]:9108",
		pver: 11,
	}, {
		name: "missing key",
		s:    "127.0.0.1:9108",
		err:  ErrInvalidNode,
	}, {
		name: "too many fields",
		s:    "127.0.0.1:9108," + pkHex + ",1,2",
		err:  ErrInvalidNode,
	}, {
		name: "missing port",
		s:    "127.0.0.1," + pkHex,
		err:  ErrInvalidNode,
	}, {
		name: "non-hex key",
		s:    "127.0.0.1:9108,zz",
		err:  ErrInvalidNode,
	}, {
		name: "not a point",
		s:    "127.0.0.1:9108,02" + hex.EncodeToString(make([]byte, 32)),
		err:  ErrInvalidNode,
	}, {
		name: "bad pver",
		s:    "127.0.0.1:9108," + pkHex + ",-1",
		err:  ErrInvalidNode,
	}}

	for _, test := range tests {
		node, err := ParseNode(test.s, 11)
		if !errors.Is(err, test.err) {
			t.Errorf("%q: unexpected error -- got %v, want %v", test.name,
				err, test.err)
			continue
		}
		if err != nil {
			continue
		}
		if node.Addr != test.addr || node.ProtocolVersion != test.pver ||
			!node.Enabled || !node.PubKey.IsEqual(pubKey) {
			t.Errorf("%q: unexpected node %v", test.name, node)
			continue
		}

		// The string form parses back to the same node.
		again, err := ParseNode(node.String(), 0)
		if err != nil {
			t.Errorf("%q: reparse: unexpected error: %v", test.name, err)
			continue
		}
		if again.Addr != node.Addr || again.ProtocolVersion != node.ProtocolVersion ||
			!again.PubKey.IsEqual(node.PubKey) {
			t.Errorf("%q: reparse mismatch: got %v, want %v", test.name,
				again, node)
		}
	}
}
