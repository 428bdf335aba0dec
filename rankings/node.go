// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rankings

import (
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Node describes a registered relay node.
type Node struct {
	// Addr is the host:port the node accepts relay connections on.
	Addr string

	// PubKey is the node's identity key.  It determines the node's rank.
	PubKey *secp256k1.PublicKey

	// ProtocolVersion is the highest protocol version the node supports.
	ProtocolVersion uint32

	// Enabled specifies whether the node is eligible to relay.
	Enabled bool
}

// ParseNode parses a relay node description of the form
// addr,pubkeyhex[,pver].  The node is enabled and defaults to the protocol
// version defaultPver when none is specified.
func ParseNode(s string, defaultPver uint32) (*Node, error) {
	fields := strings.Split(s, ",")
	if len(fields) < 2 || len(fields) > 3 {
		str := fmt.Sprintf("relay node %q is not of the form "+
			"addr,pubkey[,pver]", s)
		return nil, rankingError(ErrInvalidNode, str)
	}

	addr := strings.TrimSpace(fields[0])
	if _, _, err := net.SplitHostPort(addr); err != nil {
		str := fmt.Sprintf("relay node address %q is invalid: %v", addr, err)
		return nil, rankingError(ErrInvalidNode, str)
	}

	pkBytes, err := hex.DecodeString(strings.TrimSpace(fields[1]))
	if err != nil {
		str := fmt.Sprintf("relay node public key is not hex: %v", err)
		return nil, rankingError(ErrInvalidNode, str)
	}
	pubKey, err := secp256k1.ParsePubKey(pkBytes)
	if err != nil {
		str := fmt.Sprintf("relay node public key is invalid: %v", err)
		return nil, rankingError(ErrInvalidNode, str)
	}

	pver := defaultPver
	if len(fields) == 3 {
		v, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
		if err != nil {
			str := fmt.Sprintf("relay node protocol version is invalid: %v",
				err)
			return nil, rankingError(ErrInvalidNode, str)
		}
		pver = uint32(v)
	}

	return &Node{
		Addr:            addr,
		PubKey:          pubKey,
		ProtocolVersion: pver,
		Enabled:         true,
	}, nil
}

// String returns the node in the form accepted by ParseNode.
func (n *Node) String() string {
	return fmt.Sprintf("%s,%x,%d", n.Addr, n.PubKey.SerializeCompressed(),
		n.ProtocolVersion)
}
