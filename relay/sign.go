// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay

import (
	"bytes"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/decred/dcrd/wire"
)

// signedMessagePrefix is prepended to every signed message so signatures can
// not be reused as transaction or other protocol signatures.  It matches the
// prefix of the signmessage and verifymessage RPCs.
const signedMessagePrefix = "Decred Signed Message:\n"

// signedMessageHash returns the digest signed for message.
func signedMessageHash(message []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(wire.VarIntSerializeSize(uint64(len(signedMessagePrefix))) +
		len(signedMessagePrefix) +
		wire.VarIntSerializeSize(uint64(len(message))) + len(message))
	// Writes to a bytes.Buffer never fail.
	_ = wire.WriteVarString(&buf, 0, signedMessagePrefix)
	_ = wire.WriteVarBytes(&buf, 0, message)
	return chainhash.HashB(buf.Bytes())
}

// SignMessage returns a compact signature of message by key using the
// network's message signing convention.
//
// An error with kind ErrSignFailure is returned when the key is nil or zero.
func SignMessage(message []byte, key *secp256k1.PrivateKey) ([]byte, error) {
	if key == nil || key.Key.IsZero() {
		return nil, relayError(ErrSignFailure, "malformed signing key")
	}
	return ecdsa.SignCompact(key, signedMessageHash(message), true), nil
}

// VerifyMessage returns whether sig is a signature of message created by the
// private key for pubKey.  Malformed signatures and keys are reported as
// invalid rather than as errors.
func VerifyMessage(pubKey *secp256k1.PublicKey, sig, message []byte) bool {
	if pubKey == nil {
		return false
	}
	recovered, _, err := ecdsa.RecoverCompact(sig, signedMessageHash(message))
	if err != nil {
		return false
	}
	return recovered.IsEqual(pubKey)
}
