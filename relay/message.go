// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay

import (
	"fmt"
	"io"

	"github.com/decred/dcrd/wire"
	"github.com/decred/mixrelay/mixwire"
)

// signMessage is the signing function used for session signatures.  It is a
// variable so tests can exercise the self verification failure path.
var signMessage = SignMessage

// NewRelayMessage creates a mix relay message proposing the input in and
// output out for the mixing round identified by sharedSecret, and signs it
// with the session key derived from the secret.
//
// The signature is verified before the message is returned.  No message is
// returned when key derivation, signing, or verification fails.  The returned
// message must not be modified.
func NewRelayMessage(identity *wire.TxIn, identitySig []byte, height,
	relayType uint32, in *wire.TxIn, out *wire.TxOut,
	sharedSecret string) (*mixwire.MsgMixRelay, error) {

	msg := mixwire.NewMsgMixRelay(identity, identitySig, height, relayType,
		in, out)
	if err := signRelay(msg, sharedSecret); err != nil {
		return nil, err
	}
	return msg, nil
}

// signRelay sets the session signature of msg.  Messages that can not be
// encoded are rejected before any key material is derived.
func signRelay(msg *mixwire.MsgMixRelay, sharedSecret string) error {
	// A compact signature is always within the session signature limit, so
	// an unsigned message that encodes will also encode once signed.
	if err := msg.BtcEncode(io.Discard, 0); err != nil {
		str := fmt.Sprintf("unable to serialize relay message: %v", err)
		return RelayError{Err: ErrSignFailure, Description: str}
	}

	key, err := DeriveSessionKey(sharedSecret)
	if err != nil {
		return err
	}
	defer key.Zero()

	data, err := msg.SessionSigData()
	if err != nil {
		str := fmt.Sprintf("unable to serialize proposed input and "+
			"output: %v", err)
		return RelayError{Err: ErrSignFailure, Description: str}
	}

	sig, err := signMessage(data, key.PrivKey)
	if err != nil {
		return err
	}

	if !VerifyMessage(key.PubKey, sig, data) {
		return relayError(ErrSelfVerifyFailure, "session signature failed "+
			"self verification")
	}

	msg.SessionSig = sig
	return nil
}

// VerifyRelay returns whether the session signature of msg was created with
// the session key derived from sharedSecret over the message's proposed input
// and output.
func VerifyRelay(msg *mixwire.MsgMixRelay, sharedSecret string) bool {
	key, err := DeriveSessionKey(sharedSecret)
	if err != nil {
		return false
	}
	defer key.Zero()

	data, err := msg.SessionSigData()
	if err != nil {
		return false
	}
	return VerifyMessage(key.PubKey, msg.SessionSig, data)
}
