// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay

import (
	"github.com/decred/dcrd/crypto/blake256"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// sessionKeyTag domain separates session key derivation from any other use
// of the shared secret.
const sessionKeyTag = "decred-mix-relay-session-key"

// maxSessionKeyRehashes bounds the number of times a digest that overflows
// the secp256k1 group order is rehashed.  The probability of a single
// overflow is roughly 2^-128, so the bound is never reached in practice.
const maxSessionKeyRehashes = 16

// SessionKey is a signing keypair derived from the shared secret of a mixing
// round.  It must only be used for the duration of a single relay
// construction or verification and should be zeroed afterwards.
type SessionKey struct {
	PrivKey *secp256k1.PrivateKey
	PubKey  *secp256k1.PublicKey
}

// Zero clears the private key material.
func (k *SessionKey) Zero() {
	if k.PrivKey != nil {
		k.PrivKey.Zero()
	}
}

// scalarFromDigest maps a BLAKE-256 digest to a scalar in [1, N-1].  Digests
// that overflow the group order are rehashed.
func scalarFromDigest(digest [blake256.Size]byte) (*secp256k1.ModNScalar, error) {
	var scalar secp256k1.ModNScalar
	for i := 0; i <= maxSessionKeyRehashes; i++ {
		if overflow := scalar.SetByteSlice(digest[:]); !overflow {
			if scalar.IsZero() {
				return nil, relayError(ErrInvalidSharedKey,
					"shared secret maps to the zero scalar")
			}
			return &scalar, nil
		}
		digest = blake256.Sum256(digest[:])
	}
	return nil, relayError(ErrInvalidSharedKey, "shared secret does not "+
		"map to a scalar within the secp256k1 group order")
}

// DeriveSessionKey deterministically derives the session signing keypair for
// the provided shared secret.  Identical secrets always result in identical
// keys.
//
// An error with kind ErrInvalidSharedKey is returned when the secret is empty
// or cannot be mapped to a valid private key.
func DeriveSessionKey(sharedSecret string) (*SessionKey, error) {
	if sharedSecret == "" {
		return nil, relayError(ErrInvalidSharedKey, "empty shared secret")
	}

	h := blake256.New()
	h.Write([]byte(sessionKeyTag))
	h.Write([]byte(sharedSecret))
	var digest [blake256.Size]byte
	h.Sum(digest[:0])

	scalar, err := scalarFromDigest(digest)
	if err != nil {
		return nil, err
	}
	privKey := secp256k1.NewPrivateKey(scalar)
	scalar.Zero()
	return &SessionKey{
		PrivKey: privKey,
		PubKey:  privKey.PubKey(),
	}, nil
}
