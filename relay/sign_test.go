// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay

import (
	"bytes"
	"errors"
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	testPrivKey = secp256k1.PrivKeyFromBytes([]byte{31: 1})
	testPubKey  = testPrivKey.PubKey()
)

// TestSignedMessageHash ensures the digest of a signed message commits to the
// message signing prefix followed by the message, both length prefixed.
func TestSignedMessageHash(t *testing.T) {
	msg := []byte("test message")

	var want []byte
	want = append(want, byte(len(signedMessagePrefix)))
	want = append(want, signedMessagePrefix...)
	want = append(want, byte(len(msg)))
	want = append(want, msg...)

	got := signedMessageHash(msg)
	if !bytes.Equal(got, chainhash.HashB(want)) {
		t.Fatalf("unexpected digest -- got %x, want %x", got,
			chainhash.HashB(want))
	}
}

// TestSignVerify ensures signatures produced by SignMessage verify for the
// signed message and key and fail for any other message or key.
func TestSignVerify(t *testing.T) {
	otherPubKey := secp256k1.PrivKeyFromBytes([]byte{31: 2}).PubKey()
	messages := [][]byte{
		nil,
		{0x00},
		[]byte("Decred Signed Message:\n"),
		bytes.Repeat([]byte{0xa5}, 1000),
	}

	for i, msg := range messages {
		sig, err := SignMessage(msg, testPrivKey)
		if err != nil {
			t.Fatalf("#%d: unexpected error: %v", i, err)
		}
		if !VerifyMessage(testPubKey, sig, msg) {
			t.Fatalf("#%d: signature did not verify", i)
		}
		if VerifyMessage(otherPubKey, sig, msg) {
			t.Fatalf("#%d: signature verified for the wrong key", i)
		}
		tampered := append(append([]byte(nil), msg...), 0x01)
		if VerifyMessage(testPubKey, sig, tampered) {
			t.Fatalf("#%d: signature verified for a modified message", i)
		}
	}
}

// TestVerifyMalformed ensures malformed signatures and keys are reported as
// invalid.
func TestVerifyMalformed(t *testing.T) {
	msg := []byte("message")
	sig, err := SignMessage(msg, testPrivKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		pub  *secp256k1.PublicKey
		sig  []byte
	}{
		{"nil pubkey", nil, sig},
		{"nil signature", testPubKey, nil},
		{"empty signature", testPubKey, []byte{}},
		{"truncated signature", testPubKey, sig[:len(sig)-1]},
		{"extended signature", testPubKey, append(append([]byte(nil), sig...), 0)},
		{"zero signature", testPubKey, make([]byte, len(sig))},
	}
	for _, test := range tests {
		if VerifyMessage(test.pub, test.sig, msg) {
			t.Errorf("%q: malformed input verified", test.name)
		}
	}

	// Flipping any single bit of the signature must invalidate it.
	for i := range sig {
		flipped := append([]byte(nil), sig...)
		flipped[i] ^= 0x01
		if VerifyMessage(testPubKey, flipped, msg) {
			t.Fatalf("signature with flipped byte %d verified", i)
		}
	}
}

// TestSignMalformedKey ensures signing with a nil or zero key fails with
// ErrSignFailure.
func TestSignMalformedKey(t *testing.T) {
	zeroKey := secp256k1.PrivKeyFromBytes(make([]byte, 32))
	for _, key := range []*secp256k1.PrivateKey{nil, zeroKey} {
		_, err := SignMessage([]byte("message"), key)
		if !errors.Is(err, ErrSignFailure) {
			t.Fatalf("unexpected error -- got %v, want %v", err,
				ErrSignFailure)
		}
	}
}
