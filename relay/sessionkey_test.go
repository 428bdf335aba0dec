// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay

import (
	"bytes"
	"errors"
	"testing"

	"github.com/decred/dcrd/crypto/blake256"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// TestDeriveSessionKey ensures session keys are derived deterministically and
// that distinct secrets result in distinct keys.
func TestDeriveSessionKey(t *testing.T) {
	secrets := []string{"a", "shared secret", "δ-unicode", string(make([]byte, 1024))}

	seen := make(map[string]string)
	for _, secret := range secrets {
		key1, err := DeriveSessionKey(secret)
		if err != nil {
			t.Fatalf("DeriveSessionKey(%q): unexpected error: %v", secret, err)
		}
		key2, err := DeriveSessionKey(secret)
		if err != nil {
			t.Fatalf("DeriveSessionKey(%q): unexpected error: %v", secret, err)
		}

		priv1, priv2 := key1.PrivKey.Serialize(), key2.PrivKey.Serialize()
		if !bytes.Equal(priv1, priv2) {
			t.Fatalf("%q: derived private keys differ: %x != %x", secret,
				priv1, priv2)
		}
		if !key1.PubKey.IsEqual(key2.PubKey) {
			t.Fatalf("%q: derived public keys differ", secret)
		}
		if !key1.PubKey.IsEqual(key1.PrivKey.PubKey()) {
			t.Fatalf("%q: public key does not match private key", secret)
		}

		pub := string(key1.PubKey.SerializeCompressed())
		if other, ok := seen[pub]; ok {
			t.Fatalf("secrets %q and %q derive the same key", other, secret)
		}
		seen[pub] = secret
	}
}

// TestDeriveSessionKeyInvalid ensures secrets that can not be mapped to a
// private key are rejected with ErrInvalidSharedKey.
func TestDeriveSessionKeyInvalid(t *testing.T) {
	key, err := DeriveSessionKey("")
	if !errors.Is(err, ErrInvalidSharedKey) {
		t.Fatalf("unexpected error -- got %v, want %v", err,
			ErrInvalidSharedKey)
	}
	if key != nil {
		t.Fatal("key returned for empty secret")
	}
}

// TestScalarFromDigest ensures digests are mapped to scalars in the valid
// range, overflowing digests are rehashed, and the zero digest is rejected.
func TestScalarFromDigest(t *testing.T) {
	// The group order N.
	var order [blake256.Size]byte
	copy(order[:], secp256k1.Params().N.Bytes())

	var allOnes [blake256.Size]byte
	for i := range allOnes {
		allOnes[i] = 0xff
	}

	tests := []struct {
		name    string
		digest  [blake256.Size]byte
		want    [blake256.Size]byte
		wantErr error
	}{{
		name:   "one",
		digest: [blake256.Size]byte{31: 1},
		want:   [blake256.Size]byte{31: 1},
	}, {
		name:    "zero",
		digest:  [blake256.Size]byte{},
		wantErr: ErrInvalidSharedKey,
	}, {
		name:   "group order rehashed",
		digest: order,
		want:   blake256.Sum256(order[:]),
	}, {
		name:   "max uint256 rehashed",
		digest: allOnes,
		want:   blake256.Sum256(allOnes[:]),
	}}

	for _, test := range tests {
		scalar, err := scalarFromDigest(test.digest)
		if !errors.Is(err, test.wantErr) {
			t.Errorf("%q: unexpected error -- got %v, want %v", test.name,
				err, test.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		got := scalar.Bytes()
		if got != test.want {
			t.Errorf("%q: unexpected scalar -- got %x, want %x", test.name,
				got, test.want)
		}
	}
}

// TestSessionKeyZero ensures zeroing a session key clears the private key.
func TestSessionKeyZero(t *testing.T) {
	key, err := DeriveSessionKey("zero me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key.Zero()
	if !key.PrivKey.Key.IsZero() {
		t.Fatal("private key was not zeroed")
	}

	// Zeroing a key without a private key must not panic.
	(&SessionKey{}).Zero()
}
