// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay

import (
	"errors"
	"io"
	"testing"
)

// TestErrorKindStringer tests the stringized output for the ErrorKind type.
func TestErrorKindStringer(t *testing.T) {
	tests := []struct {
		in   ErrorKind
		want string
	}{
		{ErrInvalidSharedKey, "ErrInvalidSharedKey"},
		{ErrSignFailure, "ErrSignFailure"},
		{ErrSelfVerifyFailure, "ErrSelfVerifyFailure"},
		{ErrPeerUnavailable, "ErrPeerUnavailable"},
		{ErrConnectFailure, "ErrConnectFailure"},
		{ErrSendFailure, "ErrSendFailure"},
		{ErrMissingRankings, "ErrMissingRankings"},
		{ErrMissingTransport, "ErrMissingTransport"},
	}

	for i, test := range tests {
		result := test.in.Error()
		if result != test.want {
			t.Errorf("#%d: got: %s want: %s", i, result, test.want)
			continue
		}
	}
}

// TestRelayError tests the error output for the RelayError type.
func TestRelayError(t *testing.T) {
	tests := []struct {
		in   RelayError
		want string
	}{{
		RelayError{Description: "some error"},
		"some error",
	}, {
		RelayError{Description: "human-readable error"},
		"human-readable error",
	}}

	for i, test := range tests {
		result := test.in.Error()
		if result != test.want {
			t.Errorf("#%d: got: %s want: %s", i, result, test.want)
			continue
		}
	}
}

// TestErrorKindIsAs ensures both ErrorKind and RelayError can be identified
// as being a specific error kind via errors.Is and unwrapped via errors.As.
func TestErrorKindIsAs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
		wantAs    ErrorKind
	}{{
		name:      "ErrInvalidSharedKey == ErrInvalidSharedKey",
		err:       ErrInvalidSharedKey,
		target:    ErrInvalidSharedKey,
		wantMatch: true,
		wantAs:    ErrInvalidSharedKey,
	}, {
		name:      "RelayError.ErrInvalidSharedKey == ErrInvalidSharedKey",
		err:       relayError(ErrInvalidSharedKey, ""),
		target:    ErrInvalidSharedKey,
		wantMatch: true,
		wantAs:    ErrInvalidSharedKey,
	}, {
		name:      "ErrConnectFailure != ErrPeerUnavailable",
		err:       ErrConnectFailure,
		target:    ErrPeerUnavailable,
		wantMatch: false,
		wantAs:    ErrConnectFailure,
	}, {
		name:      "RelayError.ErrSelfVerifyFailure != ErrSignFailure",
		err:       relayError(ErrSelfVerifyFailure, ""),
		target:    ErrSignFailure,
		wantMatch: false,
		wantAs:    ErrSelfVerifyFailure,
	}, {
		name:      "RelayError.ErrSendFailure != io.EOF",
		err:       relayError(ErrSendFailure, ""),
		target:    io.EOF,
		wantMatch: false,
		wantAs:    ErrSendFailure,
	}}

	for _, test := range tests {
		// Ensure the error matches or not depending on the expected result.
		result := errors.Is(test.err, test.target)
		if result != test.wantMatch {
			t.Errorf("%s: incorrect error identification -- got %v, want %v",
				test.name, result, test.wantMatch)
			continue
		}

		// Ensure the underlying error kind can be unwrapped and is the
		// expected kind.
		var kind ErrorKind
		if !errors.As(test.err, &kind) {
			t.Errorf("%s: unable to unwrap to error kind", test.name)
			continue
		}
		if kind != test.wantAs {
			t.Errorf("%s: unexpected unwrapped error kind -- got %v, want %v",
				test.name, kind, test.wantAs)
			continue
		}
	}
}
