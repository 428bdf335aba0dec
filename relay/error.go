// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific RelayError.
const (
	// ErrInvalidSharedKey indicates the shared session secret could not be
	// mapped to a usable signing key.
	ErrInvalidSharedKey = ErrorKind("ErrInvalidSharedKey")

	// ErrSignFailure indicates a signature could not be produced, either
	// because the key is malformed or the signed data could not be
	// serialized.
	ErrSignFailure = ErrorKind("ErrSignFailure")

	// ErrSelfVerifyFailure indicates a freshly produced session signature
	// did not verify against the key that created it.
	ErrSelfVerifyFailure = ErrorKind("ErrSelfVerifyFailure")

	// ErrPeerUnavailable indicates no relay peer exists for a selected
	// rank.
	ErrPeerUnavailable = ErrorKind("ErrPeerUnavailable")

	// ErrConnectFailure indicates a transport session to a relay peer could
	// not be opened.
	ErrConnectFailure = ErrorKind("ErrConnectFailure")

	// ErrSendFailure indicates a relay message could not be written to an
	// open transport session.
	ErrSendFailure = ErrorKind("ErrSendFailure")

	// ErrMissingRankings indicates a relayer was configured without a
	// ranking service.
	ErrMissingRankings = ErrorKind("ErrMissingRankings")

	// ErrMissingTransport indicates a relayer was configured without a
	// transport.
	ErrMissingTransport = ErrorKind("ErrMissingTransport")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// RelayError identifies an error related to constructing or relaying a mix
// relay message.  It has full support for errors.Is and errors.As, so the
// caller can ascertain the specific reason for the error by checking the
// underlying error.
type RelayError struct {
	Description string
	Err         error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RelayError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e RelayError) Unwrap() error {
	return e.Err
}

// relayError creates a RelayError given a set of arguments.
func relayError(kind ErrorKind, desc string) RelayError {
	return RelayError{Err: kind, Description: desc}
}
