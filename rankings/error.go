// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rankings

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific RankingError.
const (
	// ErrInvalidNode indicates a relay node description is malformed or
	// missing a required field.
	ErrInvalidNode = ErrorKind("ErrInvalidNode")

	// ErrDuplicateNode indicates a relay node with the same public key is
	// already registered.
	ErrDuplicateNode = ErrorKind("ErrDuplicateNode")

	// ErrUnknownNode indicates no relay node is registered with a public
	// key.
	ErrUnknownNode = ErrorKind("ErrUnknownNode")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// RankingError identifies an error related to the relay node registry.  It
// has full support for errors.Is and errors.As, so the caller can ascertain
// the specific reason for the error by checking the underlying error.
type RankingError struct {
	Description string
	Err         error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RankingError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e RankingError) Unwrap() error {
	return e.Err
}

// rankingError creates a RankingError given a set of arguments.
func rankingError(kind ErrorKind, desc string) RankingError {
	return RankingError{Err: kind, Description: desc}
}
