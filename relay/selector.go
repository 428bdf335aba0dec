// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay

import (
	"github.com/decred/dcrd/crypto/rand"
)

const (
	// DefaultMaxRelayers is the default number of highest ranked relay
	// peers that are considered when choosing relay targets.
	DefaultMaxRelayers = 20

	// relayLegs is the number of distinct peers a message is relayed
	// through.
	relayLegs = 2

	// maxRankRedraws bounds the number of times the second rank is redrawn
	// when it collides with the first.
	maxRankRedraws = 64
)

// RandSource provides uniform random integers.  *rand.PRNG from
// github.com/decred/dcrd/crypto/rand implements this interface.
type RandSource interface {
	// IntN returns a uniform random integer in [0,n).
	IntN(n int) int
}

// cryptoRand is a RandSource backed by the process global CSPRNG.  It is safe
// for concurrent access.
type cryptoRand struct{}

// IntN returns a uniform random integer in [0,n).
func (cryptoRand) IntN(n int) int {
	return rand.IntN(n)
}

// SelectRanks chooses the ranks of the peers to relay a message through.
//
// Ranks are drawn uniformly from [1,n] where n is the smaller of enabled and
// maxRelayers.  When n is at least two, two distinct ranks are returned.  When
// n is one, the single rank 1 is returned since a distinct second peer does
// not exist.  No ranks are returned when there are no enabled peers.
func SelectRanks(enabled, maxRelayers int, rnd RandSource) []int {
	n := enabled
	if maxRelayers < n {
		n = maxRelayers
	}
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []int{1}
	}

	ranks := make([]int, 0, relayLegs)
	first := rnd.IntN(n) + 1
	second := rnd.IntN(n) + 1
	for i := 0; second == first && i < maxRankRedraws; i++ {
		second = rnd.IntN(n) + 1
	}
	if second == first {
		// Only reachable with a degenerate random source.  Fall back to
		// the next rank so both legs still target distinct peers.
		second = first%n + 1
	}
	return append(ranks, first, second)
}
