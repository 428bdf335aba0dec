// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rankings

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/decred/dcrd/container/lru"
	"github.com/decred/dcrd/crypto/blake256"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/mixrelay/relay"
)

// defaultSnapshotCacheSize is the number of ranked snapshots kept when no
// cache size is configured.  Relays are proposed for the current and next few
// heights, so only a handful are in use at any time.
const defaultSnapshotCacheSize = 16

// pubKeyID is the compressed serialization of a node public key.
type pubKeyID [secp256k1.PubKeyBytesLenCompressed]byte

// snapshotKey identifies a ranked snapshot.
type snapshotKey struct {
	height uint32
	pver   uint32
}

// rankedNode is a node along with its score at a height.
type rankedNode struct {
	node  Node
	id    pubKeyID
	score [blake256.Size]byte
}

// Ranker is a static registry of relay nodes that ranks the enabled nodes at
// each block height.
//
// The rank of a node at a height is its 1-based position when all enabled
// nodes supporting a protocol version are ordered by ascending
// BLAKE-256(height || compressed pubkey), with the height encoded as a 4 byte
// little endian integer.  Every party with the same registry computes the
// same ranks.
//
// It implements relay.RankingService and is safe for concurrent access.
type Ranker struct {
	mtx       sync.RWMutex
	nodes     map[pubKeyID]*Node
	snapshots *lru.Map[snapshotKey, []rankedNode]
}

var _ relay.RankingService = (*Ranker)(nil)

// New returns an empty Ranker that caches up to cacheSize ranked snapshots.
// A default is used when cacheSize is zero.
func New(cacheSize uint32) *Ranker {
	if cacheSize == 0 {
		cacheSize = defaultSnapshotCacheSize
	}
	return &Ranker{
		nodes:     make(map[pubKeyID]*Node),
		snapshots: lru.NewMap[snapshotKey, []rankedNode](cacheSize),
	}
}

func idOf(pubKey *secp256k1.PublicKey) pubKeyID {
	var id pubKeyID
	copy(id[:], pubKey.SerializeCompressed())
	return id
}

// AddNode registers a relay node.  The node is copied.
func (r *Ranker) AddNode(n *Node) error {
	if n == nil || n.PubKey == nil || n.Addr == "" {
		return rankingError(ErrInvalidNode, "relay node requires an "+
			"address and public key")
	}
	id := idOf(n.PubKey)

	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.nodes[id]; ok {
		str := fmt.Sprintf("relay node %x is already registered", id[:])
		return rankingError(ErrDuplicateNode, str)
	}
	node := *n
	r.nodes[id] = &node
	r.snapshots.Clear()
	log.Debugf("Registered relay node %s (pver %d, enabled %v)", node.Addr,
		node.ProtocolVersion, node.Enabled)
	return nil
}

// RemoveNode unregisters the relay node with the public key.
func (r *Ranker) RemoveNode(pubKey *secp256k1.PublicKey) error {
	id := idOf(pubKey)

	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.nodes[id]; !ok {
		str := fmt.Sprintf("relay node %x is not registered", id[:])
		return rankingError(ErrUnknownNode, str)
	}
	delete(r.nodes, id)
	r.snapshots.Clear()
	return nil
}

// SetEnabled sets whether the relay node with the public key is eligible to
// relay.
func (r *Ranker) SetEnabled(pubKey *secp256k1.PublicKey, enabled bool) error {
	id := idOf(pubKey)

	r.mtx.Lock()
	defer r.mtx.Unlock()
	node, ok := r.nodes[id]
	if !ok {
		str := fmt.Sprintf("relay node %x is not registered", id[:])
		return rankingError(ErrUnknownNode, str)
	}
	if node.Enabled == enabled {
		return nil
	}
	node.Enabled = enabled
	r.snapshots.Clear()
	log.Debugf("Relay node %s enabled: %v", node.Addr, enabled)
	return nil
}

// CountEnabled returns the number of enabled relay nodes supporting the
// protocol version pver.
//
// This is part of the relay.RankingService interface implementation.
func (r *Ranker) CountEnabled(pver uint32) int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	var n int
	for _, node := range r.nodes {
		if node.Enabled && node.ProtocolVersion >= pver {
			n++
		}
	}
	return n
}

// RankedPeer returns the node at the 1-based rank for the block height and
// protocol version.  It returns false when rank is out of range.
//
// This is part of the relay.RankingService interface implementation.
func (r *Ranker) RankedPeer(rank int, height uint32, pver uint32) (*relay.RankedPeer, bool) {
	if rank < 1 {
		return nil, false
	}
	ranked := r.snapshot(height, pver)
	if rank > len(ranked) {
		return nil, false
	}
	rn := &ranked[rank-1]
	return &relay.RankedPeer{
		Rank:   rank,
		Addr:   rn.node.Addr,
		PubKey: rn.node.PubKey,
	}, true
}

// Ranked returns the enabled nodes supporting pver ordered by rank at the
// block height.
func (r *Ranker) Ranked(height uint32, pver uint32) []Node {
	ranked := r.snapshot(height, pver)
	nodes := make([]Node, len(ranked))
	for i := range ranked {
		nodes[i] = ranked[i].node
	}
	return nodes
}

// snapshot returns the ranked nodes for the height and protocol version,
// computing and caching them when needed.  The returned slice must not be
// modified.
func (r *Ranker) snapshot(height uint32, pver uint32) []rankedNode {
	key := snapshotKey{height: height, pver: pver}

	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if ranked, ok := r.snapshots.Get(key); ok {
		return ranked
	}

	var heightBytes [4]byte
	binary.LittleEndian.PutUint32(heightBytes[:], height)

	ranked := make([]rankedNode, 0, len(r.nodes))
	for id, node := range r.nodes {
		if !node.Enabled || node.ProtocolVersion < pver {
			continue
		}
		h := blake256.New()
		h.Write(heightBytes[:])
		h.Write(id[:])
		rn := rankedNode{node: *node, id: id}
		h.Sum(rn.score[:0])
		ranked = append(ranked, rn)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := bytes.Compare(ranked[i].score[:], ranked[j].score[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(ranked[i].id[:], ranked[j].id[:]) < 0
	})

	// Mutations clear the cache while holding the write lock, so a snapshot
	// computed under the read lock is never stale.
	r.snapshots.Put(key, ranked)
	log.Tracef("Ranked %d relay %s at height %d (pver %d)", len(ranked),
		pickNoun(len(ranked), "node", "nodes"), height, pver)
	return ranked
}

// pickNoun returns the singular or plural form of a noun depending on the count
// n.
func pickNoun(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
