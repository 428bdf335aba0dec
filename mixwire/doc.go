// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package mixwire implements the wire encoding of the mix relay message.

A mix relay message carries a single proposed transaction input and output
for a mixing round along with two signatures: one identifying the relaying
party, and one produced by a key derived from the round's shared secret that
ties the input and output to the round.

# Message Layout

The payload of a mix relay message is a fixed order encoding of the following
fields.  Receivers decode positionally, so the order is part of the protocol:

	identity      TxIn      identity anchor of the relaying party
	identity sig  VarBytes  signature by the relaying party
	session sig   VarBytes  signature by the round key over input||output
	height        uint32    block height of the mixing round
	relay type    uint32    opaque relay phase tag
	input         TxIn      proposed input
	output        TxOut     proposed output

A TxIn is encoded as its previous outpoint (hash, index, tree) followed by the
sequence, input value, block height, block index, and a variable length
signature script.  A TxOut is encoded as its value, script version, and a
variable length public key script.  All integers are little endian and all
variable length fields are prefixed with a Decred variable length integer.

# Framing

Messages are framed with the standard Decred message header (network magic,
command, payload length, and checksum) so they may be written with
wire.WriteMessage.  ReadMessage parses frames carrying the commands defined by
this package.
*/
package mixwire
