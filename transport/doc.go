// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package transport provides TCP connectivity to mix relay nodes.

Transport implements relay.Transport by dialing relay nodes directly, through
a SOCKS5 proxy, or with a caller provided dialer, and writing mix relay
messages with the standard Decred message framing.  Sessions are single use
and carry no handshake: a relay leg connects, writes one frame, and closes.

Server is the receiving side.  It reads framed messages from accepted
connections, discards frames for other networks or with invalid checksums,
drops relays it has recently seen, and hands the remaining messages to a
handler.  Its HandleConn method is suitable as the OnAccept callback of a
connmgr.ConnManager.
*/
package transport
