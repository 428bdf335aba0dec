// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixwire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/wire"
)

// makeEmptyMessage creates a message of the appropriate concrete type based
// on the command.
func makeEmptyMessage(command string) (wire.Message, error) {
	const op = "makeEmptyMessage"
	switch command {
	case CmdMixRelay:
		return &MsgMixRelay{}, nil
	}
	str := fmt.Sprintf("unhandled command [%s]", command)
	return nil, messageError(op, wire.ErrUnknownCmd, str)
}

// messageHeader defines the header structure for all Decred protocol
// messages.
type messageHeader struct {
	magic    wire.CurrencyNet // 4 bytes
	command  string           // 12 bytes
	length   uint32           // 4 bytes
	checksum [4]byte          // 4 bytes
}

// readMessageHeader reads a Decred message header from r.
func readMessageHeader(r io.Reader) (int, *messageHeader, error) {
	// The header is a fixed size, so read it entirely before parsing in
	// order to report the correct number of bytes read on a short read.
	var headerBytes [wire.MessageHeaderSize]byte
	n, err := io.ReadFull(r, headerBytes[:])
	if err != nil {
		return n, nil, err
	}

	hdr := messageHeader{}
	hdr.magic = wire.CurrencyNet(littleEndian.Uint32(headerBytes[0:4]))
	command := headerBytes[4 : 4+wire.CommandSize]
	hdr.command = string(bytes.TrimRight(command, string(rune(0))))
	hdr.length = littleEndian.Uint32(headerBytes[16:20])
	copy(hdr.checksum[:], headerBytes[20:24])

	return n, &hdr, nil
}

// WriteMessageN writes a mix relay protocol message to w including the
// necessary header information and returns the number of bytes written.
func WriteMessageN(w io.Writer, msg wire.Message, pver uint32, net wire.CurrencyNet) (int, error) {
	return wire.WriteMessageN(w, msg, pver, net)
}

// ReadMessageN reads, validates, and parses the next mix relay protocol
// message from r for the provided protocol version and network.  It returns
// the number of bytes read in addition to the parsed message and the raw
// payload.
//
// Frames carrying commands not defined by this package are consumed in full
// and reported with wire.ErrUnknownCmd so the caller may continue reading
// from the same stream.
func ReadMessageN(r io.Reader, pver uint32, net wire.CurrencyNet) (int, wire.Message, []byte, error) {
	const op = "ReadMessage"
	totalBytes := 0
	n, hdr, err := readMessageHeader(r)
	totalBytes += n
	if err != nil {
		return totalBytes, nil, nil, err
	}

	// Enforce maximum message payload.
	if hdr.length > wire.MaxMessagePayload {
		msg := fmt.Sprintf("message payload is too large - header "+
			"indicates %d bytes, but max message payload is %d bytes.",
			hdr.length, wire.MaxMessagePayload)
		return totalBytes, nil, nil, messageError(op, wire.ErrPayloadTooLarge, msg)
	}

	// Check for messages from the wrong network.
	if hdr.magic != net {
		msg := fmt.Sprintf("message from other network [%v]", hdr.magic)
		return totalBytes, nil, nil, messageError(op, wire.ErrWrongNetwork, msg)
	}

	// Check for malformed commands.
	command := hdr.command
	if !isStrictAscii(command) {
		msg := fmt.Sprintf("invalid command %v", []byte(command))
		return totalBytes, nil, nil, messageError(op, wire.ErrMalformedCmd, msg)
	}

	msg, err := makeEmptyMessage(command)
	if err != nil {
		n, discardErr := io.CopyN(io.Discard, r, int64(hdr.length))
		totalBytes += int(n)
		if discardErr != nil {
			return totalBytes, nil, nil, discardErr
		}
		return totalBytes, nil, nil, err
	}

	// A malicious peer could otherwise create a well-formed header with a
	// huge length in order to exhaust memory.
	mpl := msg.MaxPayloadLength(pver)
	if hdr.length > mpl {
		msg := fmt.Sprintf("payload exceeds max length - header "+
			"indicates %v bytes, but max payload size for messages of "+
			"type [%v] is %v.", hdr.length, command, mpl)
		return totalBytes, nil, nil, messageError(op, wire.ErrPayloadTooLarge, msg)
	}

	payload := make([]byte, hdr.length)
	n, err = io.ReadFull(r, payload)
	totalBytes += n
	if err != nil {
		return totalBytes, nil, nil, err
	}

	checksum := chainhash.HashB(payload)[0:4]
	if !bytes.Equal(checksum, hdr.checksum[:]) {
		msg := fmt.Sprintf("payload checksum failed - header indicates %v, "+
			"but actual checksum is %v.", hdr.checksum, checksum)
		return totalBytes, nil, nil, messageError(op, wire.ErrPayloadChecksum, msg)
	}

	pr := bytes.NewReader(payload)
	if err := msg.BtcDecode(pr, pver); err != nil {
		return totalBytes, nil, nil, err
	}
	if pr.Len() != 0 {
		msg := fmt.Sprintf("%d unexpected trailing bytes in [%s] payload",
			pr.Len(), command)
		return totalBytes, nil, nil, messageError(op, wire.ErrInvalidMsg, msg)
	}

	return totalBytes, msg, payload, nil
}

// ReadMessage reads, validates, and parses the next mix relay protocol
// message from r.  It only differs from ReadMessageN in that it doesn't return
// the number of bytes read.
func ReadMessage(r io.Reader, pver uint32, net wire.CurrencyNet) (wire.Message, []byte, error) {
	_, msg, buf, err := ReadMessageN(r, pver, net)
	return msg, buf, err
}
