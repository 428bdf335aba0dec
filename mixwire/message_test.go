// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixwire

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/wire"
)

// makeFrame returns a framed message with the provided header fields.
func makeFrame(net wire.CurrencyNet, command string, payload []byte, checksum []byte) []byte {
	var hdr [wire.MessageHeaderSize]byte
	littleEndian.PutUint32(hdr[0:4], uint32(net))
	copy(hdr[4:4+wire.CommandSize], command)
	littleEndian.PutUint32(hdr[16:20], uint32(len(payload)))
	if checksum == nil {
		checksum = chainhash.HashB(payload)[0:4]
	}
	copy(hdr[20:24], checksum)
	return append(hdr[:], payload...)
}

// TestMessageRoundTrip ensures framed mix relay messages written with
// WriteMessageN are parsed by ReadMessageN.
func TestMessageRoundTrip(t *testing.T) {
	msg, payload := newTestMsgMixRelay()

	var buf bytes.Buffer
	n, err := WriteMessageN(&buf, msg, wire.ProtocolVersion, wire.MainNet)
	if err != nil {
		t.Fatalf("WriteMessageN: unexpected error: %v", err)
	}
	wantLen := wire.MessageHeaderSize + len(payload)
	if n != wantLen || buf.Len() != wantLen {
		t.Fatalf("WriteMessageN: wrote %d (buffered %d), want %d", n,
			buf.Len(), wantLen)
	}
	if !bytes.Equal(buf.Bytes(), makeFrame(wire.MainNet, CmdMixRelay, payload, nil)) {
		t.Fatalf("unexpected frame %x", buf.Bytes())
	}

	n, got, gotPayload, err := ReadMessageN(&buf, wire.ProtocolVersion, wire.MainNet)
	if err != nil {
		t.Fatalf("ReadMessageN: unexpected error: %v", err)
	}
	if n != wantLen {
		t.Fatalf("ReadMessageN: read %d bytes, want %d", n, wantLen)
	}
	if !bytes.Equal(gotPayload, payload) {
		t.Fatalf("ReadMessageN: unexpected payload %x", gotPayload)
	}
	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("ReadMessageN\n got: %s want: %s", spew.Sdump(got),
			spew.Sdump(msg))
	}
}

// TestReadMessageErrors ensures malformed frames are rejected with the
// expected error kinds.
func TestReadMessageErrors(t *testing.T) {
	_, payload := newTestMsgMixRelay()
	trailing := append(append([]byte(nil), payload...), 0x00)

	tooLarge := makeFrame(wire.MainNet, CmdMixRelay, nil, nil)
	littleEndian.PutUint32(tooLarge[16:20], wire.MaxMessagePayload+1)

	overMax := makeFrame(wire.MainNet, CmdMixRelay, nil, nil)
	littleEndian.PutUint32(overMax[16:20], maxMixRelayPayload+1)

	tests := []struct {
		name  string
		frame []byte
		err   error
	}{{
		name:  "short header",
		frame: makeFrame(wire.MainNet, CmdMixRelay, payload, nil)[:10],
		err:   io.ErrUnexpectedEOF,
	}, {
		name:  "wrong network",
		frame: makeFrame(wire.TestNet3, CmdMixRelay, payload, nil),
		err:   wire.ErrWrongNetwork,
	}, {
		name:  "payload too large",
		frame: tooLarge,
		err:   wire.ErrPayloadTooLarge,
	}, {
		name:  "payload over message max",
		frame: overMax,
		err:   wire.ErrPayloadTooLarge,
	}, {
		name:  "malformed command",
		frame: makeFrame(wire.MainNet, "ds\x01", payload, nil),
		err:   wire.ErrMalformedCmd,
	}, {
		name:  "bad checksum",
		frame: makeFrame(wire.MainNet, CmdMixRelay, payload, []byte{1, 2, 3, 4}),
		err:   wire.ErrPayloadChecksum,
	}, {
		name:  "trailing payload bytes",
		frame: makeFrame(wire.MainNet, CmdMixRelay, trailing, nil),
		err:   wire.ErrInvalidMsg,
	}, {
		name:  "truncated payload",
		frame: makeFrame(wire.MainNet, CmdMixRelay, payload, nil)[:wire.MessageHeaderSize+5],
		err:   io.ErrUnexpectedEOF,
	}}

	for _, test := range tests {
		_, _, err := ReadMessage(bytes.NewReader(test.frame),
			wire.ProtocolVersion, wire.MainNet)
		if !errors.Is(err, test.err) {
			t.Errorf("%q: unexpected error -- got %v, want %v", test.name,
				err, test.err)
		}
	}
}

// TestReadMessageUnknownCommand ensures frames with unknown commands are
// consumed so following frames on the same stream remain readable.
func TestReadMessageUnknownCommand(t *testing.T) {
	msg, payload := newTestMsgMixRelay()

	var stream bytes.Buffer
	stream.Write(makeFrame(wire.MainNet, "ping", []byte{1, 2, 3, 4, 5, 6, 7, 8}, nil))
	stream.Write(makeFrame(wire.MainNet, CmdMixRelay, payload, nil))

	n, _, _, err := ReadMessageN(&stream, wire.ProtocolVersion, wire.MainNet)
	if !errors.Is(err, wire.ErrUnknownCmd) {
		t.Fatalf("unexpected error -- got %v, want %v", err, wire.ErrUnknownCmd)
	}
	if n != wire.MessageHeaderSize+8 {
		t.Fatalf("unknown frame: read %d bytes, want %d", n,
			wire.MessageHeaderSize+8)
	}

	got, _, err := ReadMessage(&stream, wire.ProtocolVersion, wire.MainNet)
	if err != nil {
		t.Fatalf("ReadMessage: unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("ReadMessage\n got: %s want: %s", spew.Sdump(got),
			spew.Sdump(msg))
	}
}
