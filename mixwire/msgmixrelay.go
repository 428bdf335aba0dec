// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixwire

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/txscript/v4"
	"github.com/decred/dcrd/wire"
)

// CmdMixRelay is the command of a mix relay message.  It must match the
// command peers route to their mixing session handler.
const CmdMixRelay = "dsr"

const (
	// MaxMixRelaySignatureLen is the maximum length allowed for either
	// signature carried by a mix relay message.  It fits DER encoded ECDSA
	// signatures with a trailing hash type as well as compact recoverable
	// and Schnorr signatures.
	MaxMixRelaySignatureLen = 96

	// MaxMixRelayScriptLen is the maximum length allowed for any script
	// carried by a mix relay message.
	MaxMixRelayScriptLen = txscript.MaxScriptSize
)

// maxTxInPayload is the largest possible encoding of a TxIn.
var maxTxInPayload = txInFixedSize +
	wire.VarIntSerializeSize(MaxMixRelayScriptLen) + MaxMixRelayScriptLen

// maxMixRelayPayload is the largest possible payload of a mix relay message.
var maxMixRelayPayload = uint32(2*maxTxInPayload + // Identity and input
	2*(wire.VarIntSerializeSize(MaxMixRelaySignatureLen)+
		MaxMixRelaySignatureLen) + // Signatures
	4 + 4 + // Height and relay type
	txOutFixedSize + wire.VarIntSerializeSize(MaxMixRelayScriptLen) +
	MaxMixRelayScriptLen) // Output

// MsgMixRelay implements the wire.Message interface and represents a mix
// relay message.  It proposes a single input and output for a mixing round.
//
// The message must not be modified after SessionSig has been created since
// the signature commits to the serialized Input and Output.
type MsgMixRelay struct {
	Identity    wire.TxIn
	IdentitySig []byte
	SessionSig  []byte
	Height      uint32
	RelayType   uint32
	Input       wire.TxIn
	Output      wire.TxOut
}

// NewMsgMixRelay returns a new unsigned mix relay message.  The session
// signature must be set by the caller before the message is relayed.
func NewMsgMixRelay(identity *wire.TxIn, identitySig []byte, height,
	relayType uint32, in *wire.TxIn, out *wire.TxOut) *MsgMixRelay {

	return &MsgMixRelay{
		Identity:    *identity,
		IdentitySig: identitySig,
		Height:      height,
		RelayType:   relayType,
		Input:       *in,
		Output:      *out,
	}
}

// SessionSigData returns the bytes covered by the session signature: the
// encoding of the proposed input immediately followed by the encoding of the
// proposed output.
func (msg *MsgMixRelay) SessionSigData() ([]byte, error) {
	const op = "MsgMixRelay.SessionSigData"
	size := txInSerializeSize(&msg.Input) + txOutSerializeSize(&msg.Output)
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if err := writeTxIn(op, buf, 0, &msg.Input); err != nil {
		return nil, err
	}
	if err := writeTxOut(op, buf, 0, &msg.Output); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BtcDecode decodes r using the mix relay encoding into the receiver.
// This is part of the wire.Message interface implementation.
func (msg *MsgMixRelay) BtcDecode(r io.Reader, pver uint32) error {
	err := readTxIn(r, pver, &msg.Identity, "MsgMixRelay.Identity")
	if err != nil {
		return err
	}

	msg.IdentitySig, err = wire.ReadVarBytes(r, pver,
		MaxMixRelaySignatureLen, "MsgMixRelay.IdentitySig")
	if err != nil {
		return err
	}

	msg.SessionSig, err = wire.ReadVarBytes(r, pver,
		MaxMixRelaySignatureLen, "MsgMixRelay.SessionSig")
	if err != nil {
		return err
	}

	if msg.Height, err = readUint32(r); err != nil {
		return err
	}
	if msg.RelayType, err = readUint32(r); err != nil {
		return err
	}

	err = readTxIn(r, pver, &msg.Input, "MsgMixRelay.Input")
	if err != nil {
		return err
	}

	return readTxOut(r, pver, &msg.Output, "MsgMixRelay.Output")
}

// BtcEncode encodes the receiver to w using the mix relay encoding.
// This is part of the wire.Message interface implementation.
func (msg *MsgMixRelay) BtcEncode(w io.Writer, pver uint32) error {
	const op = "MsgMixRelay.BtcEncode"

	if l := len(msg.IdentitySig); l > MaxMixRelaySignatureLen {
		msg := fmt.Sprintf("identity signature is too long "+
			"[len %d, max %d]", l, MaxMixRelaySignatureLen)
		return messageError(op, wire.ErrVarBytesTooLong, msg)
	}
	if l := len(msg.SessionSig); l > MaxMixRelaySignatureLen {
		msg := fmt.Sprintf("session signature is too long "+
			"[len %d, max %d]", l, MaxMixRelaySignatureLen)
		return messageError(op, wire.ErrVarBytesTooLong, msg)
	}

	if err := writeTxIn(op, w, pver, &msg.Identity); err != nil {
		return err
	}
	if err := wire.WriteVarBytes(w, pver, msg.IdentitySig); err != nil {
		return err
	}
	if err := wire.WriteVarBytes(w, pver, msg.SessionSig); err != nil {
		return err
	}
	if err := writeUint32(w, msg.Height); err != nil {
		return err
	}
	if err := writeUint32(w, msg.RelayType); err != nil {
		return err
	}
	if err := writeTxIn(op, w, pver, &msg.Input); err != nil {
		return err
	}
	return writeTxOut(op, w, pver, &msg.Output)
}

// Command returns the protocol command string for the message.  This is part
// of the wire.Message interface implementation.
func (msg *MsgMixRelay) Command() string {
	return CmdMixRelay
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the wire.Message interface implementation.
func (msg *MsgMixRelay) MaxPayloadLength(pver uint32) uint32 {
	return maxMixRelayPayload
}

// SerializeSize returns the number of bytes it would take to serialize the
// message.
func (msg *MsgMixRelay) SerializeSize() int {
	return txInSerializeSize(&msg.Identity) +
		wire.VarIntSerializeSize(uint64(len(msg.IdentitySig))) +
		len(msg.IdentitySig) +
		wire.VarIntSerializeSize(uint64(len(msg.SessionSig))) +
		len(msg.SessionSig) +
		4 + 4 +
		txInSerializeSize(&msg.Input) +
		txOutSerializeSize(&msg.Output)
}

// Serialize returns the encoding of the message.
func (msg *MsgMixRelay) Serialize() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, msg.SerializeSize()))
	if err := msg.BtcEncode(buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a message from b.  Unlike BtcDecode, it rejects any
// bytes remaining after the final field.
func (msg *MsgMixRelay) Deserialize(b []byte) error {
	const op = "MsgMixRelay.Deserialize"
	r := bytes.NewReader(b)
	if err := msg.BtcDecode(r, 0); err != nil {
		return err
	}
	if r.Len() != 0 {
		msg := fmt.Sprintf("%d unexpected trailing bytes after mix relay "+
			"message", r.Len())
		return messageError(op, wire.ErrInvalidMsg, msg)
	}
	return nil
}

// Hash returns the hash of the serialized message.  It identifies the message
// for duplicate detection and logging.
func (msg *MsgMixRelay) Hash() chainhash.Hash {
	buf := bytes.NewBuffer(make([]byte, 0, msg.SerializeSize()))
	// Encoding to a buffer only errors for oversized fields, which are
	// still hashed as far as they were written.
	_ = msg.BtcEncode(buf, 0)
	return chainhash.HashH(buf.Bytes())
}

// String returns a human readable summary of the message.  Signatures are
// omitted.
func (msg *MsgMixRelay) String() string {
	return fmt.Sprintf("identity: %v height: %d relaytype: %d in: %v "+
		"out: %v script: %s", msg.Identity.PreviousOutPoint, msg.Height,
		msg.RelayType, msg.Input.PreviousOutPoint,
		dcrutil.Amount(msg.Output.Value),
		hex.EncodeToString(msg.Output.PkScript))
}
