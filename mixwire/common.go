// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixwire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/decred/dcrd/wire"
)

// littleEndian is a convenience variable since binary.LittleEndian is quite
// long.
var littleEndian = binary.LittleEndian

// txInFixedSize is the number of bytes of a serialized TxIn excluding the
// variable length signature script.  It is made up of the previous outpoint
// hash, index, and tree followed by the sequence, value, block height, and
// block index.
const txInFixedSize = 32 + 4 + 1 + 4 + 8 + 4 + 4

// txOutFixedSize is the number of bytes of a serialized TxOut excluding the
// variable length public key script.
const txOutFixedSize = 8 + 2

// messageError creates a wire.MessageError given a set of arguments.
func messageError(fn string, code wire.ErrorCode, desc string) *wire.MessageError {
	return &wire.MessageError{Func: fn, ErrorCode: code, Description: desc}
}

func writeUint16(w io.Writer, v uint16) error {
	var b [2]byte
	littleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	littleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	littleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return littleEndian.Uint16(b[:]), nil
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return littleEndian.Uint32(b[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return littleEndian.Uint64(b[:]), nil
}

// writeTxIn encodes ti to w.  The outpoint uses the standard Decred outpoint
// encoding followed by every witness field of the input.
func writeTxIn(op string, w io.Writer, pver uint32, ti *wire.TxIn) error {
	if l := len(ti.SignatureScript); l > MaxMixRelayScriptLen {
		msg := fmt.Sprintf("signature script is too long [len %d, max %d]",
			l, MaxMixRelayScriptLen)
		return messageError(op, wire.ErrVarBytesTooLong, msg)
	}

	err := wire.WriteOutPoint(w, pver, wire.TxVersion, &ti.PreviousOutPoint)
	if err != nil {
		return err
	}
	if err := writeUint32(w, ti.Sequence); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(ti.ValueIn)); err != nil {
		return err
	}
	if err := writeUint32(w, ti.BlockHeight); err != nil {
		return err
	}
	if err := writeUint32(w, ti.BlockIndex); err != nil {
		return err
	}
	return wire.WriteVarBytes(w, pver, ti.SignatureScript)
}

// readTxIn decodes the next TxIn encoded by writeTxIn from r into ti.
func readTxIn(r io.Reader, pver uint32, ti *wire.TxIn, fieldName string) error {
	err := wire.ReadOutPoint(r, pver, wire.TxVersion, &ti.PreviousOutPoint)
	if err != nil {
		return err
	}
	if ti.Sequence, err = readUint32(r); err != nil {
		return err
	}
	valueIn, err := readUint64(r)
	if err != nil {
		return err
	}
	ti.ValueIn = int64(valueIn)
	if ti.BlockHeight, err = readUint32(r); err != nil {
		return err
	}
	if ti.BlockIndex, err = readUint32(r); err != nil {
		return err
	}
	ti.SignatureScript, err = wire.ReadVarBytes(r, pver,
		MaxMixRelayScriptLen, fieldName+".SignatureScript")
	return err
}

// writeTxOut encodes to to w.
func writeTxOut(op string, w io.Writer, pver uint32, to *wire.TxOut) error {
	if l := len(to.PkScript); l > MaxMixRelayScriptLen {
		msg := fmt.Sprintf("public key script is too long [len %d, max %d]",
			l, MaxMixRelayScriptLen)
		return messageError(op, wire.ErrVarBytesTooLong, msg)
	}

	if err := writeUint64(w, uint64(to.Value)); err != nil {
		return err
	}
	if err := writeUint16(w, to.Version); err != nil {
		return err
	}
	return wire.WriteVarBytes(w, pver, to.PkScript)
}

// readTxOut decodes the next TxOut encoded by writeTxOut from r into to.
func readTxOut(r io.Reader, pver uint32, to *wire.TxOut, fieldName string) error {
	value, err := readUint64(r)
	if err != nil {
		return err
	}
	to.Value = int64(value)
	if to.Version, err = readUint16(r); err != nil {
		return err
	}
	to.PkScript, err = wire.ReadVarBytes(r, pver, MaxMixRelayScriptLen,
		fieldName+".PkScript")
	return err
}

// txInSerializeSize returns the number of bytes writeTxIn produces for ti.
func txInSerializeSize(ti *wire.TxIn) int {
	n := len(ti.SignatureScript)
	return txInFixedSize + wire.VarIntSerializeSize(uint64(n)) + n
}

// txOutSerializeSize returns the number of bytes writeTxOut produces for to.
func txOutSerializeSize(to *wire.TxOut) int {
	n := len(to.PkScript)
	return txOutFixedSize + wire.VarIntSerializeSize(uint64(n)) + n
}

// isStrictAscii returns whether the provided string contains only printable
// ASCII characters.
func isStrictAscii(s string) bool {
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}
