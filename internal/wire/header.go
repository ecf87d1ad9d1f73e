// Package wire implements the RPC frame codec: a fixed-size Header
// followed by a length-delimited payload, encoded field-by-field in
// declaration order as little-endian with no padding or self-sync, the
// same "dumb" fixed-layout style the teacher's internal/uapi package uses
// for its ublk command structs.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/nrkernel/corekernel/internal/constants"
)

// EncodedSize is the wire size of a Header in bytes.
const EncodedSize = constants.HeaderSize

// compile-time assertion that EncodedSize is exactly 25: an array type
// with a negative length fails to compile.
var (
	_ [EncodedSize - 25]byte
	_ [25 - EncodedSize]byte
)

// Header is the fixed preamble preceding every RPC payload: the session's
// client id, a monotonic per-session request id used to correlate
// responses, the RPC opcode, and the payload length that follows.
type Header struct {
	ClientID uint64
	ReqID    uint64
	MsgType  RPCType
	MsgLen   uint64
}

// Encode serializes h as EncodedSize little-endian bytes.
func (h Header) Encode() []byte {
	buf := make([]byte, EncodedSize)
	binary.LittleEndian.PutUint64(buf[0:8], h.ClientID)
	binary.LittleEndian.PutUint64(buf[8:16], h.ReqID)
	buf[16] = byte(h.MsgType)
	binary.LittleEndian.PutUint64(buf[17:25], h.MsgLen)
	return buf
}

// DecodeHeader parses exactly EncodedSize bytes into a Header.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != EncodedSize {
		return Header{}, fmt.Errorf("wire: header is %d bytes, want %d", len(buf), EncodedSize)
	}
	return Header{
		ClientID: binary.LittleEndian.Uint64(buf[0:8]),
		ReqID:    binary.LittleEndian.Uint64(buf[8:16]),
		MsgType:  RPCType(buf[16]),
		MsgLen:   binary.LittleEndian.Uint64(buf[17:25]),
	}, nil
}
