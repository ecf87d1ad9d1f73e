package wire

import (
	"bytes"
	"testing"
)

func TestHeaderEncodeRegistrationVector(t *testing.T) {
	h := Header{ClientID: 6970, ReqID: 0, MsgType: Registration, MsgLen: 0}
	got := h.Encode()

	want := make([]byte, EncodedSize)
	want[0] = 0x3A
	want[1] = 0x1B
	want[16] = byte(Registration)

	if !bytes.Equal(got, want) {
		t.Errorf("Encode() = % x, want % x", got, want)
	}
	if len(got) != 25 {
		t.Errorf("len(Encode()) = %d, want 25", len(got))
	}
}

func TestHeaderCodecRoundTrip(t *testing.T) {
	for mt := Registration; mt <= MkDir; mt++ {
		h := Header{ClientID: 42, ReqID: 99, MsgType: mt, MsgLen: 1024}
		decoded, err := DecodeHeader(h.Encode())
		if err != nil {
			t.Fatalf("DecodeHeader(%v) failed: %v", mt, err)
		}
		if decoded != h {
			t.Errorf("DecodeHeader round trip = %+v, want %+v", decoded, h)
		}
	}
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	if _, err := DecodeHeader(make([]byte, EncodedSize-1)); err == nil {
		t.Error("expected error decoding a short buffer, got nil")
	}
}

func TestRPCTypeUnknownRange(t *testing.T) {
	if RPCType(0).Valid() {
		t.Error("RPCType(0).Valid() = true, want false")
	}
	if RPCType(14).Valid() {
		t.Error("RPCType(14).Valid() = true, want false")
	}
	if !RPCType(1).Valid() {
		t.Error("RPCType(1).Valid() = false, want true")
	}
	if !RPCType(13).Valid() {
		t.Error("RPCType(13).Valid() = false, want true")
	}
	if Registration.IsFileIO() {
		t.Error("Registration.IsFileIO() = true, want false")
	}
	if !Read.IsFileIO() {
		t.Error("Read.IsFileIO() = false, want true")
	}
}
