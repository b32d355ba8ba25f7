package encoding

import "testing"

func TestBase58RoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		{0x00, 0x00, 0x01},
		[]byte("hello world"),
		{0xde, 0xad, 0xbe, 0xef},
	}
	for _, data := range cases {
		encoded := EncodeBase58(data)
		decoded, err := DecodeBase58(encoded)
		if err != nil {
			t.Fatalf("decode %x: %v", data, err)
		}
		if string(decoded) != string(data) {
			t.Fatalf("round trip mismatch for %x: got %x", data, decoded)
		}
	}
}

func TestDecodeBase58RejectsInvalidCharacter(t *testing.T) {
	if _, err := DecodeBase58("0OIl"); err == nil {
		t.Fatal("expected error for characters excluded from the Base58 alphabet")
	}
}

func TestBase58CheckRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	encoded := EncodeBase58Check(0x00, data)

	version, decoded, err := DecodeBase58Check(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 0x00 {
		t.Fatalf("expected version 0x00, got %#x", version)
	}
	if string(decoded) != string(data) {
		t.Fatalf("decoded payload mismatch: got %x want %x", decoded, data)
	}
}

func TestBase58CheckRejectsCorruptedChecksum(t *testing.T) {
	encoded := EncodeBase58Check(0x00, []byte{0xaa, 0xbb, 0xcc})
	corrupted := []byte(encoded)
	corrupted[len(corrupted)-1]++

	if _, _, err := DecodeBase58Check(string(corrupted)); err == nil {
		t.Fatal("expected checksum mismatch to be rejected")
	}
}

func TestDecodeBase58CheckRejectsShortInput(t *testing.T) {
	if _, _, err := DecodeBase58Check(EncodeBase58([]byte{0x01})); err == nil {
		t.Fatal("expected error for a payload too short to contain a checksum")
	}
}
