package crypto

import (
	"encoding/hex"
	"testing"
)

func TestKeccak256_KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{
			name: "empty",
			in:   nil,
			want: "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		},
		{
			name: "abc",
			in:   []byte("abc"),
			want: "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Keccak256(tt.in)
			if hex.EncodeToString(got[:]) != tt.want {
				t.Errorf("Keccak256(%q) = %x, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeccak256_Chunked(t *testing.T) {
	whole := Keccak256([]byte("abc"))
	chunked := Keccak256([]byte("a"), []byte("bc"))
	if whole != chunked {
		t.Error("chunked input should hash identically to concatenated input")
	}
}

func TestAddressFromPubKey_KnownKey(t *testing.T) {
	// The address of private key 1 is a well-known EVM vector.
	key := make([]byte, 32)
	key[31] = 1
	signer, err := NewECDSASigner(key)
	if err != nil {
		t.Fatalf("NewECDSASigner() error: %v", err)
	}

	want := "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"
	if got := signer.Address().String(); got != want {
		t.Errorf("Address() = %s, want %s", got, want)
	}
}
