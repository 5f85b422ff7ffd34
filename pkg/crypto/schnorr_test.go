package crypto

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func TestSchnorr_BIP340Vector0(t *testing.T) {
	// BIP340 test vector index 0.
	key := make([]byte, 32)
	key[31] = 3
	signer, err := NewSchnorrSigner(key)
	if err != nil {
		t.Fatalf("NewSchnorrSigner() error: %v", err)
	}

	wantPubX := "f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9"
	pubX := signer.PublicKeyX()
	if hex.EncodeToString(pubX[:]) != wantPubX {
		t.Fatalf("PublicKeyX() = %x, want %s", pubX, wantPubX)
	}

	var aux [32]byte
	message := make([]byte, 32)
	sig, err := signer.signWithAux(message, aux)
	if err != nil {
		t.Fatalf("signWithAux() error: %v", err)
	}

	wantSig := "e907831f80848d1069a5371b402410364bdf1c5f8307b0084c55f1ce2dba8215" +
		"25f66a4a85ea8b71e482a74f382d2ce5ebeee8fdb2172f477df4900d310536c0"
	if got := hex.EncodeToString(sig.Serialize()); got != wantSig {
		t.Errorf("signature = %s, want %s", got, wantSig)
	}

	if !VerifySchnorr(pubX[:], sig, message) {
		t.Error("vector signature should verify")
	}
}

func TestSchnorr_EvenYConvention(t *testing.T) {
	// A key and its negation map to the same x-only public key.
	key := make([]byte, 32)
	key[31] = 5

	var d secp256k1.ModNScalar
	d.SetByteSlice(key)
	d.Negate()
	negated := d.Bytes()

	s1, err := NewSchnorrSigner(key)
	if err != nil {
		t.Fatalf("NewSchnorrSigner() error: %v", err)
	}
	s2, err := NewSchnorrSigner(negated[:])
	if err != nil {
		t.Fatalf("NewSchnorrSigner() error: %v", err)
	}

	if s1.PublicKeyX() != s2.PublicKeyX() {
		t.Error("negated keys should share the same x-only public key")
	}
}

func TestNewSchnorrSigner_InvalidKeys(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
	}{
		{"zero", make([]byte, 32)},
		{"short", make([]byte, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSchnorrSigner(tt.key); !errors.Is(err, ErrInvalidPrivateKey) {
				t.Errorf("NewSchnorrSigner() error = %v, want ErrInvalidPrivateKey", err)
			}
		})
	}
}

func TestSchnorr_SignVerifyRoundTrip(t *testing.T) {
	signer, err := GenerateSchnorrSigner()
	if err != nil {
		t.Fatalf("GenerateSchnorrSigner() error: %v", err)
	}

	message := []byte("schnorr round trip message")
	sig, err := signer.Sign(message)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	pubX := signer.PublicKeyX()
	if !VerifySchnorr(pubX[:], sig, message) {
		t.Fatal("signature should verify against the signing key")
	}
	if VerifySchnorr(pubX[:], sig, []byte("different message")) {
		t.Error("signature should not verify against a different message")
	}
}

func TestSchnorr_MutationFailsVerification(t *testing.T) {
	signer, err := GenerateSchnorrSigner()
	if err != nil {
		t.Fatalf("GenerateSchnorrSigner() error: %v", err)
	}
	message := []byte("mutation test")
	sig, err := signer.Sign(message)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	pubX := signer.PublicKeyX()

	for _, i := range []int{0, 15, 31} {
		mutated := *sig
		mutated.R[i] ^= 0x01
		if VerifySchnorr(pubX[:], &mutated, message) {
			t.Errorf("flipping r byte %d should break verification", i)
		}

		mutated = *sig
		mutated.S[i] ^= 0x01
		if VerifySchnorr(pubX[:], &mutated, message) {
			t.Errorf("flipping s byte %d should break verification", i)
		}
	}
}

func TestVerifySchnorr_MalformedInputs(t *testing.T) {
	signer, err := GenerateSchnorrSigner()
	if err != nil {
		t.Fatalf("GenerateSchnorrSigner() error: %v", err)
	}
	message := []byte("malformed inputs")
	sig, err := signer.Sign(message)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	pubX := signer.PublicKeyX()

	if VerifySchnorr(pubX[:16], sig, message) {
		t.Error("short public key should verify as false")
	}
	if VerifySchnorr(pubX[:], nil, message) {
		t.Error("nil signature should verify as false")
	}

	// An x value at or above the field prime cannot be lifted.
	overflowX := make([]byte, 32)
	for i := range overflowX {
		overflowX[i] = 0xff
	}
	if VerifySchnorr(overflowX, sig, message) {
		t.Error("non-liftable x should verify as false, not error")
	}
}
