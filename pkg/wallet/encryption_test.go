package wallet

import (
	"bytes"
	"errors"
	"testing"
)

// testKDFParams keeps Argon2id cheap for tests.
func testKDFParams() KDFParams {
	return KDFParams{Time: 1, MemoryKiB: 64, Threads: 1}
}

func TestSealOpenSeed_RoundTrip(t *testing.T) {
	seed := MnemonicToSeed(hardhatMnemonic)
	passphrase := []byte("correct horse battery staple")

	sealed, err := SealSeed(seed, passphrase, testKDFParams())
	if err != nil {
		t.Fatalf("SealSeed() error: %v", err)
	}

	opened, err := OpenSeed(sealed, passphrase)
	if err != nil {
		t.Fatalf("OpenSeed() error: %v", err)
	}
	if !bytes.Equal(opened, seed) {
		t.Error("opened seed should match the original")
	}
}

func TestSealSeed_FreshSaltAndNonce(t *testing.T) {
	seed := MnemonicToSeed(hardhatMnemonic)
	passphrase := []byte("pass")

	s1, err := SealSeed(seed, passphrase, testKDFParams())
	if err != nil {
		t.Fatalf("SealSeed() error: %v", err)
	}
	s2, err := SealSeed(seed, passphrase, testKDFParams())
	if err != nil {
		t.Fatalf("SealSeed() error: %v", err)
	}
	if bytes.Equal(s1, s2) {
		t.Error("sealing twice should produce distinct ciphertexts")
	}
}

func TestOpenSeed_WrongPassphrase(t *testing.T) {
	seed := MnemonicToSeed(hardhatMnemonic)
	sealed, err := SealSeed(seed, []byte("right"), testKDFParams())
	if err != nil {
		t.Fatalf("SealSeed() error: %v", err)
	}

	if _, err := OpenSeed(sealed, []byte("wrong")); !errors.Is(err, ErrBadPassphrase) {
		t.Errorf("OpenSeed() error = %v, want ErrBadPassphrase", err)
	}
}

func TestOpenSeed_Tampered(t *testing.T) {
	seed := MnemonicToSeed(hardhatMnemonic)
	passphrase := []byte("pass")
	sealed, err := SealSeed(seed, passphrase, testKDFParams())
	if err != nil {
		t.Fatalf("SealSeed() error: %v", err)
	}

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0x01
	if _, err := OpenSeed(tampered, passphrase); !errors.Is(err, ErrBadPassphrase) {
		t.Errorf("tampered OpenSeed() error = %v, want ErrBadPassphrase", err)
	}
}

func TestOpenSeed_Malformed(t *testing.T) {
	seed := MnemonicToSeed(hardhatMnemonic)
	passphrase := []byte("pass")
	sealed, err := SealSeed(seed, passphrase, testKDFParams())
	if err != nil {
		t.Fatalf("SealSeed() error: %v", err)
	}

	if _, err := OpenSeed(sealed[:10], passphrase); err == nil {
		t.Error("truncated input should fail")
	}

	badVersion := append([]byte(nil), sealed...)
	badVersion[0] = 99
	if _, err := OpenSeed(badVersion, passphrase); err == nil {
		t.Error("unknown version should fail")
	}
}
