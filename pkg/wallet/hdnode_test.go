package wallet

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
)

// The well-known hardhat development mnemonic and the first ten private
// keys it derives on the standard Ethereum account chain.
const hardhatMnemonic = "test test test test test test test test test test test junk"

var hardhatKeys = []string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a",
	"7c852118294e51e653712a81e05800f419141751be58f605c371e15141b007a6",
	"47e179ec197488593b187f80a00eb0da91f1b9d0b13f8733639f19c30a34926a",
	"8b3a350cf5c34c9194ca85829a2df0ec3153be0318b5e2d3348e872092edffba",
	"92db14e403b83dfe3df233f83dfa3a0d7096f21ca9b0d6d6b8d88b2b4ec1564e",
	"4bbbf85ce3377467afe5d46f804f221813b2bb87f24d81f60f1fcdbf7cbf4356",
	"dbda1821b80551c9d65939329250298aa3472ba22feea921c0cf5d620ea67b97",
	"2a871d0798f97d79848a013d4936a73bf4cc922c825d33c1cf7073dff6d409c6",
}

func TestDerivePath_HardhatVectors(t *testing.T) {
	master, err := NodeFromMnemonic(hardhatMnemonic, "")
	if err != nil {
		t.Fatalf("NodeFromMnemonic() error: %v", err)
	}

	for i, want := range hardhatKeys {
		path := fmt.Sprintf("%s/%d", DefaultAccountPathPrefix, i)
		node, err := master.DerivePath(path)
		if err != nil {
			t.Fatalf("DerivePath(%q) error: %v", path, err)
		}
		if got := hex.EncodeToString(node.PrivateKeyBytes()); got != want {
			t.Errorf("account %d key = %s, want %s", i, got, want)
		}
	}
}

func TestDerivePath_HardhatAddress(t *testing.T) {
	master, err := NodeFromMnemonic(hardhatMnemonic, "")
	if err != nil {
		t.Fatalf("NodeFromMnemonic() error: %v", err)
	}
	node, err := master.DerivePath(DefaultAccountPathPrefix + "/0")
	if err != nil {
		t.Fatalf("DerivePath() error: %v", err)
	}

	want := "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
	if got := node.Address().String(); got != want {
		t.Errorf("Address() = %s, want %s", got, want)
	}
}

func TestDerivePath_MatchesDeriveChild(t *testing.T) {
	seed := MnemonicToSeed(hardhatMnemonic)
	master, err := NewMasterNode(seed)
	if err != nil {
		t.Fatalf("NewMasterNode() error: %v", err)
	}

	byPath, err := master.DerivePath("m/44'/60'/0'/0/3")
	if err != nil {
		t.Fatalf("DerivePath() error: %v", err)
	}

	byChild := master
	for _, index := range []uint32{
		44 + HardenedKeyStart,
		60 + HardenedKeyStart,
		0 + HardenedKeyStart,
		0,
		3,
	} {
		byChild, err = byChild.DeriveChild(index)
		if err != nil {
			t.Fatalf("DeriveChild(%#x) error: %v", index, err)
		}
	}

	if !bytes.Equal(byPath.PrivateKeyBytes(), byChild.PrivateKeyBytes()) {
		t.Error("path and stepwise derivation should agree")
	}
	if byPath.ChainCode() != byChild.ChainCode() {
		t.Error("path and stepwise chain codes should agree")
	}
}

func TestNodeFromSeedAndPath(t *testing.T) {
	seed := MnemonicToSeed(hardhatMnemonic)
	node, err := NodeFromSeedAndPath(seed, DefaultAccountPathPrefix+"/1")
	if err != nil {
		t.Fatalf("NodeFromSeedAndPath() error: %v", err)
	}
	if got := hex.EncodeToString(node.PrivateKeyBytes()); got != hardhatKeys[1] {
		t.Errorf("key = %s, want %s", got, hardhatKeys[1])
	}
}

func TestNewMasterNode_InvalidSeed(t *testing.T) {
	for _, size := range []int{0, 16, 32, 63, 65} {
		if _, err := NewMasterNode(make([]byte, size)); !errors.Is(err, ErrInvalidSeed) {
			t.Errorf("NewMasterNode(%d bytes) error = %v, want ErrInvalidSeed", size, err)
		}
	}
}

func TestNeuter_PublicDerivationMatchesPrivate(t *testing.T) {
	seed := MnemonicToSeed(hardhatMnemonic)
	account, err := NodeFromSeedAndPath(seed, "m/44'/60'/0'")
	if err != nil {
		t.Fatalf("NodeFromSeedAndPath() error: %v", err)
	}

	neutered := account.Neuter()
	for index := uint32(0); index < 4; index++ {
		privChild, err := account.DeriveChild(index)
		if err != nil {
			t.Fatalf("DeriveChild(%d) error: %v", index, err)
		}
		pubChild, err := neutered.DeriveChild(index)
		if err != nil {
			t.Fatalf("neutered DeriveChild(%d) error: %v", index, err)
		}

		if !bytes.Equal(privChild.PublicKeyBytes(), pubChild.PublicKeyBytes()) {
			t.Errorf("index %d: public keys disagree", index)
		}
		if privChild.ChainCode() != pubChild.ChainCode() {
			t.Errorf("index %d: chain codes disagree", index)
		}
		if privChild.Address() != pubChild.Address() {
			t.Errorf("index %d: addresses disagree", index)
		}
	}
}

func TestNeuteredNode_HardenedFails(t *testing.T) {
	master, err := NodeFromMnemonic(hardhatMnemonic, "")
	if err != nil {
		t.Fatalf("NodeFromMnemonic() error: %v", err)
	}
	neutered := master.Neuter()

	if _, err := neutered.DeriveChild(HardenedKeyStart); !errors.Is(err, ErrHardenedFromPublic) {
		t.Errorf("DeriveChild(hardened) error = %v, want ErrHardenedFromPublic", err)
	}
	if _, err := neutered.DerivePath("m/44'/0"); !errors.Is(err, ErrHardenedFromPublic) {
		t.Errorf("DerivePath(hardened) error = %v, want ErrHardenedFromPublic", err)
	}
}

func TestNeuter_DoesNotAffectOriginal(t *testing.T) {
	master, err := NodeFromMnemonic(hardhatMnemonic, "")
	if err != nil {
		t.Fatalf("NodeFromMnemonic() error: %v", err)
	}
	neutered := master.Neuter()

	if !bytes.Equal(master.PublicKeyBytes(), neutered.PublicKeyBytes()) {
		t.Error("neutered node should keep the same public key")
	}
	// The private node still derives hardened children after neutering.
	if _, err := master.DeriveChild(HardenedKeyStart); err != nil {
		t.Errorf("original node hardened derivation error: %v", err)
	}
}

func TestParsePath_Invalid(t *testing.T) {
	tests := []struct {
		name string
		path string
		want error
	}{
		{"no prefix", "44'/60'", ErrInvalidPath},
		{"bare m", "m", ErrInvalidPath},
		{"trailing slash", "m/44'/", ErrInvalidPath},
		{"empty segment", "m//0", ErrInvalidPath},
		{"non-numeric", "m/abc", ErrInvalidPath},
		{"negative", "m/-1", ErrInvalidPath},
		{"index too large", "m/2147483648", ErrInvalidIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parsePath(tt.path); !errors.Is(err, tt.want) {
				t.Errorf("parsePath(%q) error = %v, want %v", tt.path, err, tt.want)
			}
		})
	}
}

func TestNode_Signers(t *testing.T) {
	master, err := NodeFromMnemonic(hardhatMnemonic, "")
	if err != nil {
		t.Fatalf("NodeFromMnemonic() error: %v", err)
	}
	node, err := master.DerivePath(DefaultAccountPathPrefix + "/0")
	if err != nil {
		t.Fatalf("DerivePath() error: %v", err)
	}

	ecdsa, err := node.ECDSASigner()
	if err != nil {
		t.Fatalf("ECDSASigner() error: %v", err)
	}
	if ecdsa.Address() != node.Address() {
		t.Error("ECDSA signer address should match the node address")
	}

	if _, err := node.SchnorrSigner(); err != nil {
		t.Errorf("SchnorrSigner() error: %v", err)
	}
	if _, err := node.EthereumSchnorrSigner(); err != nil {
		t.Errorf("EthereumSchnorrSigner() error: %v", err)
	}
}
