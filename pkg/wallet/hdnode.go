package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Klingon-tech/klingvm-sdk/pkg/crypto"
	"github.com/Klingon-tech/klingvm-sdk/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// HardenedKeyStart is the first hardened child index: indexes with the
// top bit set select hardened derivation.
const HardenedKeyStart uint32 = 0x80000000

// DefaultAccountPathPrefix is the standard Ethereum BIP-44 account chain;
// account i lives at DefaultAccountPathPrefix + "/i".
const DefaultAccountPathPrefix = "m/44'/60'/0'/0"

// masterHMACKey is the HMAC-SHA512 key for master node derivation,
// fixed by BIP-32.
const masterHMACKey = "Bitcoin seed"

var (
	// ErrInvalidSeed is returned when a seed has the wrong length or
	// derives an out-of-range master key.
	ErrInvalidSeed = errors.New("invalid seed")

	// ErrInvalidChild is returned when derivation yields an out-of-range
	// or zero child key (probability below 2^-127); the caller should move
	// on to the next index.
	ErrInvalidChild = errors.New("derived child key is invalid")

	// ErrInvalidPath is returned for malformed derivation path strings.
	ErrInvalidPath = errors.New("invalid derivation path")

	// ErrInvalidIndex is returned when a path segment exceeds 2^31-1.
	ErrInvalidIndex = errors.New("derivation index out of range")

	// ErrHardenedFromPublic is returned when hardened derivation is
	// attempted on a neutered node, which is impossible without the
	// private key.
	ErrHardenedFromPublic = errors.New("cannot derive a hardened child without the private key")
)

// Node is a private node in a BIP-32 derivation tree. Nodes are immutable:
// derivation returns a new node and never mutates the parent.
type Node struct {
	priv      *secp256k1.PrivateKey
	pub       *secp256k1.PublicKey
	chainCode [32]byte
}

// NewMasterNode creates the root of a derivation tree from a 64-byte seed.
func NewMasterNode(seed []byte) (*Node, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidSeed, SeedSize, len(seed))
	}

	i := hmacSHA512([]byte(masterHMACKey), seed)
	var priv secp256k1.PrivateKey
	if overflow := priv.Key.SetByteSlice(i[:32]); overflow || priv.Key.IsZero() {
		return nil, fmt.Errorf("%w: master key out of range", ErrInvalidSeed)
	}

	n := &Node{priv: &priv, pub: priv.PubKey()}
	copy(n.chainCode[:], i[32:])
	return n, nil
}

// NodeFromMnemonic derives the master node for a mnemonic phrase and
// optional passphrase.
func NodeFromMnemonic(mnemonic, passphrase string) (*Node, error) {
	return NewMasterNode(MnemonicToSeedWithPassphrase(mnemonic, passphrase))
}

// NodeFromSeedAndPath derives the node at path from a 64-byte seed.
func NodeFromSeedAndPath(seed []byte, path string) (*Node, error) {
	master, err := NewMasterNode(seed)
	if err != nil {
		return nil, err
	}
	return master.DerivePath(path)
}

// DeriveChild derives the child node at the given index. Indexes at or
// above HardenedKeyStart use hardened derivation, which mixes in the
// parent private key instead of the public key.
func (n *Node) DeriveChild(index uint32) (*Node, error) {
	data := make([]byte, 0, 37)
	if index >= HardenedKeyStart {
		// 0x00 || ser256(parentKey) || ser32(index)
		data = append(data, 0x00)
		data = append(data, n.priv.Serialize()...)
	} else {
		// serP(parentPubKey) || ser32(index)
		data = append(data, n.pub.SerializeCompressed()...)
	}
	data = binary.BigEndian.AppendUint32(data, index)

	i := hmacSHA512(n.chainCode[:], data)
	var il secp256k1.ModNScalar
	if overflow := il.SetByteSlice(i[:32]); overflow {
		return nil, fmt.Errorf("%w: IL not below the curve order", ErrInvalidChild)
	}

	// childKey = IL + parentKey mod n.
	childKey := il.Add(&n.priv.Key)
	if childKey.IsZero() {
		return nil, fmt.Errorf("%w: child key is zero", ErrInvalidChild)
	}

	child := &Node{priv: secp256k1.NewPrivateKey(childKey)}
	child.pub = child.priv.PubKey()
	copy(child.chainCode[:], i[32:])
	return child, nil
}

// DerivePath derives the node at a path such as "m/44'/60'/0'/0/0".
// An apostrophe suffix selects hardened derivation.
func (n *Node) DerivePath(path string) (*Node, error) {
	indices, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	current := n
	for _, index := range indices {
		child, err := current.DeriveChild(index)
		if err != nil {
			return nil, fmt.Errorf("derive %q: %w", path, err)
		}
		current = child
	}
	return current, nil
}

// Neuter projects the node to its public-only form. The original node is
// unaffected; both values remain usable.
func (n *Node) Neuter() *NeuteredNode {
	return &NeuteredNode{pub: n.pub, chainCode: n.chainCode}
}

// PrivateKeyBytes returns the 32-byte private key scalar.
func (n *Node) PrivateKeyBytes() []byte {
	return n.priv.Serialize()
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (n *Node) PublicKeyBytes() []byte {
	return n.pub.SerializeCompressed()
}

// ChainCode returns the node's 32-byte chain code.
func (n *Node) ChainCode() [32]byte {
	return n.chainCode
}

// Address returns the account address for this node's public key.
func (n *Node) Address() types.Address {
	return crypto.AddressFromPubKey(n.pub)
}

// ECDSASigner creates a recoverable ECDSA signer from this node's key.
func (n *Node) ECDSASigner() (*crypto.ECDSASigner, error) {
	return crypto.NewECDSASigner(n.priv.Serialize())
}

// SchnorrSigner creates a BIP340 Schnorr signer from this node's key.
func (n *Node) SchnorrSigner() (*crypto.SchnorrSigner, error) {
	return crypto.NewSchnorrSigner(n.priv.Serialize())
}

// EthereumSchnorrSigner creates an address-committing Schnorr signer from
// this node's key.
func (n *Node) EthereumSchnorrSigner() (*crypto.EthereumSchnorrSigner, error) {
	return crypto.NewEthereumSchnorrSigner(n.priv.Serialize())
}

// NeuteredNode is a public-only derivation node. It can derive
// non-hardened public children but holds no private key.
type NeuteredNode struct {
	pub       *secp256k1.PublicKey
	chainCode [32]byte
}

// DeriveChild derives the non-hardened public child at the given index.
// Hardened indexes fail with ErrHardenedFromPublic.
func (n *NeuteredNode) DeriveChild(index uint32) (*NeuteredNode, error) {
	if index >= HardenedKeyStart {
		return nil, fmt.Errorf("%w: index %#x", ErrHardenedFromPublic, index)
	}

	data := make([]byte, 0, 37)
	data = append(data, n.pub.SerializeCompressed()...)
	data = binary.BigEndian.AppendUint32(data, index)

	i := hmacSHA512(n.chainCode[:], data)
	var il secp256k1.ModNScalar
	if overflow := il.SetByteSlice(i[:32]); overflow || il.IsZero() {
		return nil, fmt.Errorf("%w: IL out of range", ErrInvalidChild)
	}

	// childPub = IL*G + parentPub.
	var ilG, parent, sum secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&il, &ilG)
	n.pub.AsJacobian(&parent)
	secp256k1.AddNonConst(&ilG, &parent, &sum)
	if (sum.X.IsZero() && sum.Y.IsZero()) || sum.Z.IsZero() {
		return nil, fmt.Errorf("%w: child point at infinity", ErrInvalidChild)
	}
	sum.ToAffine()

	child := &NeuteredNode{pub: secp256k1.NewPublicKey(&sum.X, &sum.Y)}
	copy(child.chainCode[:], i[32:])
	return child, nil
}

// DerivePath derives the node at a non-hardened path such as "m/0/1".
func (n *NeuteredNode) DerivePath(path string) (*NeuteredNode, error) {
	indices, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	current := n
	for _, index := range indices {
		child, err := current.DeriveChild(index)
		if err != nil {
			return nil, fmt.Errorf("derive %q: %w", path, err)
		}
		current = child
	}
	return current, nil
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (n *NeuteredNode) PublicKeyBytes() []byte {
	return n.pub.SerializeCompressed()
}

// ChainCode returns the node's 32-byte chain code.
func (n *NeuteredNode) ChainCode() [32]byte {
	return n.chainCode
}

// Address returns the account address for this node's public key.
func (n *NeuteredNode) Address() types.Address {
	return crypto.AddressFromPubKey(n.pub)
}

// parsePath tokenizes a derivation path. The path must start with "m"
// and contain at least one segment; an apostrophe suffix marks a segment
// hardened and adds HardenedKeyStart to its index.
func parsePath(path string) ([]uint32, error) {
	if !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("%w: must start with \"m/\"", ErrInvalidPath)
	}

	segments := strings.Split(path[2:], "/")
	indices := make([]uint32, 0, len(segments))
	for _, segment := range segments {
		hardened := strings.HasSuffix(segment, "'")
		if hardened {
			segment = strings.TrimSuffix(segment, "'")
		}
		if segment == "" {
			return nil, fmt.Errorf("%w: empty segment", ErrInvalidPath)
		}
		value, err := strconv.ParseUint(segment, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %q: %v", ErrInvalidPath, segment, err)
		}
		if value >= uint64(HardenedKeyStart) {
			return nil, fmt.Errorf("%w: segment %q", ErrInvalidIndex, segment)
		}
		index := uint32(value)
		if hardened {
			index += HardenedKeyStart
		}
		indices = append(indices, index)
	}
	return indices, nil
}

// hmacSHA512 computes HMAC-SHA512 over data with the given key.
func hmacSHA512(key, data []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
