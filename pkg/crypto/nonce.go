package crypto

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// nonceRFC6979 derives a deterministic nonce scalar per RFC 6979 using
// HMAC-SHA256, so that signing the same hash with the same key always
// produces the same signature.
//
// privKey and hash must both be 32-byte big-endian values. The result is
// always in [1, order-1]: candidates that are zero or not below the order
// are rejected and the generator is re-keyed, though with a 256-bit hash
// the first candidate is accepted with overwhelming probability.
func nonceRFC6979(privKey, hash []byte) *secp256k1.ModNScalar {
	// Step B/C: V = 0x01*32, K = 0x00*32.
	v := make([]byte, 32)
	for i := range v {
		v[i] = 0x01
	}
	k := make([]byte, 32)

	// Step D/E: K = HMAC_K(V || 0x00 || key || hash); V = HMAC_K(V).
	k = hmacSHA256(k, v, []byte{0x00}, privKey, hash)
	v = hmacSHA256(k, v)

	// Step F/G: K = HMAC_K(V || 0x01 || key || hash); V = HMAC_K(V).
	k = hmacSHA256(k, v, []byte{0x01}, privKey, hash)
	v = hmacSHA256(k, v)

	// Step H: generate candidates until one is a valid scalar.
	for {
		v = hmacSHA256(k, v)

		var nonce secp256k1.ModNScalar
		overflow := nonce.SetByteSlice(v)
		if !overflow && !nonce.IsZero() {
			return &nonce
		}

		// Candidate out of range. Re-key and try again.
		k = hmacSHA256(k, v, []byte{0x00})
		v = hmacSHA256(k, v)
	}
}

// hmacSHA256 computes HMAC-SHA256 over the concatenation of the chunks.
func hmacSHA256(key []byte, chunks ...[]byte) []byte {
	mac := hmac.New(sha256.New, key)
	for _, c := range chunks {
		mac.Write(c)
	}
	return mac.Sum(nil)
}
