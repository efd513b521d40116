package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/turtacn/vincent/pkg/constants"
)

var (
	secp256k1N     = ethcrypto.S256().Params().N
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

// PersonalSignHash returns keccak256("\x19Ethereum Signed Message:\n" + len(message) + message).
func PersonalSignHash(message []byte) []byte {
	prefix := constants.PersonalSignPrefix + strconv.Itoa(len(message))
	return ethcrypto.Keccak256([]byte(prefix), message)
}

// DecodePublicKey accepts a secp256k1 public key as hex, with or without 0x, in
// uncompressed (65 bytes, 0x04 prefix), raw (64 bytes) or compressed (33 bytes) form.
func DecodePublicKey(s string) (*ecdsa.PublicKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty public key")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("public key is not valid hex: %w", err)
	}

	switch len(raw) {
	case 65:
		return ethcrypto.UnmarshalPubkey(raw)
	case 64:
		return ethcrypto.UnmarshalPubkey(append([]byte{0x04}, raw...))
	case 33:
		return ethcrypto.DecompressPubkey(raw)
	}
	return nil, fmt.Errorf("unexpected public key length %d", len(raw))
}

// EncodePublicKey renders pub as 0x-prefixed uncompressed hex, the form PKP public keys use.
func EncodePublicKey(pub *ecdsa.PublicKey) string {
	return hexutil.Encode(ethcrypto.FromECDSAPub(pub))
}

// AddressFromPublicKey returns the EIP-55 checksummed address of pub.
func AddressFromPublicKey(pub *ecdsa.PublicKey) string {
	return ethcrypto.PubkeyToAddress(*pub).Hex()
}

// normalizeLowS returns r||s with s folded into the lower half of the curve order.
// Both (r, s) and (r, N-s) are valid ECDSA signatures; the verifier only accepts low S.
func normalizeLowS(sig []byte) []byte {
	s := new(big.Int).SetBytes(sig[32:64])
	if s.Cmp(secp256k1HalfN) <= 0 {
		return sig
	}
	out := make([]byte, 64)
	copy(out, sig[:32])
	new(big.Int).Sub(secp256k1N, s).FillBytes(out[32:])
	return out
}
