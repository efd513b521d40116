package crypto

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/internal/domain/service"
)

// PrivateKeySigner is a DelegatedSigner holding a local secp256k1 key. It stands in for a
// PKP wallet in development, the CLI and tests.
type PrivateKeySigner struct {
	key *ecdsa.PrivateKey
}

var _ service.DelegatedSigner = (*PrivateKeySigner)(nil)

// NewPrivateKeySigner wraps key.
func NewPrivateKeySigner(key *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{key: key}
}

// NewPrivateKeySignerFromHex parses a 32-byte hex private key, 0x optional.
func NewPrivateKeySignerFromHex(hexKey string) (*PrivateKeySigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := ethcrypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewPrivateKeySigner(key), nil
}

// GeneratePrivateKeySigner creates a signer with a fresh random key.
func GeneratePrivateKeySigner() (*PrivateKeySigner, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewPrivateKeySigner(key), nil
}

// Address implements service.DelegatedSigner.
func (s *PrivateKeySigner) Address(ctx context.Context) (string, error) {
	return ethcrypto.PubkeyToAddress(s.key.PublicKey).Hex(), nil
}

// SignMessage implements service.DelegatedSigner with personal-sign semantics and returns
// 65-byte r||s||v hex with v in {27, 28}.
func (s *PrivateKeySigner) SignMessage(ctx context.Context, message []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sig, err := ethcrypto.Sign(PersonalSignHash(message), s.key)
	if err != nil {
		return "", err
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// Identity returns the address and uncompressed public key of the signer.
func (s *PrivateKeySigner) Identity() models.SignerIdentity {
	return models.SignerIdentity{
		Address:   ethcrypto.PubkeyToAddress(s.key.PublicKey).Hex(),
		PublicKey: EncodePublicKey(&s.key.PublicKey),
	}
}

// PrivateKeyHex exports the key as 0x-prefixed hex.
func (s *PrivateKeySigner) PrivateKeyHex() string {
	return hexutil.Encode(ethcrypto.FromECDSA(s.key))
}
