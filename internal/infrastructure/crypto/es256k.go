package crypto

import (
	"crypto/ecdsa"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/vincent/pkg/constants"
)

// SigningMethodES256K signs the JWT signing input as an Ethereum personal-sign message
// with secp256k1 and carries r||s (64 bytes) as the signature. The recovery id is dropped,
// so verification needs the public key.
type SigningMethodES256K struct{}

// SigningMethodES256KPersonal is the registered instance.
var SigningMethodES256KPersonal = &SigningMethodES256K{}

func init() {
	jwt.RegisterSigningMethod(constants.AlgorithmES256K, func() jwt.SigningMethod {
		return SigningMethodES256KPersonal
	})
}

// Alg implements jwt.SigningMethod.
func (m *SigningMethodES256K) Alg() string { return constants.AlgorithmES256K }

// Verify implements jwt.SigningMethod. key must be a *ecdsa.PublicKey on secp256k1.
func (m *SigningMethodES256K) Verify(signingString string, sig []byte, key interface{}) error {
	pub, ok := key.(*ecdsa.PublicKey)
	if !ok || pub == nil {
		return jwt.ErrInvalidKeyType
	}
	if len(sig) != constants.SignatureLength {
		return fmt.Errorf("%w: signature is %d bytes", jwt.ErrSignatureInvalid, len(sig))
	}
	digest := PersonalSignHash([]byte(signingString))
	if !ethcrypto.VerifySignature(ethcrypto.FromECDSAPub(pub), digest, normalizeLowS(sig)) {
		return jwt.ErrECDSAVerification
	}
	return nil
}

// Sign implements jwt.SigningMethod for a local *ecdsa.PrivateKey. Delegated signers go
// through JWTManager instead.
func (m *SigningMethodES256K) Sign(signingString string, key interface{}) ([]byte, error) {
	priv, ok := key.(*ecdsa.PrivateKey)
	if !ok || priv == nil {
		return nil, jwt.ErrInvalidKeyType
	}
	sig, err := ethcrypto.Sign(PersonalSignHash([]byte(signingString)), priv)
	if err != nil {
		return nil, err
	}
	return sig[:constants.SignatureLength], nil
}
