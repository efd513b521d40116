package crypto

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalSignHash_MatchesAccountsTextHash(t *testing.T) {
	for _, msg := range []string{"", "hello", "eyJhbGciOiJFUzI1NksifQ.eyJpYXQiOjF9", strings.Repeat("x", 1000)} {
		assert.Equal(t, accounts.TextHash([]byte(msg)), PersonalSignHash([]byte(msg)), msg)
	}
}

func TestSigningMethodES256K_Registered(t *testing.T) {
	assert.Same(t, SigningMethodES256KPersonal, jwt.GetSigningMethod("ES256K"))
	assert.Equal(t, "ES256K", SigningMethodES256KPersonal.Alg())
}

func TestSigningMethodES256K_SignVerify(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	other, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	input := "header.payload"
	sig, err := SigningMethodES256KPersonal.Sign(input, key)
	require.NoError(t, err)
	require.Len(t, sig, 64)

	assert.NoError(t, SigningMethodES256KPersonal.Verify(input, sig, &key.PublicKey))
	assert.ErrorIs(t, SigningMethodES256KPersonal.Verify(input+"x", sig, &key.PublicKey), jwt.ErrECDSAVerification)
	assert.ErrorIs(t, SigningMethodES256KPersonal.Verify(input, sig, &other.PublicKey), jwt.ErrECDSAVerification)
	assert.ErrorIs(t, SigningMethodES256KPersonal.Verify(input, sig[:63], &key.PublicKey), jwt.ErrSignatureInvalid)
	assert.ErrorIs(t, SigningMethodES256KPersonal.Verify(input, sig, "not a key"), jwt.ErrInvalidKeyType)

	_, err = SigningMethodES256KPersonal.Sign(input, []byte("hmac"))
	assert.ErrorIs(t, err, jwt.ErrInvalidKeyType)
}

func TestSigningMethodES256K_AcceptsHighS(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	input := "header.payload"
	sig, err := SigningMethodES256KPersonal.Sign(input, key)
	require.NoError(t, err)

	s := new(big.Int).SetBytes(sig[32:])
	high := make([]byte, 64)
	copy(high, sig[:32])
	new(big.Int).Sub(secp256k1N, s).FillBytes(high[32:])
	require.NotEqual(t, sig, high)

	assert.NoError(t, SigningMethodES256KPersonal.Verify(input, high, &key.PublicKey))
	assert.Equal(t, sig, normalizeLowS(high))
}

func TestDecodePublicKey(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	want := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
	encoded := EncodePublicKey(&key.PublicKey)
	assert.True(t, strings.HasPrefix(encoded, "0x04"))

	for _, in := range []string{
		encoded,
		strings.ToUpper(encoded[2:]),
		"0X" + encoded[2:],
		hexutil.Encode(ethcrypto.CompressPubkey(&key.PublicKey)),
		"0x" + encoded[4:],
	} {
		pub, err := DecodePublicKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, AddressFromPublicKey(pub))
	}

	for _, bad := range []string{"", "0x", "0xzz", "0x1234", encoded + "00"} {
		_, err := DecodePublicKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestKeyCache(t *testing.T) {
	signer := newTestSigner(t)
	id := signer.Identity()

	cache, err := NewKeyCache(2)
	require.NoError(t, err)

	_, addr, err := cache.Decode(id.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, id.Address, addr)
	assert.Equal(t, 1, cache.Len())

	// 同一个公钥的不同写法命中同一条缓存
	_, addr, err = cache.Decode(strings.ToUpper(strings.TrimPrefix(id.PublicKey, "0x")))
	require.NoError(t, err)
	assert.Equal(t, id.Address, addr)
	assert.Equal(t, 1, cache.Len())

	_, _, err = cache.Decode("0x1234")
	assert.Error(t, err)
	assert.Equal(t, 1, cache.Len())

	var nilCache *KeyCache
	_, addr, err = nilCache.Decode(id.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, id.Address, addr)
}

func TestPrivateKeySigner(t *testing.T) {
	signer := newTestSigner(t)
	ctx := context.Background()

	addr, err := signer.Address(ctx)
	require.NoError(t, err)
	assert.Equal(t, signer.Identity().Address, addr)

	sigHex, err := signer.SignMessage(ctx, []byte("hello"))
	require.NoError(t, err)
	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	// v 归一化后可恢复出签名者
	sig[64] -= 27
	pub, err := ethcrypto.SigToPub(PersonalSignHash([]byte("hello")), sig)
	require.NoError(t, err)
	assert.Equal(t, addr, AddressFromPublicKey(pub))

	restored, err := NewPrivateKeySignerFromHex(signer.PrivateKeyHex())
	require.NoError(t, err)
	assert.Equal(t, signer.Identity(), restored.Identity())

	_, err = NewPrivateKeySignerFromHex("0x1234")
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = signer.SignMessage(cancelled, []byte("hello"))
	assert.ErrorIs(t, err, context.Canceled)
}
