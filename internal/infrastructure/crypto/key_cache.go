package crypto

import (
	"crypto/ecdsa"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultKeyCacheSize bounds the number of decoded PKP public keys kept in memory.
const DefaultKeyCacheSize = 1024

// decodedKey pairs a public key with its derived address.
type decodedKey struct {
	pub     *ecdsa.PublicKey
	address string
}

// KeyCache memoises public key decoding (and address derivation), which costs a point
// decompression or curve check per token otherwise.
type KeyCache struct {
	cache *lru.Cache[string, decodedKey]
}

// NewKeyCache creates a KeyCache. size <= 0 uses DefaultKeyCacheSize.
func NewKeyCache(size int) (*KeyCache, error) {
	if size <= 0 {
		size = DefaultKeyCacheSize
	}
	c, err := lru.New[string, decodedKey](size)
	if err != nil {
		return nil, err
	}
	return &KeyCache{cache: c}, nil
}

// Decode returns the public key and address for a hex public key.
func (k *KeyCache) Decode(hexKey string) (*ecdsa.PublicKey, string, error) {
	id := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"), "0X"))
	if k != nil {
		if entry, ok := k.cache.Get(id); ok {
			return entry.pub, entry.address, nil
		}
	}
	pub, err := DecodePublicKey(hexKey)
	if err != nil {
		return nil, "", err
	}
	entry := decodedKey{pub: pub, address: AddressFromPublicKey(pub)}
	if k != nil {
		k.cache.Add(id, entry)
	}
	return entry.pub, entry.address, nil
}

// Len returns the number of cached keys.
func (k *KeyCache) Len() int {
	if k == nil {
		return 0
	}
	return k.cache.Len()
}
