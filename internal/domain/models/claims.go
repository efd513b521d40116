package models

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/turtacn/vincent/pkg/constants"
)

// VincentJWT is a decoded Vincent token. It is only handed out by the verifier after every
// check passed, or by the explicit decode path which performs no checks at all.
// VincentJWT 是已解码的 Vincent 令牌。
type VincentJWT struct {
	// Header holds the JOSE header, {"alg":"ES256K","typ":"JWT"} for tokens we create.
	// Header 为 JOSE 头部。
	Header map[string]interface{} `json:"header"`
	// Payload holds every claim, reserved and caller supplied.
	// Payload 包含所有声明。
	Payload map[string]interface{} `json:"payload"`
	// Signature is the base64url r||s segment as transmitted.
	Signature string `json:"signature"`
	// SignedData is header.payload exactly as transmitted.
	SignedData string `json:"-"`
}

// Claim returns a claim by name.
func (j *VincentJWT) Claim(name string) (interface{}, bool) {
	if j == nil || j.Payload == nil {
		return nil, false
	}
	v, ok := j.Payload[name]
	return v, ok
}

func (j *VincentJWT) stringClaim(name string) string {
	v, _ := j.Claim(name)
	s, _ := v.(string)
	return s
}

// PKPAddress returns the pkpAddress claim.
func (j *VincentJWT) PKPAddress() string { return j.stringClaim(constants.ClaimPKPAddress) }

// PKPPublicKey returns the pkpPublicKey claim.
func (j *VincentJWT) PKPPublicKey() string { return j.stringClaim(constants.ClaimPKPPublicKey) }

// Issuer returns the iss claim.
func (j *VincentJWT) Issuer() string { return j.stringClaim(constants.ClaimIssuer) }

// Algorithm returns the alg header.
func (j *VincentJWT) Algorithm() string {
	if j == nil {
		return ""
	}
	s, _ := j.Header["alg"].(string)
	return s
}

// Audience normalises the aud claim, which may be a string or an array, to a slice.
func (j *VincentJWT) Audience() []string {
	v, _ := j.Claim(constants.ClaimAudience)
	switch aud := v.(type) {
	case string:
		if aud == "" {
			return nil
		}
		return []string{aud}
	case []string:
		return aud
	case []interface{}:
		out := make([]string, 0, len(aud))
		for _, a := range aud {
			if s, ok := a.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// IssuedAt returns iat in seconds, 0 when absent.
func (j *VincentJWT) IssuedAt() int64 { return j.numericClaim(constants.ClaimIssuedAt) }

// ExpiresAt returns exp in seconds, 0 when absent.
func (j *VincentJWT) ExpiresAt() int64 { return j.numericClaim(constants.ClaimExpiresAt) }

func (j *VincentJWT) numericClaim(name string) int64 {
	v, _ := j.Claim(name)
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(math.Floor(f))
		}
	case float64:
		return int64(math.Floor(n))
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

// DID returns the issuer DID's address part when it is a did:ethr identifier.
func (j *VincentJWT) DID() string {
	return strings.TrimPrefix(j.Issuer(), constants.DIDEthrPrefix)
}
