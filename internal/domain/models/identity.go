package models

import (
	"context"

	"github.com/turtacn/vincent/pkg/constants"
)

// SignerIdentity names the delegated signer a token is bound to.
type SignerIdentity struct {
	// Address is the 0x-prefixed Ethereum address
	Address string `json:"address" validate:"required,ethaddr"`
	// PublicKey is the hex public key, usually 0x04-prefixed uncompressed
	PublicKey string `json:"publicKey" validate:"required"`
}

// AuthResult is what an authenticated request carries downstream.
// AuthResult 为认证通过后附加到请求上下文的结果。
type AuthResult struct {
	DecodedJWT *VincentJWT `json:"decodedJWT"`
	PKPAddress string      `json:"pkpAddress"`
	RawJWT     string      `json:"-"`
}

// ContextWithAuth returns a copy of ctx carrying res.
func ContextWithAuth(ctx context.Context, res *AuthResult) context.Context {
	return context.WithValue(ctx, constants.ContextKeyAuth, res)
}

// AuthFromContext returns the AuthResult attached by the authentication middleware.
func AuthFromContext(ctx context.Context) (*AuthResult, bool) {
	res, ok := ctx.Value(constants.ContextKeyAuth).(*AuthResult)
	return res, ok && res != nil
}
