package service

import (
	"context"
	"time"

	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/pkg/params"
)

//go:generate mockery --name DelegatedSigner --output mocks --outpkg mocks
// DelegatedSigner is the external signing capability a token is bound to, typically a
// PKP-backed wallet. SignMessage applies the Ethereum personal-sign prefix itself.
// DelegatedSigner 是令牌绑定的外部签名能力（通常为 PKP 钱包）。
type DelegatedSigner interface {
	// Address returns the signer's 0x-prefixed Ethereum address.
	// Address 返回签名者的以太坊地址。
	Address(ctx context.Context) (string, error)

	// SignMessage returns a 0x-prefixed hex r||s||v (or r||s) signature over the
	// personal-sign digest of message. Callers must not retry on failure.
	// SignMessage 对消息的 personal-sign 摘要签名。失败时调用方不得重试。
	SignMessage(ctx context.Context, message []byte) (string, error)
}

// CreateJWTConfig carries the inputs of token creation.
// CreateJWTConfig 为创建令牌的输入。
type CreateJWTConfig struct {
	Signer           DelegatedSigner
	SignerIdentity   models.SignerIdentity
	Payload          map[string]interface{}
	ExpiresInMinutes int
	Audience         []string
}

//go:generate mockery --name JWTService --output mocks --outpkg mocks
// JWTService creates and verifies Vincent JWTs.
// JWTService 创建并验证 Vincent JWT。
type JWTService interface {
	// CreateSignedJWT builds the payload, has the delegated signer sign it and returns the compact token.
	// CreateSignedJWT 构建载荷、由委托签名者签名并返回紧凑格式令牌。
	CreateSignedJWT(ctx context.Context, cfg CreateJWTConfig) (string, error)

	// VerifyJWT returns the decoded token only when every check passed. Failures are
	// INVALID_JWT, INVALID_AUDIENCE or INVALID_SIGNATURE errors.
	// VerifyJWT 仅在所有检查通过时返回解码后的令牌。
	VerifyJWT(ctx context.Context, token string, expectedAudience string) (*models.VincentJWT, error)

	// DecodeJWT decodes without any verification.
	// DecodeJWT 仅解码，不做任何验证。
	DecodeJWT(token string) (*models.VincentJWT, error)
}

// RateLimitResult is the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

//go:generate mockery --name RateLimitService --output mocks --outpkg mocks
// RateLimitService defines the interface for rate limiting operations.
// RateLimitService 定义了速率限制操作的接口。
type RateLimitService interface {
	// Allow consumes one request from key's budget.
	// Allow 从 key 的额度中消耗一次请求。
	Allow(ctx context.Context, key string) (*RateLimitResult, error)
}

// VerificationCache memoises successful verifications. Entries must not outlive the token.
// VerificationCache 缓存验证成功的结果，条目不得超过令牌有效期。
type VerificationCache interface {
	Get(audience, token string) (*models.VincentJWT, bool)
	Set(audience, token string, decoded *models.VincentJWT)
}

//go:generate mockery --name AbilityExecutor --output mocks --outpkg mocks
// AbilityExecutor runs an ability with validated, coerced parameters. It is injected
// wherever abilities are executed instead of relying on a host runtime.
// AbilityExecutor 使用已验证、已转换的参数执行能力。
type AbilityExecutor interface {
	Execute(ctx context.Context, ability string, auth *models.AuthResult, values map[string]params.Value) (interface{}, error)
}
