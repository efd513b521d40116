// Package constants defines system-wide constants for the Vincent auth service.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// JWT Constants
// ================================================================================

const (
	// AlgorithmES256K is the JWT "alg" header of Vincent tokens: secp256k1 ECDSA over an
	// Ethereum personal-sign digest of the signing input.
	AlgorithmES256K = "ES256K"

	// TokenTypeJWT is the JWT "typ" header value
	TokenTypeJWT = "JWT"

	// DIDEthrPrefix prefixes the signer address in the "iss" claim
	DIDEthrPrefix = "did:ethr:"

	// PersonalSignPrefix is prepended (followed by the decimal message length) before keccak-256 hashing
	PersonalSignPrefix = "\x19Ethereum Signed Message:\n"

	// SignatureLength is the r||s length carried in the JWT signature segment
	SignatureLength = 64

	// RecoverableSignatureLength is the r||s||v length returned by personal-sign signers
	RecoverableSignatureLength = 65

	// BearerScheme is the Authorization header scheme
	BearerScheme = "Bearer"
)

// Claim names
const (
	ClaimAudience     = "aud"
	ClaimIssuedAt     = "iat"
	ClaimExpiresAt    = "exp"
	ClaimNotBefore    = "nbf"
	ClaimIssuer       = "iss"
	ClaimPKPPublicKey = "pkpPublicKey"
	ClaimPKPAddress   = "pkpAddress"
)

// ================================================================================
// Verification Failure Kinds
// ================================================================================

const (
	// ReasonMalformed is used when the token does not decode
	ReasonMalformed = "malformed"

	// ReasonMissingExp is used when the exp claim is absent
	ReasonMissingExp = "missing exp"

	// ReasonExpired is used when now >= exp
	ReasonExpired = "expired"

	// ReasonNotYetValid is used when now < nbf
	ReasonNotYetValid = "not yet valid"

	// ReasonIssuedInFuture is used when iat is later than now
	ReasonIssuedInFuture = "issued in the future"

	// NotAuthenticatedMessage is the only message authentication failures expose to clients
	NotAuthenticatedMessage = "not authenticated"
)

// ================================================================================
// URL Carriage Constants
// ================================================================================

const (
	// JWTQueryParam is the query key under which tokens travel in redirect URLs
	JWTQueryParam = "jwt"

	// RedirectURIQueryParam is the consent endpoint's redirect query key
	RedirectURIQueryParam = "redirectUri"

	// ConsentPathTemplate is formatted with the app id
	ConsentPathTemplate = "/appId/%s/consent"
)

// ================================================================================
// Parameter Constants
// ================================================================================

const (
	// BoolNotSet is the three-state boolean sentinel for "unset"
	BoolNotSet = "not_set"

	// AddressPlaceholder is accepted by the address rule while a value is still being typed
	AddressPlaceholder = "0x..."

	// ArraySeparator splits raw array values
	ArraySeparator = ","
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey is a private type for request context keys
type ContextKey string

const (
	// ContextKeyAuth holds the models.AuthResult of an authenticated request
	ContextKeyAuth ContextKey = "vincent_auth"

	// ContextKeyRequestID holds the request id
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTraceID holds the trace id for logging
	ContextKeyTraceID ContextKey = "trace_id"
)

// GinKeyAuth is the gin.Context key for the authenticated request
const GinKeyAuth = "vincent_auth"

// HeaderRequestID is the request id header
const HeaderRequestID = "X-Request-ID"

// ================================================================================
// Error Codes
// ================================================================================

// ErrorCode represents a machine-readable error kind
type ErrorCode string

const (
	// ErrCodeInvalidJWT indicates a malformed, expired or incomplete token
	ErrCodeInvalidJWT ErrorCode = "INVALID_JWT"

	// ErrCodeInvalidAudience indicates the token was not issued for this verifier
	ErrCodeInvalidAudience ErrorCode = "INVALID_AUDIENCE"

	// ErrCodeInvalidSignature indicates tampering or a wrong public key
	ErrCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"

	// ErrCodeParameterValidation indicates a per-field parameter validation failure
	ErrCodeParameterValidation ErrorCode = "PARAMETER_VALIDATION"

	// ErrCodeInvalidRequest indicates the request is missing or has malformed arguments
	ErrCodeInvalidRequest ErrorCode = "invalid_request"

	// ErrCodeSignerFailure indicates the delegated signer failed
	ErrCodeSignerFailure ErrorCode = "signer_failure"

	// ErrCodeRateLimitExceeded indicates the caller exceeded the request budget
	ErrCodeRateLimitExceeded ErrorCode = "rate_limit_exceeded"

	// ErrCodeServerError indicates an internal server error occurred
	ErrCodeServerError ErrorCode = "server_error"

	// ErrCodeUnauthenticated is the generic public code for any authentication failure
	ErrCodeUnauthenticated ErrorCode = "unauthenticated"
)

// ================================================================================
// Log Levels
// ================================================================================

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// ================================================================================
// Defaults
// ================================================================================

const (
	// DefaultHTTPPort is the default HTTP listen port
	DefaultHTTPPort = 8080

	// DefaultGRPCPort is the default gRPC listen port
	DefaultGRPCPort = 9090

	// DefaultVerificationCacheTTL bounds how long a successful verification is memoised
	DefaultVerificationCacheTTL = 5 * time.Minute

	// DefaultRateLimitWindow is the fixed window of the per-PKP rate limiter
	DefaultRateLimitWindow = time.Minute

	// DefaultRateLimitRequests is the request budget per window
	DefaultRateLimitRequests = 120

	// DefaultShutdownTimeout bounds graceful shutdown
	DefaultShutdownTimeout = 15 * time.Second

	// ServiceName is used for tracing and metrics namespaces
	ServiceName = "vincent-auth"

	// MetricsNamespace prefixes every Prometheus metric
	MetricsNamespace = "vincent"
)
