package crypto

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/logger"
)

// JWTConfig configures a JWTManager.
type JWTConfig struct {
	// ClockSkew is the leeway applied to exp, nbf and iat. Zero means exact comparison.
	ClockSkew time.Duration
	// KeyCacheSize bounds the decoded public key cache.
	KeyCacheSize int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// JWTManager creates and verifies Vincent JWTs.
type JWTManager struct {
	cfg       JWTConfig
	now       func() time.Time
	keys      *KeyCache
	parser    *jwt.Parser
	validator *jwt.Validator
	log       logger.Logger
}

var _ service.JWTService = (*JWTManager)(nil)

// NewJWTManager creates a new JWTManager.
func NewJWTManager(cfg JWTConfig, log logger.Logger) (*JWTManager, error) {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	keys, err := NewKeyCache(cfg.KeyCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create key cache: %w", err)
	}
	return &JWTManager{
		cfg:    cfg,
		now:    now,
		keys:   keys,
		parser: jwt.NewParser(jwt.WithJSONNumber()),
		validator: jwt.NewValidator(
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(cfg.ClockSkew),
			jwt.WithTimeFunc(now),
		),
		log: log.WithComponent("JWTManager"),
	}, nil
}

// CreateSignedJWT builds {caller payload, aud, iat, exp, iss, pkpPublicKey, pkpAddress}
// (reserved claims overwrite caller claims), asks the delegated signer for a personal-sign
// signature over header.payload and appends r||s as the third segment.
func (m *JWTManager) CreateSignedJWT(ctx context.Context, cfg service.CreateJWTConfig) (string, error) {
	if cfg.Signer == nil {
		return "", errors.ErrInvalidRequest("a delegated signer is required")
	}
	if cfg.ExpiresInMinutes <= 0 {
		return "", errors.ErrInvalidRequest("expiresInMinutes must be positive").
			WithMetadata("expires_in_minutes", cfg.ExpiresInMinutes)
	}
	audience := make([]string, 0, len(cfg.Audience))
	for _, aud := range cfg.Audience {
		if aud = strings.TrimSpace(aud); aud != "" {
			audience = append(audience, aud)
		}
	}
	if len(audience) == 0 {
		return "", errors.ErrInvalidRequest("at least one audience is required")
	}

	identity := cfg.SignerIdentity
	if identity.Address == "" || identity.PublicKey == "" {
		return "", errors.ErrInvalidRequest("signer identity needs an address and a public key")
	}
	pub, derived, err := m.keys.Decode(identity.PublicKey)
	if err != nil {
		return "", errors.ErrInvalidRequest(fmt.Sprintf("signer public key is invalid: %v", err)).WithCause(err)
	}
	if !strings.EqualFold(derived, identity.Address) {
		return "", errors.ErrInvalidRequest("signer address does not match signer public key").
			WithMetadata("address", identity.Address)
	}

	iat := m.now().Unix()
	exp := iat + int64(cfg.ExpiresInMinutes)*60

	claims := make(jwt.MapClaims, len(cfg.Payload)+6)
	for k, v := range cfg.Payload {
		claims[k] = v
	}
	claims[constants.ClaimAudience] = audience
	claims[constants.ClaimIssuedAt] = iat
	claims[constants.ClaimExpiresAt] = exp
	claims[constants.ClaimIssuer] = constants.DIDEthrPrefix + identity.Address
	claims[constants.ClaimPKPPublicKey] = identity.PublicKey
	claims[constants.ClaimPKPAddress] = identity.Address

	token := jwt.NewWithClaims(SigningMethodES256KPersonal, claims)
	signingInput, err := token.SigningString()
	if err != nil {
		return "", errors.ErrServerError("failed to encode token").WithCause(err)
	}

	hexSig, err := cfg.Signer.SignMessage(ctx, []byte(signingInput))
	if err != nil {
		m.log.Error(ctx, "Delegated signer failed", err, logger.PKPAddress(identity.Address))
		return "", errors.ErrSignerFailure(err)
	}
	sig, err := decodeSignerSignature(hexSig)
	if err != nil {
		return "", errors.ErrSignerFailure(err)
	}
	if err := SigningMethodES256KPersonal.Verify(signingInput, sig, pub); err != nil {
		return "", errors.ErrSignerFailure(fmt.Errorf("signature does not verify against the signer public key: %w", err))
	}

	m.log.Debug(ctx, "Vincent JWT created",
		logger.PKPAddress(identity.Address),
		logger.Int64("exp", exp),
		logger.Int("audiences", len(audience)),
	)
	return signingInput + "." + token.EncodeSegment(sig), nil
}

// decodeSignerSignature accepts 65-byte r||s||v or 64-byte r||s hex and returns r||s.
func decodeSignerSignature(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("signer returned invalid hex: %w", err)
	}
	switch len(raw) {
	case constants.RecoverableSignatureLength, constants.SignatureLength:
		return raw[:constants.SignatureLength], nil
	}
	return nil, fmt.Errorf("signer returned a %d byte signature", len(raw))
}

// DecodeJWT decodes header and payload without verifying anything.
func (m *JWTManager) DecodeJWT(tokenString string) (*models.VincentJWT, error) {
	token, parts, err := m.parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, errors.ErrInvalidJWT(constants.ReasonMalformed).WithCause(err)
	}
	return toVincentJWT(tokenString, token, parts), nil
}

// VerifyJWT checks, in order: structure, exp presence, expiry, nbf and iat, audience and
// finally the secp256k1 signature against the payload's pkpPublicKey. The first failing
// check decides the error.
func (m *JWTManager) VerifyJWT(ctx context.Context, tokenString string, expectedAudience string) (*models.VincentJWT, error) {
	claims := jwt.MapClaims{}
	token, parts, err := m.parser.ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, errors.ErrInvalidJWT(constants.ReasonMalformed).WithCause(err)
	}
	if alg, _ := token.Header["alg"].(string); alg != constants.AlgorithmES256K {
		return nil, errors.ErrInvalidJWT(fmt.Sprintf("unsupported alg %q", alg))
	}

	if err := m.validator.Validate(claims); err != nil {
		return nil, timeError(err)
	}

	aud, err := claims.GetAudience()
	if err != nil {
		return nil, errors.ErrInvalidAudience(expectedAudience).WithCause(err)
	}
	if expectedAudience == "" || !containsString(aud, expectedAudience) {
		return nil, errors.ErrInvalidAudience(expectedAudience)
	}

	signedData := tokenString[:strings.LastIndex(tokenString, ".")]
	sig, err := m.parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, m.signatureFailure(ctx, claims, "signature is not base64url").WithCause(err)
	}
	if len(sig) != constants.SignatureLength {
		return nil, m.signatureFailure(ctx, claims, fmt.Sprintf("signature is %d bytes", len(sig)))
	}

	pubHex, _ := claims[constants.ClaimPKPPublicKey].(string)
	if pubHex == "" {
		return nil, errors.ErrInvalidJWT("missing pkpPublicKey")
	}
	pub, derived, err := m.keys.Decode(pubHex)
	if err != nil {
		return nil, m.signatureFailure(ctx, claims, "pkpPublicKey is not a secp256k1 key").WithCause(err)
	}
	if err := SigningMethodES256KPersonal.Verify(signedData, sig, pub); err != nil {
		return nil, m.signatureFailure(ctx, claims, "signature does not match pkpPublicKey").WithCause(err)
	}

	if raw, present := claims[constants.ClaimPKPAddress]; present {
		addr, _ := raw.(string)
		if !strings.EqualFold(addr, derived) {
			return nil, m.signatureFailure(ctx, claims, "pkpAddress does not match pkpPublicKey")
		}
	}

	return toVincentJWT(tokenString, token, parts), nil
}

func (m *JWTManager) signatureFailure(ctx context.Context, claims jwt.MapClaims, reason string) errors.VincentError {
	addr, _ := claims[constants.ClaimPKPAddress].(string)
	m.log.Warn(ctx, "Vincent JWT signature rejected",
		logger.Reason(reason),
		logger.String("claimed_pkp_address", addr),
	)
	return errors.ErrInvalidSignature(reason)
}

// timeError maps jwt.Validator errors, which may be joined, to one INVALID_JWT reason.
func timeError(err error) errors.VincentError {
	var reason string
	switch {
	case stderrors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		reason = constants.ReasonMissingExp
	case stderrors.Is(err, jwt.ErrTokenExpired):
		reason = constants.ReasonExpired
	case stderrors.Is(err, jwt.ErrTokenNotValidYet):
		reason = constants.ReasonNotYetValid
	case stderrors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		reason = constants.ReasonIssuedInFuture
	default:
		reason = constants.ReasonMalformed
	}
	return errors.ErrInvalidJWT(reason).WithCause(err)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func toVincentJWT(raw string, token *jwt.Token, parts []string) *models.VincentJWT {
	payload := make(map[string]interface{})
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		for k, v := range claims {
			payload[k] = v
		}
	}
	return &models.VincentJWT{
		Header:     token.Header,
		Payload:    payload,
		Signature:  parts[2],
		SignedData: raw[:strings.LastIndex(raw, ".")],
	}
}
