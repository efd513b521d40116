// Package service provides application-level services that orchestrate domain services
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/vincent/internal/application/dto"
	"github.com/turtacn/vincent/internal/domain/models"
	domainService "github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/logger"
	"github.com/turtacn/vincent/pkg/utils"
)

const verificationCacheName = "verification"

// AuthAppService defines the interface for the Vincent authentication application service
type AuthAppService interface {
	// VerifyToken verifies token for audience (the configured audience when empty) and
	// returns what an authenticated request carries.
	VerifyToken(ctx context.Context, token string, audience string) (*models.AuthResult, error)

	// CreateToken has signer sign a new token for identity.
	CreateToken(ctx context.Context, signer domainService.DelegatedSigner, identity models.SignerIdentity, req *dto.CreateJWTRequest) (*dto.CreateJWTResponse, error)

	// DecodeToken decodes without verification.
	DecodeToken(token string) (*models.VincentJWT, error)

	// ConsentURL builds the consent redirect for appID.
	ConsentURL(appID string, redirectURI string) (string, error)

	// ExpectedAudience is the audience tokens must carry for this service.
	ExpectedAudience() string
}

// AuthAppConfig configures AuthAppService.
type AuthAppConfig struct {
	ExpectedAudience string
	ConsentBaseURL   string
}

type authAppServiceImpl struct {
	cfg        AuthAppConfig
	jwtService domainService.JWTService
	cache      domainService.VerificationCache
	metrics    domainService.Metrics
	tracer     trace.Tracer
	logger     logger.Logger
	now        func() time.Time
}

// NewAuthAppService creates a new instance of AuthAppService. cache, metrics and tracer
// may be nil.
func NewAuthAppService(
	cfg AuthAppConfig,
	jwtService domainService.JWTService,
	cache domainService.VerificationCache,
	metrics domainService.Metrics,
	tracer trace.Tracer,
	log logger.Logger,
) AuthAppService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if tracer == nil {
		tracer = otel.Tracer(constants.ServiceName)
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &authAppServiceImpl{
		cfg:        cfg,
		jwtService: jwtService,
		cache:      cache,
		metrics:    metrics,
		tracer:     tracer,
		logger:     log.WithComponent("AuthAppService"),
		now:        time.Now,
	}
}

func (s *authAppServiceImpl) ExpectedAudience() string { return s.cfg.ExpectedAudience }

// VerifyToken implements AuthAppService.
func (s *authAppServiceImpl) VerifyToken(ctx context.Context, token string, audience string) (*models.AuthResult, error) {
	if audience == "" {
		audience = s.cfg.ExpectedAudience
	}
	ctx, span := s.tracer.Start(ctx, "vincent.jwt.verify", trace.WithAttributes(attribute.String("audience", audience)))
	defer span.End()
	start := s.now()

	if s.cache != nil {
		decoded, hit := s.cache.Get(audience, token)
		s.metrics.RecordCacheAccess(verificationCacheName, hit)
		if hit {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			s.metrics.RecordTokenVerify(true, s.now().Sub(start), "")
			return newAuthResult(decoded, token), nil
		}
	}

	decoded, err := s.jwtService.VerifyJWT(ctx, token, audience)
	if err != nil {
		code := ""
		if ve, ok := errors.AsVincentError(err); ok {
			code = string(ve.Code())
		}
		s.metrics.RecordTokenVerify(false, s.now().Sub(start), code)
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		s.logger.Debug(ctx, "Vincent JWT rejected", logger.Reason(err.Error()))
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(audience, token, decoded)
	}
	s.metrics.RecordTokenVerify(true, s.now().Sub(start), "")
	span.SetAttributes(attribute.String("pkp_address", decoded.PKPAddress()))
	s.logger.Debug(ctx, "Vincent JWT verified", logger.PKPAddress(decoded.PKPAddress()))
	return newAuthResult(decoded, token), nil
}

func newAuthResult(decoded *models.VincentJWT, token string) *models.AuthResult {
	return &models.AuthResult{
		DecodedJWT: decoded,
		PKPAddress: decoded.PKPAddress(),
		RawJWT:     token,
	}
}

// CreateToken implements AuthAppService.
func (s *authAppServiceImpl) CreateToken(ctx context.Context, signer domainService.DelegatedSigner, identity models.SignerIdentity, req *dto.CreateJWTRequest) (*dto.CreateJWTResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(identity); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "vincent.jwt.create")
	defer span.End()
	start := s.now()

	token, err := s.jwtService.CreateSignedJWT(ctx, domainService.CreateJWTConfig{
		Signer:           signer,
		SignerIdentity:   identity,
		Payload:          req.Payload,
		ExpiresInMinutes: req.ExpiresInMinutes,
		Audience:         req.Audience,
	})
	if err != nil {
		code := string(constants.ErrCodeServerError)
		if ve, ok := errors.AsVincentError(err); ok {
			code = string(ve.Code())
		}
		s.metrics.RecordTokenCreate(false, s.now().Sub(start), code)
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		return nil, err
	}
	s.metrics.RecordTokenCreate(true, s.now().Sub(start), "")

	resp := &dto.CreateJWTResponse{Token: token, PKPAddress: identity.Address}
	if decoded, err := s.jwtService.DecodeJWT(token); err == nil {
		resp.ExpiresAt = decoded.ExpiresAt()
	}
	s.logger.Info(ctx, "Vincent JWT issued",
		logger.PKPAddress(identity.Address),
		logger.Int64("exp", resp.ExpiresAt),
	)
	return resp, nil
}

// DecodeToken implements AuthAppService.
func (s *authAppServiceImpl) DecodeToken(token string) (*models.VincentJWT, error) {
	return s.jwtService.DecodeJWT(token)
}

// ConsentURL implements AuthAppService.
func (s *authAppServiceImpl) ConsentURL(appID string, redirectURI string) (string, error) {
	u, err := utils.ConsentURL(s.cfg.ConsentBaseURL, appID, redirectURI)
	if err != nil {
		return "", errors.ErrInvalidRequest(err.Error()).WithCause(err)
	}
	return u, nil
}

type noopMetrics struct{}

func (noopMetrics) RecordTokenCreate(bool, time.Duration, string) {}
func (noopMetrics) RecordTokenVerify(bool, time.Duration, string) {}
func (noopMetrics) RecordParamValidation(string, bool)            {}
func (noopMetrics) RecordRateLimitHit(string)                     {}
func (noopMetrics) RecordCacheAccess(string, bool)                {}
