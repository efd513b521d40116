package service

import (
	"context"

	"github.com/turtacn/vincent/internal/application/dto"
	domainService "github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/pkg/logger"
	"github.com/turtacn/vincent/pkg/params"
)

// ParamsAppService validates, coerces and describes ability parameters in batches.
type ParamsAppService interface {
	// Validate checks every supplied value against its definition without coercing.
	Validate(ctx context.Context, req *dto.ParamsRequest) (*dto.ParamsResponse, error)

	// Coerce validates and coerces every supplied value.
	Coerce(ctx context.Context, req *dto.ParamsRequest) (*dto.ParamsResponse, error)

	// Schema builds the schema map for the definitions.
	Schema(ctx context.Context, req *dto.ParamsRequest) (*dto.SchemaResponse, error)
}

type paramsAppServiceImpl struct {
	metrics domainService.Metrics
	logger  logger.Logger
}

// NewParamsAppService creates a ParamsAppService. metrics may be nil.
func NewParamsAppService(metrics domainService.Metrics, log logger.Logger) ParamsAppService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &paramsAppServiceImpl{metrics: metrics, logger: log.WithComponent("ParamsAppService")}
}

func (s *paramsAppServiceImpl) Validate(ctx context.Context, req *dto.ParamsRequest) (*dto.ParamsResponse, error) {
	return s.check(ctx, req, false)
}

func (s *paramsAppServiceImpl) Coerce(ctx context.Context, req *dto.ParamsRequest) (*dto.ParamsResponse, error) {
	return s.check(ctx, req, true)
}

func (s *paramsAppServiceImpl) check(ctx context.Context, req *dto.ParamsRequest, withValues bool) (*dto.ParamsResponse, error) {
	schemas, err := params.BuildParamDefinitions(req.Definitions)
	if err != nil {
		return nil, err
	}

	coerced, errs := schemas.Check(req.Values)
	failed := make(map[string]string, len(errs))
	for _, fe := range errs {
		failed[fe.Field] = fe.Message
	}

	resp := &dto.ParamsResponse{Valid: len(errs) == 0, Errors: errs}
	for _, name := range schemas.Names() {
		schema := schemas[name]
		_, present := req.Values[name]
		result := dto.ParamResult{Name: name, Type: schema.Type, Present: present, Valid: true}
		if msg, bad := failed[name]; bad {
			result.Valid = false
			result.Message = msg
		}
		if present {
			s.metrics.RecordParamValidation(schema.Type.String(), result.Valid)
		}
		if v, ok := coerced[name]; ok && withValues {
			value := v
			result.Value = &value
		}
		resp.Results = append(resp.Results, result)
	}

	if !resp.Valid {
		s.logger.Debug(ctx, "Parameter validation failed", logger.Int("errors", len(errs)))
	}
	return resp, nil
}

func (s *paramsAppServiceImpl) Schema(ctx context.Context, req *dto.ParamsRequest) (*dto.SchemaResponse, error) {
	schemas, err := params.BuildParamDefinitions(req.Definitions)
	if err != nil {
		return nil, err
	}
	resp := &dto.SchemaResponse{JSONSchema: schemas.JSONSchema()}
	for _, name := range schemas.Names() {
		schema := schemas[name]
		resp.Parameters = append(resp.Parameters, dto.SchemaEntry{
			Name:        name,
			Type:        schema.Type,
			MCPType:     schema.Type.MCPName(),
			Description: schema.Description,
			JSONSchema:  schema.JSONSchema(),
		})
	}
	return resp, nil
}
