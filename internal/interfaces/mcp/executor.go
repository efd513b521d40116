package mcp

import (
	"context"

	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/pkg/logger"
	"github.com/turtacn/vincent/pkg/params"
)

// DryRunExecutor is the AbilityExecutor used when no ability runtime is configured. It
// reports what would have been executed.
type DryRunExecutor struct {
	log logger.Logger
}

var _ service.AbilityExecutor = (*DryRunExecutor)(nil)

// NewDryRunExecutor creates a DryRunExecutor.
func NewDryRunExecutor(log logger.Logger) *DryRunExecutor {
	return &DryRunExecutor{log: log.WithComponent("DryRunExecutor")}
}

// Execute echoes the ability, the delegator PKP and the coerced parameters.
func (e *DryRunExecutor) Execute(ctx context.Context, ability string, auth *models.AuthResult, values map[string]params.Value) (interface{}, error) {
	pkp := ""
	if auth != nil {
		pkp = auth.PKPAddress
	}
	e.log.Info(ctx, "Dry run ability execution",
		logger.Ability(ability),
		logger.PKPAddress(pkp),
		logger.Int("parameters", len(values)),
	)
	return map[string]interface{}{
		"ability":    ability,
		"pkpAddress": pkp,
		"dryRun":     true,
		"parameters": values,
	}, nil
}
