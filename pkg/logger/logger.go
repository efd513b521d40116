// Package logger provides the structured logging contract for the Vincent auth service.
// The production implementation lives in internal/infrastructure/monitoring and is backed by zap.
package logger

import (
	"context"
	"time"

	"github.com/turtacn/vincent/pkg/constants"
)

// Logger is the structured logger every component receives. ctx carries request-scoped
// values (request id, trace) that implementations attach to each entry.
// Logger 为各组件使用的结构化日志接口。
type Logger interface {
	Debug(ctx context.Context, message string, fields ...Field)
	Info(ctx context.Context, message string, fields ...Field)
	Warn(ctx context.Context, message string, fields ...Field)
	// Error and Fatal take the error separately so it is always logged under "error".
	Error(ctx context.Context, message string, err error, fields ...Field)
	// Fatal logs and exits the process.
	Fatal(ctx context.Context, message string, err error, fields ...Field)

	WithFields(fields ...Field) Logger
	// WithComponent tags every entry with the "component" field.
	WithComponent(component string) Logger

	// SetLevel changes the level at runtime, e.g. on config reload.
	SetLevel(level constants.LogLevel)
	GetLevel() constants.LogLevel
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// Component is the field key used by WithComponent.
const Component = "component"

func String(key string, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Duration renders value in its String form.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Error renders err as its message, or nil.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// PKPAddress is the delegator PKP a token or call belongs to. Tokens themselves are
// never logged.
func PKPAddress(address string) Field { return Field{Key: "pkp_address", Value: address} }

// Ability names the ability (MCP tool) a call targets.
func Ability(name string) Field { return Field{Key: "ability", Value: name} }

// Reason is the machine-readable cause of a rejection, e.g. "expired".
func Reason(reason string) Field { return Field{Key: "reason", Value: reason} }
