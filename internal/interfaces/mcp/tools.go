// Package mcp exposes Vincent abilities as MCP tools. Tool input schemas are built from
// ability parameter definitions, and arguments are validated and coerced before an
// ability runs.
package mcp

import (
	"fmt"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/turtacn/vincent/internal/config"
	"github.com/turtacn/vincent/pkg/params"
)

// BuildTool turns a tool declaration into an MCP tool and the schema map its arguments
// are checked against.
// BuildTool 根据工具声明构建 MCP 工具定义及参数校验表。
func BuildTool(cfg config.ToolConfig) (mcpgo.Tool, params.SchemaMap, error) {
	schemas, err := params.BuildParamDefinitions(cfg.Parameters)
	if err != nil {
		return mcpgo.Tool{}, nil, fmt.Errorf("tool %q: %w", cfg.Name, err)
	}

	opts := []mcpgo.ToolOption{mcpgo.WithDescription(cfg.Description)}
	for _, name := range schemas.Names() {
		opts = append(opts, propertyOption(schemas[name]))
	}
	return mcpgo.NewTool(cfg.Name, opts...), schemas, nil
}

// propertyOption never marks a parameter required: "" is a valid value of every type.
func propertyOption(s params.Schema) mcpgo.ToolOption {
	props := []mcpgo.PropertyOption{mcpgo.Description(s.Description)}
	pattern := params.Pattern(s.Type)

	if s.Type.IsArray() {
		item := map[string]any{"type": params.ItemJSONType(s.Type)}
		if pattern != "" {
			item["pattern"] = pattern
		}
		return mcpgo.WithArray(s.Name, append(props, mcpgo.Items(item))...)
	}

	switch params.JSONType(s.Type) {
	case "number":
		return mcpgo.WithNumber(s.Name, props...)
	case "boolean":
		return mcpgo.WithBoolean(s.Name, props...)
	}
	if pattern != "" {
		props = append(props, mcpgo.Pattern(pattern))
	}
	return mcpgo.WithString(s.Name, props...)
}
