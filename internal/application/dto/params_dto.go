package dto

import (
	"github.com/turtacn/vincent/pkg/params"
)

// ParamsRequest carries parameter definitions and, for validate/coerce, the values.
type ParamsRequest struct {
	Definitions []params.Definition    `json:"definitions" binding:"required" validate:"required,dive"`
	Values      map[string]interface{} `json:"values"`
}

// ParamResult is the outcome for one declared parameter.
type ParamResult struct {
	Name    string        `json:"name"`
	Type    params.Type   `json:"type"`
	Present bool          `json:"present"`
	Valid   bool          `json:"valid"`
	Message string        `json:"message,omitempty"`
	Value   *params.Value `json:"value,omitempty"`
}

// ParamsResponse 参数校验/转换结果
type ParamsResponse struct {
	Valid   bool                    `json:"valid"`
	Results []ParamResult           `json:"results"`
	Errors  params.ValidationErrors `json:"errors,omitempty"`
}

// SchemaEntry describes one parameter for UIs and tool builders.
type SchemaEntry struct {
	Name        string                 `json:"name"`
	Type        params.Type            `json:"type"`
	MCPType     string                 `json:"mcpType"`
	Description string                 `json:"description"`
	JSONSchema  map[string]interface{} `json:"jsonSchema"`
}

// SchemaResponse is the schema map plus the combined JSON Schema object.
type SchemaResponse struct {
	Parameters []SchemaEntry          `json:"parameters"`
	JSONSchema map[string]interface{} `json:"jsonSchema"`
}
