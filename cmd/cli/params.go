package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/vincent/internal/config"
	mcpiface "github.com/turtacn/vincent/internal/interfaces/mcp"
	"github.com/turtacn/vincent/pkg/params"
)

func newParamsCommand() *cobra.Command {
	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "Validate and coerce ability parameters",
	}

	var typeName string
	validateCmd := &cobra.Command{
		Use:   "validate VALUE",
		Short: "Validate a raw value against a parameter type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := params.ParseType(typeName)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), params.Validate(t, args[0]))
		},
	}
	coerceCmd := &cobra.Command{
		Use:   "coerce VALUE",
		Short: "Coerce a raw value to a parameter type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := params.ParseType(typeName)
			if err != nil {
				return err
			}
			if res := params.Validate(t, args[0]); !res.Valid {
				return fmt.Errorf("%s", res.Message)
			}
			v := params.Coerce(t, args[0])
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"type":  t,
				"kind":  v.Kind().String(),
				"value": v,
			})
		},
	}
	for _, c := range []*cobra.Command{validateCmd, coerceCmd} {
		c.Flags().StringVar(&typeName, "type", "", "parameter type (INT256, uint256_array, address, ...)")
		_ = c.MarkFlagRequired("type")
	}

	schemaCmd := &cobra.Command{
		Use:   "schema TOOLS_FILE",
		Short: "Print the MCP tool definitions built from a tools file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := config.LoadTools(args[0])
			if err != nil {
				return err
			}
			out := make([]interface{}, 0, len(tools))
			for _, t := range tools {
				tool, _, err := mcpiface.BuildTool(t)
				if err != nil {
					return err
				}
				out = append(out, tool)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	paramsCmd.AddCommand(validateCmd, coerceCmd, schemaCmd)
	return paramsCmd
}
