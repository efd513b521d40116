package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/vincent/internal/config"
)

// NewRootCommand builds the `vincent-admin` command tree.
// NewRootCommand 构建 `vincent-admin` 命令树。
func NewRootCommand() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:   "vincent-admin",
		Short: "A CLI tool for Vincent JWTs and ability parameters.",
		Long: `vincent-admin creates, verifies and decodes Vincent JWTs, validates and coerces
ability parameters and manages the delegated signing key.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", os.Getenv("VINCENT_CONFIG"), "config file")

	loadConfig := func() (*config.Config, error) {
		return config.LoadConfig(configFile)
	}
	root.AddCommand(
		newJWTCommand(loadConfig),
		newParamsCommand(),
		newSignerCommand(loadConfig),
		newConsentServerCommand(loadConfig),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type configFunc func() (*config.Config, error)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
