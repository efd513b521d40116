package main

import (
	"github.com/turtacn/vincent/cmd/cli"
)

// main is the entry point for the vincent-admin command-line tool.
// main 是 vincent-admin 命令行工具的入口点。
func main() {
	cli.Execute()
}
