package main

import (
	"fmt"
	"os"

	"github.com/abcode/codelens/cmd/admin/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "codelens-admin",
		Short: "Administration tool for CodeLens API",
		Long:  "CLI tool for maintenance jobs such as re-parsing stored analyses and purging user data",
	}

	rootCmd.AddCommand(commands.NewReparseCmd())
	rootCmd.AddCommand(commands.NewPurgeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
