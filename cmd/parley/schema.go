package main

import (
	"encoding/json"
	"os"

	"github.com/aretw0/parley/pkg/loader"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of graph files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(loader.JSONSchema())
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
