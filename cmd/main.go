package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

// @title IFC Model Service
// @version 1.0
// @description Uploads IFC models, converts them to viewer artifacts and provisions viewer payloads.
// @BasePath /api
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ifc-service",
	Short:         "IFC model lifecycle and viewer provisioning service",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
