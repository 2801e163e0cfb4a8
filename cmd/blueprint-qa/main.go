// Package main provides the blueprint-qa command line interface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "blueprint-qa",
	Short: "Construction blueprint QA analysis",
	Long: `blueprint-qa reviews construction blueprint sheets with a vision AI
model, checking each page against a fixed QA criterion catalog and flagging
issues with their locations on the sheet.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
