package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/planlens/blueprint-qa/internal/analysis"
	"github.com/planlens/blueprint-qa/internal/config"
	"github.com/planlens/blueprint-qa/internal/domain"
	"github.com/planlens/blueprint-qa/internal/observability"
	"github.com/planlens/blueprint-qa/internal/pdf"
)

var (
	useMock    bool
	outputPath string
	maxPages   int
)

func init() {
	analyzeCmd.Flags().BoolVar(&useMock, "mock", false, "Use the offline mock provider")
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the full result as JSON to this file")
	analyzeCmd.Flags().IntVar(&maxPages, "max-pages", 0, "Override the page ceiling")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <pdf>",
	Short: "Analyze a blueprint PDF and print the QA report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if useMock {
			cfg.Analysis.MockAnalysis = true
		}
		if maxPages > 0 {
			cfg.Analysis.MaxPages = maxPages
		}

		logger := observability.NewLogger(observability.LogConfig{
			Level:       "warn",
			Format:      "console",
			ServiceName: "blueprint-qa",
		})

		provider, err := analysis.NewProvider(cfg, logger)
		if err != nil {
			return err
		}

		converter := pdf.NewConverter(cfg.Render.TargetLongEdgePx, cfg.Render.JPEGQuality)
		bar := progressbar.Default(-1, "rendering pages")
		pages, err := converter.Render(cmd.Context(), args[0], func(int) {
			bar.Add(1)
		})
		bar.Finish()
		if err != nil {
			return err
		}

		fmt.Printf("Analyzing %d pages with the %s provider...\n", len(pages), provider.Name())

		orchestrator := analysis.NewOrchestrator(provider, cfg.Analysis, logger)
		result, err := orchestrator.Analyze(cmd.Context(), pages)
		if err != nil {
			return err
		}

		printResult(result)

		if outputPath != "" {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(outputPath, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("\nFull result written to %s\n", outputPath)
		}

		return nil
	},
}

func printResult(result *domain.DocumentResult) {
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed)
	na := color.New(color.FgYellow)

	fmt.Println()
	color.New(color.Bold).Println("Criteria")
	for _, c := range result.Criteria {
		switch c.Result {
		case domain.ResultPass:
			pass.Printf("  PASS  ")
		case domain.ResultFail:
			fail.Printf("  FAIL  ")
		default:
			na.Printf("  N/A   ")
		}
		fmt.Printf("p%-3d %-30s %s\n", c.Page, c.Name, c.Summary)
	}

	fmt.Println()
	color.New(color.Bold).Printf("Issues (%d)\n", len(result.Issues))
	for _, issue := range result.Issues {
		switch issue.Severity {
		case domain.SeverityHigh:
			fail.Printf("  [%s] ", issue.Severity)
		case domain.SeverityMedium:
			na.Printf("  [%s] ", issue.Severity)
		default:
			fmt.Printf("  [%s] ", issue.Severity)
		}
		fmt.Printf("%s  p%d  %s (%s)\n", issue.ID, issue.Page, issue.Title, issue.Category)
	}

	m := result.Metadata
	fmt.Println()
	fmt.Printf("Pages analyzed: %d/%d  failed: %d  issues: %d  total: %dms\n",
		m.AnalyzedPages, m.TotalPages, m.FailedPages, len(result.Issues), m.Timings.TotalMs)
}
