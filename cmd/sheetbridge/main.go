// Package main provides the sheetbridge command line tool.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sheetbridge/sheetbridge/internal/config"
	"github.com/sheetbridge/sheetbridge/internal/core"
	"github.com/sheetbridge/sheetbridge/internal/logging"
	_ "github.com/sheetbridge/sheetbridge/internal/schema" // Register all schemas
)

var (
	schemaKey   string
	sheetName   string
	mappingPath string
	outputPath  string
	pretty      bool
	logLevel    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sheetbridge",
		Short: "Detect, map and convert spreadsheet tables",
		Long: `sheetbridge locates the table region inside a messy spreadsheet,
suggests a mapping from its columns onto a target schema and converts
rows to structured JSON records.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logLevel, "text")
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [input file]",
		Short: "Detect the table region and suggest a column mapping",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().StringVar(&schemaKey, "schema", "", "Target schema key (required)")
	analyzeCmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet name (default: first sheet)")
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	analyzeCmd.MarkFlagRequired("schema")

	convertCmd := &cobra.Command{
		Use:   "convert [input file]",
		Short: "Convert all table rows to structured records",
		Long: `convert runs detection, applies a column mapping and emits one JSON
record per data row. Without --mapping the suggested mapping from the
analysis step is applied.`,
		Args: cobra.ExactArgs(1),
		RunE: runConvert,
	}
	convertCmd.Flags().StringVar(&schemaKey, "schema", "", "Target schema key (required)")
	convertCmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet name (default: first sheet)")
	convertCmd.Flags().StringVar(&mappingPath, "mapping", "", "JSON file with a column mapping (default: suggested mapping)")
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	convertCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	convertCmd.MarkFlagRequired("schema")

	schemasCmd := &cobra.Command{
		Use:   "schemas",
		Short: "List registered target schemas",
		Args:  cobra.NoArgs,
		RunE:  runSchemas,
	}

	rootCmd.AddCommand(analyzeCmd, convertCmd, schemasCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	service, err := newService()
	if err != nil {
		return err
	}

	result, err := analyzeFile(service, args[0])
	if err != nil {
		return err
	}

	return writeJSON(result)
}

func runConvert(cmd *cobra.Command, args []string) error {
	service, err := newService()
	if err != nil {
		return err
	}

	analysis, err := analyzeFile(service, args[0])
	if err != nil {
		return err
	}

	mapping := analysis.Suggested
	if mappingPath != "" {
		data, err := os.ReadFile(mappingPath)
		if err != nil {
			return fmt.Errorf("read mapping file: %w", err)
		}
		mapping = core.ColumnMapping{}
		if err := json.Unmarshal(data, &mapping); err != nil {
			return fmt.Errorf("parse mapping file: %w", err)
		}
	}

	if issues, err := service.ValidateMapping(schemaKey, mapping); err != nil {
		return err
	} else if len(issues) > 0 {
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "mapping issue: %s: %s\n", issue.Field, issue.Message)
		}
		return fmt.Errorf("mapping has %d issue(s)", len(issues))
	}

	result, err := service.Convert(context.Background(), analysis.SessionID, mapping)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	return writeJSON(result)
}

func runSchemas(cmd *cobra.Command, args []string) error {
	service, err := newService()
	if err != nil {
		return err
	}
	pretty = true
	return writeJSON(service.ListSchemas())
}

func newService() (*core.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return core.NewService(cfg), nil
}

func analyzeFile(service *core.Service, inputPath string) (*core.AnalysisResult, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	result, err := service.Analyze(context.Background(), schemaKey, filepath.Base(inputPath), data, sheetName)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	return result, nil
}

func writeJSON(v any) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	fmt.Println(string(data))
	return nil
}
