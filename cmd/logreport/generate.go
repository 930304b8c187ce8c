package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/coffersTech/logreport/internal/engine"
	"github.com/coffersTech/logreport/internal/ui"
)

func newGenerateCmd(a *app) *cobra.Command {
	var query, output string
	cmd := &cobra.Command{
		Use:   "generate <service> <logs-path>",
		Short: "Print reports for a service's rotated logs",
		Long: `Print one report per service found under logs-path. Use "*" or "" as the
service to report on every service in the directory.`,
		Example: `  logreport generate api /var/log/api
  logreport generate '*' ./logs --query 'severity:ERROR' --output json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logsPath := args[1]
			// Without a configured root, relative paths follow the working directory.
			if a.cfg.LogsRoot == "/" && !filepath.IsAbs(logsPath) {
				abs, err := filepath.Abs(logsPath)
				if err != nil {
					return err
				}
				logsPath = abs
			}

			reports, err := a.newGenerator().GenerateFiltered(cmd.Context(), args[0], logsPath, query)
			if err != nil {
				return err
			}
			return writeReports(a.stdout, reports, output)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", `record filter, e.g. 'severity:ERROR AND NOT category:db'`)
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, table, json or yaml")
	return cmd
}

func writeReports(w io.Writer, reports []engine.Report, format string) error {
	switch format {
	case "text", "":
		for _, r := range reports {
			if _, err := io.WriteString(w, r.Text); err != nil {
				return err
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "table":
		return ui.WriteReportTable(w, reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, table, json or yaml)", format)
	}
}
