package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vinodismyname/edamcp/internal/eda"
)

type analyzeOptions struct {
	analysisType string
	columns      []string
	code         string
	backend      string
	sheet        string
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run one analysis and print the report",
		Long: "Run one analysis against a local file or http(s) URL and print the full report.\n" +
			"Analysis types: " + strings.Join(typeNames(), ", ") + ".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := root.logger.WithContext(cmd.Context())
			if opts.sheet != "" {
				root.cfg.Sheet = opts.sheet
			}
			if opts.backend != eda.BackendPython {
				root.cfg.EnablePython = false
			}
			a, err := newApp(ctx, root.cfg, root.logger)
			if err != nil {
				return err
			}
			backend, err := a.selector.Select(opts.backend)
			if err != nil {
				return err
			}

			if timeout := a.controller.LimitsSnapshot().OperationTimeout; timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			rep, err := backend.Analyze(ctx, eda.Request{
				FileRef:    strings.TrimSpace(args[0]),
				Type:       eda.AnalysisType(strings.TrimSpace(opts.analysisType)),
				Columns:    opts.columns,
				CustomCode: opts.code,
			})
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), eda.ErrorText(err))
				return errReported
			}
			fmt.Fprint(cmd.OutOrStdout(), rep.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.analysisType, "type", "t", string(eda.BasicInfo), "analysis type")
	cmd.Flags().StringSliceVarP(&opts.columns, "columns", "c", nil, "columns to analyze, comma separated")
	cmd.Flags().StringVar(&opts.code, "code", "", "custom analysis code (with --type custom_analysis)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "worksheet of an .xlsx input (default $EDA_SHEET, else the first)")
	cmd.Flags().StringVarP(&opts.backend, "backend", "b", eda.BackendNative, "backend: native or python")
	return cmd
}

func typeNames() []string {
	out := make([]string, 0, len(eda.AnalysisTypes))
	for _, t := range eda.AnalysisTypes {
		out = append(out, string(t))
	}
	return out
}
