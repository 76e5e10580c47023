package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"PredictLens/internal/comparison"
	"PredictLens/internal/report"
)

func newCompareCmd(a *app) *cobra.Command {
	var (
		residuals string
		xlsxPath  string
		rows      int
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the configured model result files against real prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("rows") {
				rows = a.cfg.Comparison.PreviewRows
			}
			return a.runCompare(cmd, residuals, xlsxPath, rows)
		},
	}
	cmd.Flags().StringVar(&residuals, "residuals", "", "print residual analysis for this model")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the merged table and metrics to this workbook")
	cmd.Flags().IntVar(&rows, "rows", 0, "merged rows to print (default from config, 0 for none)")
	return cmd
}

func (a *app) runCompare(cmd *cobra.Command, residuals, xlsxPath string, rows int) error {
	rec := a.recorder()
	defer rec.Close()

	rep, err := a.comparisonService().Run(a.sources())
	if err != nil {
		return err
	}
	if err := rec.RecordComparison(rep.Metrics); err != nil {
		a.logger.Error("record comparison", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	for _, w := range rep.Warnings {
		fmt.Fprintln(out, "warning:", w.String())
	}
	fmt.Fprintln(out, report.MetricsTable(rep.Metrics))
	if rows > 0 {
		fmt.Fprintln(out, report.MergedTable(rep.Merged, rows))
	}

	if residuals != "" {
		ra, err := comparison.AnalyzeResiduals(rep.Merged, residuals, a.cfg.Comparison.HistogramBins)
		switch {
		case errors.Is(err, comparison.ErrNoPredictions):
			fmt.Fprintf(out, "warning: %s has no predictions to analyze\n", residuals)
		case err != nil:
			return err
		default:
			fmt.Fprintln(out, report.ResidualSummary(ra))
		}
	}

	if xlsxPath != "" {
		f, err := os.Create(xlsxPath)
		if err != nil {
			return fmt.Errorf("create workbook: %w", err)
		}
		defer f.Close()
		if err := report.WriteComparisonXLSX(f, rep.Merged, rep.Metrics); err != nil {
			return err
		}
		fmt.Fprintln(out, "workbook written to", xlsxPath)
	}
	return nil
}
