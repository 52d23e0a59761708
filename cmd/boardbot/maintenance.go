package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nbenliogludev/boardbot-e2e/internal/report"
)

func pruneCmd() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("keep") {
				keep = cfg.Reports.Retention
			}
			removed, err := report.NewStore(cfg.Reports.Dir, logger).Prune(keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d report(s), kept up to %d in %s\n", len(removed), keep, cfg.Reports.Dir)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", report.DefaultRetention, "Number of reports to keep (default: reports.retention)")
	return cmd
}

func cleanCmd() *cobra.Command {
	var reportsToo bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Empty the Allure results and test artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := []string{cfg.Reports.AllureDir, cfg.Reports.Artifacts}
			if reportsToo {
				dirs = append(dirs, cfg.Reports.Dir, cfg.Reports.HTMLDir)
			}
			return report.Clear(logger, dirs...)
		},
	}
	cmd.Flags().BoolVar(&reportsToo, "reports", false, "Also clear Markdown and HTML reports")
	return cmd
}
