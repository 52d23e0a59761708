package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nbenliogludev/boardbot-e2e/internal/browser"
)

func preflightCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check that the site loads in headless Chrome",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := browser.Preflight(cmd.Context(), browser.PreflightOptions{
				URL:            cfg.Site.BaseURL,
				UserAgent:      cfg.Site.UserAgent,
				AcceptLanguage: cfg.Site.AcceptLanguage,
				Timeout:        timeout,
			})
			if err != nil {
				return err
			}
			logger.Info().Str("url", res.URL).Str("title", res.Title).Msg("Preflight passed")
			fmt.Fprintf(cmd.OutOrStdout(), "%s loaded in %s: %q\n", res.URL, res.Elapsed.Truncate(time.Millisecond), res.Title)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Page load budget")
	return cmd
}
