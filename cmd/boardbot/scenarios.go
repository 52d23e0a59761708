package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nbenliogludev/boardbot-e2e/internal/scenario"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFF88")).Background(lipgloss.Color("#444444")).Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func scenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios [pattern]",
		Short: "List the scenario catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := scenario.Load(cfg.Scenarios.Path)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				list = scenario.Filter(list, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderScenarios(list))
			return nil
		},
	}
}

func renderScenarios(list []scenario.Scenario) string {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		category := s.ExpectedCategory
		if s.Exploratory {
			category = mutedStyle.Render("(any)")
		}
		ai := ""
		if s.AIValidation {
			ai = "yes"
		}
		owner := s.Owner
		if owner == "" {
			owner = mutedStyle.Render("-")
		}
		rows = append(rows, []string{s.ID, category, fmt.Sprint(s.MaxProducts), ai, owner, truncate(s.Prompt, 60)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("ID", "CATEGORY", "MAX", "AI", "OWNER", "PROMPT").
		Rows(rows...)

	title := titleStyle.Render(fmt.Sprintf("BoardBot scenarios (%d)", len(list)))
	return title + "\n" + t.Render()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func ownersCmd() *cobra.Command {
	owners := &cobra.Command{
		Use:   "owners",
		Short: "Manage scenario owners",
	}

	var owner string
	set := &cobra.Command{
		Use:   "set --owner NAME ID...",
		Short: "Assign an owner to scenarios in the catalog file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := scenario.SetOwner(cfg.Scenarios.Path, owner, args...)
			if err != nil {
				return err
			}
			if len(changed) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "All %d scenario(s) already owned by %s\n", len(args), owner)
				return nil
			}
			logger.Info().Str("owner", owner).Strs("ids", changed).Msg("Owners updated")
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d scenario(s): %s\n", len(changed), strings.Join(changed, ", "))
			return nil
		},
	}
	set.Flags().StringVar(&owner, "owner", "", "Owner name")
	_ = set.MarkFlagRequired("owner")

	owners.AddCommand(set)
	return owners
}
