package main

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/nbenliogludev/boardbot-e2e/internal/common"
	"github.com/nbenliogludev/boardbot-e2e/internal/scenario"
)

// e2eTest is the top-level test in the root package; scenarios run as its
// subtests named by scenario id.
const e2eTest = "TestBoardBot"

func runCmd() *cobra.Command {
	var (
		withAI bool
		pkg    string
	)
	cmd := &cobra.Command{
		Use:   "run [pattern] [-- go test args]",
		Short: "Run the browser suite through go test",
		Long: `Runs the e2e suite with go test. pattern selects scenarios by group
(AdvancedMC, MicroTCA, ...) or by id prefix (AdvancedMC_TC1). Anything after
-- is passed to go test unchanged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			selectors, passthrough := args, []string(nil)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				selectors, passthrough = args[:dash], args[dash:]
			}
			if len(selectors) > 1 {
				return fmt.Errorf("expected at most one pattern, got %d", len(selectors))
			}
			pattern := ""
			if len(selectors) == 1 {
				pattern = selectors[0]
			}

			list, err := scenario.Load(cfg.Scenarios.Path)
			if err != nil {
				return err
			}
			expr, err := runExpression(list, pattern)
			if err != nil {
				return err
			}

			goArgs := append([]string{"test", "-v", "-count=1", "-timeout", "0", "-run", expr, pkg}, passthrough...)
			env := append(os.Environ(), "BOARDBOT_E2E=1")
			if withAI {
				env = append(env, "USE_AI_VALIDATION=true")
			}

			logger.Info().Str("run", expr).Bool("ai", withAI).Msg("Starting go test")
			return forward(exec.Command("go", goArgs...), env)
		},
	}
	cmd.Flags().BoolVar(&withAI, "ai", true, "Enable AI relevance validation (USE_AI_VALIDATION)")
	cmd.Flags().StringVar(&pkg, "pkg", ".", "Package holding the e2e suite")
	return cmd
}

// runExpression builds a go test -run expression selecting the scenarios
// matched by pattern. An empty pattern selects the whole suite.
func runExpression(list []scenario.Scenario, pattern string) (string, error) {
	if pattern == "" {
		return "^" + e2eTest + "$", nil
	}
	matched := scenario.Filter(list, pattern)
	if len(matched) == 0 {
		return "", fmt.Errorf("no scenario matches %q (groups: %s)", pattern, strings.Join(scenario.Groups(list), ", "))
	}
	ids := lo.Map(matched, func(s scenario.Scenario, _ int) string {
		return regexp.QuoteMeta(s.ID)
	})
	return fmt.Sprintf("^%s$/^(%s)$", e2eTest, strings.Join(ids, "|")), nil
}

// forward runs the child in the foreground and relays interrupts to it so
// that Allure results and videos of the running test are still flushed.
func forward(child *exec.Cmd, env []string) error {
	child.Env = env
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	signals := common.NewInterrupts()
	defer signals.Close()

	if err := child.Start(); err != nil {
		return fmt.Errorf("start go test: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- child.Wait() }()

	for {
		select {
		case sig := <-signals.C():
			logger.Warn().Str("signal", sig.String()).Msg("Interrupt received, stopping tests")
			_ = child.Process.Signal(sig)
		case err := <-done:
			if err != nil {
				return fmt.Errorf("go test failed: %w", err)
			}
			return nil
		}
	}
}
