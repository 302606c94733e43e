package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/naka-gawa/topic-pr-report/internal/config"
	"github.com/naka-gawa/topic-pr-report/internal/domain"
	"github.com/naka-gawa/topic-pr-report/internal/gateway"
	"github.com/naka-gawa/topic-pr-report/internal/usecase"
)

func newReportCmd(v *viper.Viper) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reports merged pull requests and new contributors for topic-labelled repositories",
		Long: `Lists the organization's repositories carrying the topic, collects their pull requests
merged inside the date window and classifies every author as new or returning
against the repository's contributor list.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(v)
			if err != nil {
				return err
			}
			if err := cfg.ValidateForGitHubOperations(); err != nil {
				if errors.Is(err, config.ErrMissingToken) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s environment variable is not set.\n", config.TokenEnv)
					os.Exit(1)
				}
				return err
			}

			verbose, _ := cmd.InheritedFlags().GetBool("verbose")
			logger, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			githubGateway, err := gateway.NewGitHubGateway(cfg.GithubToken, gateway.Options{
				BaseURL:         cfg.BaseURL,
				PerPage:         cfg.PerPage,
				AllContributors: cfg.AllContributors,
				RateLimitWait:   cfg.RateLimitWait,
			}, logger)
			if err != nil {
				return fmt.Errorf("failed to create GitHub gateway: %w", err)
			}
			aggregator := usecase.NewAggregator(githubGateway, logger)

			report, err := aggregator.Aggregate(cmd.Context(), usecase.Params{
				Org:    cfg.Org,
				Topic:  cfg.Topic,
				Window: domain.DateWindow{From: cfg.From, To: cfg.To},
			})
			if err != nil {
				return fmt.Errorf("failed to aggregate report: %w", err)
			}

			summary := report.Summary()
			if asJSON {
				err = writeJSON(cmd.OutOrStdout(), summary)
			} else {
				err = writeText(cmd.OutOrStdout(), summary)
			}
			if err != nil {
				return err
			}
			if summary.Partial {
				logger.Warn("Report is incomplete: some fetches failed.", zap.Int("failures", len(summary.Failures)))
			}
			return nil
		},
	}

	defaults := config.DefaultConfig()
	flags := cmd.Flags()
	flags.StringP("org", "o", defaults.Org, "GitHub organization to scan")
	flags.StringP("topic", "t", defaults.Topic, "Repository topic to filter on")
	flags.String("from", defaults.From, "First merge date to count (YYYY-MM-DD)")
	flags.String("to", defaults.To, "Last merge date to count (YYYY-MM-DD)")
	flags.String("base-url", "", "GitHub Enterprise REST API root")
	flags.Bool("all-contributors", defaults.AllContributors, "Page through the full contributor list instead of the first page only")
	flags.Duration("rate-limit-wait", defaults.RateLimitWait, "Sleep up to this long on secondary rate limits (0 disables)")
	flags.BoolVar(&asJSON, "json", false, "Print the report as JSON")

	for key, flag := range map[string]string{
		"org":              "org",
		"topic":            "topic",
		"from":             "from",
		"to":               "to",
		"base_url":         "base-url",
		"all_contributors": "all-contributors",
		"rate_limit_wait":  "rate-limit-wait",
	} {
		// Lookup cannot miss: every flag is registered above.
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
	return cmd
}

func writeText(w io.Writer, s domain.Summary) error {
	_, err := fmt.Fprintf(w,
		"Total Merged PRs in %s Repos: %d\n"+
			"Distinct Contributors: %d\n"+
			"New Contributors: %d\n"+
			"\nList of Distinct Contributors: %v\n"+
			"\nList of New Contributors: %v\n"+
			"\nMerged PRs per Repository (%d repos): mean %.2f, median %.2f, max %.0f\n",
		s.Topic, s.TotalPRs,
		len(s.DistinctContributors),
		len(s.NewContributors),
		s.DistinctContributors,
		s.NewContributors,
		len(s.Repositories), s.PerRepo.Mean, s.PerRepo.Median, s.PerRepo.Max,
	)
	return err
}

func writeJSON(w io.Writer, s domain.Summary) error {
	jsonData, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

func init() {
	rootCmd.AddCommand(newReportCmd(viper.New()))
}
