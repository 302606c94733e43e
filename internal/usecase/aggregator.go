// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/naka-gawa/topic-pr-report/internal/domain"
	"github.com/naka-gawa/topic-pr-report/internal/gateway"
	"github.com/naka-gawa/topic-pr-report/internal/pager"
)

// Params selects what a run reports on.
type Params struct {
	Org    string
	Topic  string
	Window domain.DateWindow
}

// Aggregator is the use case for building the merged pull request report.
// It runs discovery, collection and classification one after another.
type Aggregator struct {
	fetcher gateway.Fetcher
	logger  *zap.Logger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Aggregate performs the main business logic.
// Fetch failures degrade the report instead of aborting it; they are logged
// and recorded so that Report.Partial tells callers the data is incomplete.
// Only cancellation of ctx is returned as an error.
func (a *Aggregator) Aggregate(ctx context.Context, params Params) (*domain.Report, error) {
	report := domain.NewReport(params.Topic, params.Window)

	a.logger.Info("[1/3] Discovering repositories...", zap.String("org", params.Org), zap.String("topic", params.Topic))
	repos, err := a.DiscoverRepositories(ctx, params.Org, params.Topic)
	if err != nil {
		if isCancellation(err) {
			return nil, err
		}
		report.Fail(domain.StageDiscovery, "", err)
	}
	a.logger.Info("Repositories with topic found.", zap.Int("count", len(repos)))

	a.logger.Info("[2/3] Collecting merged pull requests...")
	merged := make([][]domain.PullRequest, len(repos))
	for i, repo := range repos {
		report.AddRepository(repo.FullName)
		prs, err := a.CollectPullRequests(ctx, repo.FullName, params.Window)
		if err != nil {
			if isCancellation(err) {
				return nil, err
			}
			report.Fail(domain.StageCollection, repo.FullName, err)
		}
		merged[i] = prs
	}

	a.logger.Info("[3/3] Classifying contributors...")
	for i, repo := range repos {
		for _, pr := range merged[i] {
			// The contributor list is fetched for every qualifying PR.
			contributors, err := a.fetcher.ListContributors(ctx, repo.FullName)
			if err != nil {
				if isCancellation(err) {
					return nil, err
				}
				a.logger.Warn("Failed to fetch contributors",
					zap.String("repository", repo.FullName),
					zap.String("author", pr.Author),
					zap.Error(err))
				report.Fail(domain.StageContributors, repo.FullName, err)
				report.Record(repo.FullName, pr, nil, false)
				continue
			}
			report.Record(repo.FullName, pr, contributors, true)
		}
	}

	a.logger.Info("Aggregation complete.",
		zap.Int("merged_prs", report.TotalPRs),
		zap.Bool("partial", report.Partial()))
	return report, nil
}

// DiscoverRepositories lists the organization's repositories page by page
// and keeps those labelled with topic. On a failed page the repositories
// seen so far are returned along with the error.
func (a *Aggregator) DiscoverRepositories(ctx context.Context, org, topic string) ([]domain.Repository, error) {
	fetch := func(ctx context.Context, page int) ([]domain.Repository, error) {
		return a.fetcher.ListOrgRepositories(ctx, org, page)
	}
	var matched []domain.Repository
	for page, err := range pager.Pages(ctx, fetch, nil) {
		if err != nil {
			a.logger.Warn("Failed to fetch repositories", zap.String("org", org), zap.Error(err))
			return matched, err
		}
		matched = append(matched, domain.FilterByTopic(page, topic)...)
	}
	return matched, nil
}

// CollectPullRequests pages through the repository's closed pull requests and
// keeps those merged inside window. On a failed page the pull requests seen
// so far are returned along with the error.
func (a *Aggregator) CollectPullRequests(ctx context.Context, fullName string, window domain.DateWindow) ([]domain.PullRequest, error) {
	fetch := func(ctx context.Context, page int) ([]domain.PullRequest, error) {
		return a.fetcher.ListClosedPullRequests(ctx, fullName, page)
	}
	var merged []domain.PullRequest
	for page, err := range pager.Pages(ctx, fetch, nil) {
		if err != nil {
			a.logger.Warn("Failed to fetch pull requests", zap.String("repository", fullName), zap.Error(err))
			return merged, err
		}
		merged = append(merged, domain.FilterMerged(page, window)...)
	}
	a.logger.Debug("Merged pull requests collected.", zap.String("repository", fullName), zap.Int("count", len(merged)))
	return merged, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
