// Package gateway provides a gateway to the GitHub REST API,
// abstracting away the underlying client.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v84/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/topic-pr-report/internal/domain"
	"github.com/naka-gawa/topic-pr-report/internal/pager"
)

// ErrInvalidRepositoryName is returned for names not of the form owner/repo.
var ErrInvalidRepositoryName = errors.New("repository name must be owner/repo")

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	ListOrgRepositories(ctx context.Context, org string, page int) ([]domain.Repository, error)
	ListClosedPullRequests(ctx context.Context, fullName string, page int) ([]domain.PullRequest, error)
	ListContributors(ctx context.Context, fullName string) ([]string, error)
}

// Options tunes the gateway.
type Options struct {
	// BaseURL points the client at a GitHub Enterprise REST root.
	BaseURL string
	PerPage int
	// AllContributors pages through the full contributor list instead of
	// reading only the first page the API returns.
	AllContributors bool
	// RateLimitWait enables sleeping on secondary rate limits, up to this
	// long per sleep. Zero disables it.
	RateLimitWait time.Duration
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient *github.Client
	opts       Options
	logger     *zap.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, opts Options, logger *zap.Logger) (*GitHubGateway, error) {
	var base http.RoundTripper = http.DefaultTransport
	if opts.RateLimitWait > 0 {
		rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(opts.RateLimitWait, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
		}
		base = rateLimitWaiter
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(token)})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   base,
			Source: ts,
		},
	}
	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
		}
	}
	return newGateway(client, opts, logger), nil
}

func newGateway(client *github.Client, opts Options, logger *zap.Logger) *GitHubGateway {
	if opts.PerPage <= 0 {
		opts.PerPage = 100
	}
	return &GitHubGateway{restClient: client, opts: opts, logger: logger}
}

// ListOrgRepositories fetches one page of the organization's repositories.
func (g *GitHubGateway) ListOrgRepositories(ctx context.Context, org string, page int) ([]domain.Repository, error) {
	g.logger.Debug("fetching repositories", zap.String("org", org), zap.Int("page", page))
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{Page: page, PerPage: g.opts.PerPage},
	}
	repos, _, err := g.restClient.Repositories.ListByOrg(ctx, org, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repositories: %w", err)
	}
	result := make([]domain.Repository, 0, len(repos))
	for _, repo := range repos {
		result = append(result, domain.Repository{
			FullName: repo.GetFullName(),
			Topics:   repo.Topics,
		})
	}
	return result, nil
}

// ListClosedPullRequests fetches one page of closed pull requests, oldest first.
func (g *GitHubGateway) ListClosedPullRequests(ctx context.Context, fullName string, page int) ([]domain.PullRequest, error) {
	owner, repo, err := SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("fetching pull requests", zap.String("repository", fullName), zap.Int("page", page))
	opts := &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{Page: page, PerPage: g.opts.PerPage},
	}
	prs, _, err := g.restClient.PullRequests.List(ctx, owner, repo, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull requests: %w", err)
	}
	result := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		converted := domain.PullRequest{
			ID:     pr.GetID(),
			Number: pr.GetNumber(),
			Author: pr.GetUser().GetLogin(),
		}
		if pr.MergedAt != nil {
			converted.MergedAt = pr.MergedAt.UTC().Format(time.RFC3339)
		}
		result = append(result, converted)
	}
	return result, nil
}

// ListContributors fetches the logins of the repository's contributors.
// Unless AllContributors is set only the first page is read, so large
// repositories yield a truncated list.
func (g *GitHubGateway) ListContributors(ctx context.Context, fullName string) ([]string, error) {
	owner, repo, err := SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	if !g.opts.AllContributors {
		g.logger.Debug("fetching contributors", zap.String("repository", fullName))
		return g.listContributorsPage(ctx, owner, repo, nil)
	}
	fetch := func(ctx context.Context, page int) ([]string, error) {
		g.logger.Debug("fetching contributors", zap.String("repository", fullName), zap.Int("page", page))
		return g.listContributorsPage(ctx, owner, repo, &github.ListContributorsOptions{
			ListOptions: github.ListOptions{Page: page, PerPage: g.opts.PerPage},
		})
	}
	return pager.Collect(pager.Pages(ctx, fetch, nil))
}

func (g *GitHubGateway) listContributorsPage(ctx context.Context, owner, repo string, opts *github.ListContributorsOptions) ([]string, error) {
	contributors, _, err := g.restClient.Repositories.ListContributors(ctx, owner, repo, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributors: %w", err)
	}
	logins := make([]string, 0, len(contributors))
	for _, c := range contributors {
		logins = append(logins, c.GetLogin())
	}
	return logins, nil
}

// SplitFullName splits an owner/repo name.
func SplitFullName(fullName string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepositoryName, fullName)
	}
	return owner, repo, nil
}
