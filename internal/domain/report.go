package domain

import (
	"sort"

	"github.com/montanaflynn/stats"
)

// Stage names used when recording a failure.
const (
	StageDiscovery    = "discovery"
	StageCollection   = "collection"
	StageContributors = "contributors"
)

// Failure records a fetch that degraded the report.
type Failure struct {
	Stage      string `json:"stage"`
	Repository string `json:"repository,omitempty"`
	Message    string `json:"message"`
}

// Report accumulates merged pull request activity across all repositories of a run.
type Report struct {
	Topic    string
	Window   DateWindow
	TotalPRs int
	Failures []Failure

	distinct     map[string]struct{}
	newcomers    map[string]struct{}
	repositories []string
	perRepo      map[string]int
}

// NewReport creates an empty report for topic and window.
func NewReport(topic string, window DateWindow) *Report {
	return &Report{
		Topic:     topic,
		Window:    window,
		distinct:  make(map[string]struct{}),
		newcomers: make(map[string]struct{}),
		perRepo:   make(map[string]int),
	}
}

// AddRepository registers a repository so it shows up in the summary even
// when it has no qualifying pull requests.
func (r *Report) AddRepository(fullName string) {
	if _, ok := r.perRepo[fullName]; ok {
		return
	}
	r.perRepo[fullName] = 0
	r.repositories = append(r.repositories, fullName)
}

// Record folds one qualifying pull request into the report. When known is
// false the contributor list could not be fetched and the author is not
// classified.
func (r *Report) Record(repo string, pr PullRequest, contributors []string, known bool) {
	r.AddRepository(repo)
	r.TotalPRs++
	r.perRepo[repo]++
	r.distinct[pr.Author] = struct{}{}
	if known && IsNewContributor(pr.Author, contributors) {
		r.newcomers[pr.Author] = struct{}{}
	}
}

// Fail records a degraded fetch.
func (r *Report) Fail(stage, repo string, err error) {
	r.Failures = append(r.Failures, Failure{Stage: stage, Repository: repo, Message: err.Error()})
}

// Partial reports whether any fetch failed during the run.
func (r *Report) Partial() bool {
	return len(r.Failures) > 0
}

// DistinctContributors returns the sorted logins of every PR author.
func (r *Report) DistinctContributors() []string {
	return sortedKeys(r.distinct)
}

// NewContributors returns the sorted logins classified as new.
func (r *Report) NewContributors() []string {
	return sortedKeys(r.newcomers)
}

// RepoStats holds the merged PR count of a single repository.
type RepoStats struct {
	Name      string `json:"name"`
	MergedPRs int    `json:"merged_prs"`
}

// PerRepoSummary describes how merged PRs spread across repositories.
type PerRepoSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// Summary is the report flattened for output.
type Summary struct {
	Topic                string         `json:"topic"`
	From                 string         `json:"from"`
	To                   string         `json:"to"`
	TotalPRs             int            `json:"total_merged_prs"`
	DistinctContributors []string       `json:"distinct_contributors"`
	NewContributors      []string       `json:"new_contributors"`
	Repositories         []RepoStats    `json:"repositories"`
	PerRepo              PerRepoSummary `json:"per_repository"`
	Partial              bool           `json:"partial"`
	Failures             []Failure      `json:"failures,omitempty"`
}

// Summary flattens the report. Repositories keep discovery order.
func (r *Report) Summary() Summary {
	s := Summary{
		Topic:                r.Topic,
		From:                 r.Window.From,
		To:                   r.Window.To,
		TotalPRs:             r.TotalPRs,
		DistinctContributors: r.DistinctContributors(),
		NewContributors:      r.NewContributors(),
		Repositories:         make([]RepoStats, 0, len(r.repositories)),
		Partial:              r.Partial(),
		Failures:             r.Failures,
	}
	counts := make(stats.Float64Data, 0, len(r.repositories))
	for _, name := range r.repositories {
		s.Repositories = append(s.Repositories, RepoStats{Name: name, MergedPRs: r.perRepo[name]})
		counts = append(counts, float64(r.perRepo[name]))
	}
	// stats returns errors only for empty input, where the zero summary is right.
	if len(counts) > 0 {
		s.PerRepo.Mean, _ = counts.Mean()
		s.PerRepo.Median, _ = counts.Median()
		s.PerRepo.Max, _ = counts.Max()
	}
	return s
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
