// Package domain contains the core data structures and domain logic for the application.
package domain

import "slices"

// Repository is an organization repository as returned by the listing endpoint.
type Repository struct {
	FullName string
	Topics   []string
}

// HasTopic reports whether topic is one of the repository's labels.
func (r Repository) HasTopic(topic string) bool {
	return slices.Contains(r.Topics, topic)
}

// PullRequest holds the fields of a pull request the report consumes.
// MergedAt is the API timestamp in UTC (RFC 3339) and empty when the pull
// request was closed without being merged.
type PullRequest struct {
	ID       int64
	Number   int
	Author   string
	MergedAt string
}

// Merged reports whether the pull request carries a merge timestamp.
func (p PullRequest) Merged() bool {
	return p.MergedAt != ""
}

// DateWindow is an inclusive range of YYYY-MM-DD dates.
type DateWindow struct {
	From string
	To   string
}

// Contains reports whether the date prefix of timestamp falls inside the window.
// Comparison is lexicographic on fixed-width ISO dates; no timezone conversion happens.
func (w DateWindow) Contains(timestamp string) bool {
	if len(timestamp) < 10 {
		return false
	}
	day := timestamp[:10]
	return w.From <= day && day <= w.To
}

// FilterByTopic returns the repositories labelled with topic, preserving order.
func FilterByTopic(repos []Repository, topic string) []Repository {
	var matched []Repository
	for _, repo := range repos {
		if repo.HasTopic(topic) {
			matched = append(matched, repo)
		}
	}
	return matched
}

// FilterMerged returns the pull requests merged inside window, preserving order.
func FilterMerged(prs []PullRequest, window DateWindow) []PullRequest {
	var merged []PullRequest
	for _, pr := range prs {
		if pr.Merged() && window.Contains(pr.MergedAt) {
			merged = append(merged, pr)
		}
	}
	return merged
}

// IsNewContributor reports whether login is absent from contributors.
func IsNewContributor(login string, contributors []string) bool {
	return !slices.Contains(contributors, login)
}
