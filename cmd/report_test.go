package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/topic-pr-report/internal/config"
	"github.com/naka-gawa/topic-pr-report/internal/domain"
)

func sampleSummary() domain.Summary {
	report := domain.NewReport("hacktoberfest", domain.DateWindow{From: "2024-10-01", To: "2024-10-31"})
	report.Record("EnAccess/a", domain.PullRequest{Author: "bob"}, []string{"alice"}, true)
	report.Record("EnAccess/a", domain.PullRequest{Author: "alice"}, []string{"alice"}, true)
	report.Record("EnAccess/b", domain.PullRequest{Author: "alice"}, []string{"alice"}, true)
	return report.Summary()
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeText(&buf, sampleSummary()))

	expected := "Total Merged PRs in hacktoberfest Repos: 3\n" +
		"Distinct Contributors: 2\n" +
		"New Contributors: 1\n" +
		"\nList of Distinct Contributors: [alice bob]\n" +
		"\nList of New Contributors: [bob]\n" +
		"\nMerged PRs per Repository (2 repos): mean 1.50, median 1.50, max 2\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, sampleSummary()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "hacktoberfest", decoded["topic"])
	assert.EqualValues(t, 3, decoded["total_merged_prs"])
	assert.Equal(t, []any{"bob"}, decoded["new_contributors"])
	assert.Equal(t, false, decoded["partial"])
	assert.NotContains(t, decoded, "failures")
}

func TestReportFlagsOverrideDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	v := viper.New()
	cmd := newReportCmd(v)
	require.NoError(t, cmd.Flags().Set("org", "acme"))
	require.NoError(t, cmd.Flags().Set("from", "2025-10-01"))
	require.NoError(t, cmd.Flags().Set("all-contributors", "true"))

	cfg, err := config.LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.Org)
	assert.Equal(t, "hacktoberfest", cfg.Topic)
	assert.Equal(t, "2025-10-01", cfg.From)
	assert.Equal(t, "2024-10-31", cfg.To)
	assert.True(t, cfg.AllContributors)
}
