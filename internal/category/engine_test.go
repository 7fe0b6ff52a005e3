package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackme/internal/activity"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("09:00", "17:00")
	require.NoError(t, err)
	return e
}

func TestCategorizeByApp(t *testing.T) {
	e := newTestEngine(t)

	snap := activity.Snapshot{AppName: "Visual Studio Code", TimeOfDay: 10.0}
	cat := e.Categorize(snap)
	assert.Equal(t, "Development", cat)
	assert.Equal(t, 95, e.Score(snap, cat))
}

func TestCategorizeByURLBeforeApp(t *testing.T) {
	e := newTestEngine(t)

	// Browser app would give "Browsing"; the URL refines it.
	snap := activity.Snapshot{
		AppName:   "Firefox",
		URL:       "https://stackoverflow.com/questions/1",
		TimeOfDay: 10.0,
	}
	assert.Equal(t, "Development", e.Categorize(snap))
}

func TestCategorizeByTitleHeuristics(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		title string
		want  string
	}{
		{"acme/widget: pull requests - github", "Development"},
		{"Weekly sync meeting", "Meeting"},
		{"New message from Bob", "Communication"},
	}
	for _, tc := range cases {
		snap := activity.Snapshot{AppName: "SomeUnknownApp", Title: tc.title}
		assert.Equal(t, tc.want, e.Categorize(snap), "title %q", tc.title)
	}
}

func TestCategorizeDefault(t *testing.T) {
	e := newTestEngine(t)
	snap := activity.Snapshot{AppName: "Mystery", Title: "hello"}
	assert.Equal(t, "Uncategorized", e.Categorize(snap))
}

func TestScoreAppRuleWinsOverURLRule(t *testing.T) {
	e := newTestEngine(t)

	// URL rule says 20 (youtube), app rule says 95 (VS Code). The app
	// rule is evaluated after and overrides.
	snap := activity.Snapshot{
		AppName:   "Visual Studio Code",
		URL:       "https://youtube.com/watch?v=x",
		TimeOfDay: 10.0,
	}
	assert.Equal(t, 95, e.Score(snap, "Development"))
}

func TestScoreOffHoursCommunicationPenalty(t *testing.T) {
	e := newTestEngine(t)

	snap := activity.Snapshot{AppName: "Slack", TimeOfDay: 22.0}
	cat := e.Categorize(snap)
	require.Equal(t, "Communication", cat)
	assert.Equal(t, 40, e.Score(snap, cat)) // 70 - 30
}

func TestScoreWorkHoursEntertainmentPenalty(t *testing.T) {
	e := newTestEngine(t)

	snap := activity.Snapshot{AppName: "Spotify", TimeOfDay: 10.0}
	cat := e.Categorize(snap)
	require.Equal(t, "Entertainment", cat)
	assert.Equal(t, 10, e.Score(snap, cat)) // 20 - 10
}

func TestScoreFloorsAtZero(t *testing.T) {
	e := newTestEngine(t)

	snap := activity.Snapshot{AppName: "Instagram", TimeOfDay: 23.0}
	cat := e.Categorize(snap)
	require.Equal(t, "Social Media", cat)
	assert.Equal(t, 0, e.Score(snap, cat)) // 15 - 30, floored
}

func TestScoreDefaultWithoutMatch(t *testing.T) {
	e := newTestEngine(t)
	snap := activity.Snapshot{AppName: "Mystery", TimeOfDay: 10.0}
	assert.Equal(t, 50, e.Score(snap, "Uncategorized"))
}

func TestDetectProjectFromEditorTitle(t *testing.T) {
	e := newTestEngine(t)

	snap := activity.Snapshot{Title: "widget - Visual Studio Code"}
	assert.Equal(t, "widget", e.DetectProject(snap))

	// Source extension is stripped from the cleaned name.
	snap = activity.Snapshot{Title: "tracker.go - VSCode"}
	assert.Equal(t, "tracker", e.DetectProject(snap))
}

func TestDetectProjectFromTicketID(t *testing.T) {
	e := newTestEngine(t)
	snap := activity.Snapshot{Title: "PROJ-123: fix flaky sync"}
	assert.Equal(t, "PROJ-123", e.DetectProject(snap))
}

func TestDetectProjectFromPath(t *testing.T) {
	e := newTestEngine(t)
	snap := activity.Snapshot{Title: "~/code/myproject/src/main.go"}
	assert.Equal(t, "myproject", e.DetectProject(snap))
}

func TestDetectProjectFromRepoURL(t *testing.T) {
	e := newTestEngine(t)
	snap := activity.Snapshot{URL: "https://github.com/acme/widget/pull/3"}
	assert.Equal(t, "widget", e.DetectProject(snap))
}

func TestDetectProjectNoMatch(t *testing.T) {
	e := newTestEngine(t)
	snap := activity.Snapshot{Title: "Downloads"}
	assert.Equal(t, "", e.DetectProject(snap))
}

func TestAddRuleLearned(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.AddRule("^MyTool$", "Development", 88))
	snap := activity.Snapshot{AppName: "MyTool", TimeOfDay: 10.0}
	assert.Equal(t, "Development", e.Categorize(snap))
	assert.Equal(t, 88, e.Score(snap, "Development"))
}

func TestAddRuleStaysBelowBuiltins(t *testing.T) {
	e := newTestEngine(t)

	// A learned rule for Slack cannot shadow the built-in: first match
	// in order wins and learned rules are appended at the tail.
	require.NoError(t, e.AddRule("^Slack$", "Gaming", 5))
	snap := activity.Snapshot{AppName: "Slack", TimeOfDay: 10.0}
	assert.Equal(t, "Communication", e.Categorize(snap))
}

func TestAddRuleRejectsBadPattern(t *testing.T) {
	e := newTestEngine(t)
	assert.Error(t, e.AddRule("([", "Development", 50))
}

func TestNewEngineRejectsBadWorkHours(t *testing.T) {
	_, err := NewEngine("9am", "17:00")
	assert.Error(t, err)
	_, err = NewEngine("09:00", "25:00")
	assert.Error(t, err)
}
