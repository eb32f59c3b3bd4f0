package github

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveforge/hiveforge/pkg/config"
	"github.com/hiveforge/hiveforge/pkg/events"
)

type fakeIssueAPI struct {
	createIssueCalls int
	closeIssueCalls  int
	addCommentCalls  int
	applyLabelsCalls int
	lastLabels       []string
	lastCommentBody  string
}

func (f *fakeIssueAPI) CreateIssue(_ context.Context, title, body string, labels []string) (map[string]any, error) {
	f.createIssueCalls++
	return map[string]any{"number": 42, "id": 12345}, nil
}

func (f *fakeIssueAPI) UpdateIssue(_ context.Context, issueNumber int, title, body string) (map[string]any, error) {
	return map[string]any{"number": issueNumber, "state": "open"}, nil
}

func (f *fakeIssueAPI) CloseIssue(_ context.Context, issueNumber int) (map[string]any, error) {
	f.closeIssueCalls++
	return map[string]any{"number": issueNumber, "state": "closed"}, nil
}

func (f *fakeIssueAPI) AddComment(_ context.Context, issueNumber int, body string) (map[string]any, error) {
	f.addCommentCalls++
	f.lastCommentBody = body
	return map[string]any{"id": 999, "body": body}, nil
}

func (f *fakeIssueAPI) ApplyLabels(_ context.Context, issueNumber int, labels []string) ([]any, error) {
	f.applyLabelsCalls++
	f.lastLabels = labels
	return []any{"ok"}, nil
}

func enabledConfig() *config.GitHubConfig {
	return &config.GitHubConfig{Enabled: true, Owner: "test-owner", Repo: "test-repo", LabelPrefix: "hiveforge:"}
}

func TestRunStartedCreatesIssueAndStoresMapping(t *testing.T) {
	api := &fakeIssueAPI{}
	p := NewProjection(enabledConfig(), api)

	e := events.NewRunStarted("01HRUN123", "beekeeper", "Implement feature X")
	_, err := p.Apply(context.Background(), e)
	require.NoError(t, err)

	assert.Equal(t, 1, api.createIssueCalls)
	number, ok := p.GetIssueNumber("01HRUN123")
	assert.True(t, ok)
	assert.Equal(t, 42, number)
}

func TestRunStartedIsIdempotentByEventID(t *testing.T) {
	api := &fakeIssueAPI{}
	p := NewProjection(enabledConfig(), api)

	e := events.NewRunStarted("01HRUN123", "beekeeper", "test")
	_, err := p.Apply(context.Background(), e)
	require.NoError(t, err)
	_, err = p.Apply(context.Background(), e)
	require.NoError(t, err)

	assert.Equal(t, 1, api.createIssueCalls)
}

func TestRunCompletedClosesIssueAndAddsComment(t *testing.T) {
	api := &fakeIssueAPI{}
	p := NewProjection(enabledConfig(), api)

	start := events.NewRunStarted("01HRUN123", "beekeeper", "test")
	_, err := p.Apply(context.Background(), start)
	require.NoError(t, err)

	complete := events.NewRunCompleted("01HRUN123", "beekeeper")
	complete.Payload["summary"] = "All tasks done"
	_, err = p.Apply(context.Background(), complete)
	require.NoError(t, err)

	assert.Equal(t, 1, api.closeIssueCalls)
	assert.Equal(t, 1, api.addCommentCalls)
	assert.Contains(t, api.lastCommentBody, "All tasks done")
}

func TestRunCompletedWithoutIssueIsNoop(t *testing.T) {
	api := &fakeIssueAPI{}
	p := NewProjection(enabledConfig(), api)

	complete := events.NewRunCompleted("01HUNKNOWN", "beekeeper")
	_, err := p.Apply(context.Background(), complete)
	require.NoError(t, err)

	assert.Equal(t, 0, api.closeIssueCalls)
	assert.Equal(t, 0, api.addCommentCalls)
}

func TestGuardFailedAddsCommentAndLabel(t *testing.T) {
	api := &fakeIssueAPI{}
	p := NewProjection(enabledConfig(), api)

	start := events.NewRunStarted("01HRUN123", "beekeeper", "test")
	_, err := p.Apply(context.Background(), start)
	require.NoError(t, err)

	guard := events.NewGuardVerdict(events.EventGuardFailed, "01HRUN123", "COL-001", "", "guard-bee", events.Payload{
		"verdict":       "fail",
		"remand_reason": "Test coverage 45% < 80%",
	})
	_, err = p.Apply(context.Background(), guard)
	require.NoError(t, err)

	assert.Equal(t, 1, api.addCommentCalls)
	assert.Equal(t, 1, api.applyLabelsCalls)
	assert.Contains(t, api.lastCommentBody, "fail")
}

func TestGuardPassedAddsCommentOnly(t *testing.T) {
	api := &fakeIssueAPI{}
	p := NewProjection(enabledConfig(), api)

	start := events.NewRunStarted("01HRUN123", "beekeeper", "test")
	_, err := p.Apply(context.Background(), start)
	require.NoError(t, err)

	guard := events.NewGuardVerdict(events.EventGuardPassed, "01HRUN123", "COL-001", "", "guard-bee", events.Payload{"verdict": "pass"})
	_, err = p.Apply(context.Background(), guard)
	require.NoError(t, err)

	assert.Equal(t, 1, api.addCommentCalls)
	assert.Equal(t, 0, api.applyLabelsCalls)
}

func TestSentinelAlertAppliesLabelAndComment(t *testing.T) {
	api := &fakeIssueAPI{}
	p := NewProjection(enabledConfig(), api)

	start := events.NewRunStarted("01HRUN123", "beekeeper", "test")
	_, err := p.Apply(context.Background(), start)
	require.NoError(t, err)

	alert := events.NewSentinelAlertRaised("01HRUN123", "sentinel-hornet", "anomaly", "critical", "Token limit exceeded", "COL-001")
	_, err = p.Apply(context.Background(), alert)
	require.NoError(t, err)

	assert.Equal(t, 1, api.applyLabelsCalls)
	assert.Contains(t, api.lastLabels[0], "sentinel")
	assert.Equal(t, 1, api.addCommentCalls)
}

func TestTaskCompletedAddsProgressComment(t *testing.T) {
	api := &fakeIssueAPI{}
	p := NewProjection(enabledConfig(), api)

	start := events.NewRunStarted("01HRUN123", "beekeeper", "test")
	_, err := p.Apply(context.Background(), start)
	require.NoError(t, err)

	task := events.NewTaskCompleted("01HRUN123", "TASK-001", "queen-bee")
	task.Payload["result"] = "Implemented login feature"
	_, err = p.Apply(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, 1, api.addCommentCalls)
}

func TestUnsupportedEventTypeIsNoop(t *testing.T) {
	api := &fakeIssueAPI{}
	p := NewProjection(enabledConfig(), api)

	e := events.New(events.EventColonyStarted, "queen-bee", events.Payload{"colony_id": "COL-001"})
	e.RunID = "01HRUN123"
	_, err := p.Apply(context.Background(), e)
	require.NoError(t, err)

	assert.Equal(t, 0, api.createIssueCalls)
	assert.Equal(t, 0, api.addCommentCalls)
	assert.Equal(t, 0, api.applyLabelsCalls)
}

func TestDisabledProjectionIsNoop(t *testing.T) {
	api := &fakeIssueAPI{}
	cfg := &config.GitHubConfig{Enabled: false, Owner: "x", Repo: "y"}
	p := NewProjection(cfg, api)

	e := events.NewRunStarted("01HRUN123", "beekeeper", "test")
	_, err := p.Apply(context.Background(), e)
	require.NoError(t, err)

	assert.Equal(t, 0, api.createIssueCalls)
}

func TestBatchApplyProcessesAllEventsInOrder(t *testing.T) {
	api := &fakeIssueAPI{}
	p := NewProjection(enabledConfig(), api)

	start := events.NewRunStarted("01HRUN123", "beekeeper", "test")
	task := events.NewTaskCompleted("01HRUN123", "TASK-001", "queen-bee")
	complete := events.NewRunCompleted("01HRUN123", "beekeeper")
	complete.Payload["summary"] = "all done"

	errs := p.BatchApply(context.Background(), []*events.Event{start, task, complete})
	assert.Empty(t, errs)

	assert.Equal(t, 1, api.createIssueCalls)
	assert.Equal(t, 1, api.closeIssueCalls)
	assert.GreaterOrEqual(t, api.addCommentCalls, 2)
}

func TestLastSyncedEventIDUpdatedAfterApply(t *testing.T) {
	api := &fakeIssueAPI{}
	p := NewProjection(enabledConfig(), api)

	e := events.NewRunStarted("01HRUN123", "beekeeper", "test")
	_, err := p.Apply(context.Background(), e)
	require.NoError(t, err)

	assert.Equal(t, e.ID, p.SyncState.LastSyncedEventID)
}
