package github

import (
	"context"
	"fmt"

	"github.com/hiveforge/hiveforge/pkg/config"
	"github.com/hiveforge/hiveforge/pkg/events"
)

// issueAPI is the subset of *Client the projection drives, narrowed to
// an interface so tests can substitute a fake.
type issueAPI interface {
	CreateIssue(ctx context.Context, title, body string, labels []string) (map[string]any, error)
	UpdateIssue(ctx context.Context, issueNumber int, title, body string) (map[string]any, error)
	CloseIssue(ctx context.Context, issueNumber int) (map[string]any, error)
	AddComment(ctx context.Context, issueNumber int, body string) (map[string]any, error)
	ApplyLabels(ctx context.Context, issueNumber int, labels []string) ([]any, error)
}

// SyncState tracks what the projection has already synced to GitHub, so
// replaying the same event twice never duplicates an Issue or comment.
type SyncState struct {
	SyncedEventIDs    map[string]struct{}
	RunIssueMap       map[string]int
	LastSyncedEventID string
}

// NewSyncState returns an empty SyncState.
func NewSyncState() *SyncState {
	return &SyncState{
		SyncedEventIDs: make(map[string]struct{}),
		RunIssueMap:    make(map[string]int),
	}
}

// Projection maps core AR events onto GitHub Issues, comments, and
// labels (§4.13). It is idempotent by event id and silently skips events
// it has no mapping for, or that reference a run whose RUN_STARTED was
// never synced.
type Projection struct {
	config    *config.GitHubConfig
	client    issueAPI
	SyncState *SyncState
}

// NewProjection builds a Projection over client, reading owner/repo/label
// settings from cfg. A nil cfg or cfg.Enabled == false makes every Apply
// call a no-op.
func NewProjection(cfg *config.GitHubConfig, client issueAPI) *Projection {
	return &Projection{
		config:    cfg,
		client:    client,
		SyncState: NewSyncState(),
	}
}

// GetIssueNumber returns the Issue number synced for runID, and whether
// one has been synced at all.
func (p *Projection) GetIssueNumber(runID string) (int, bool) {
	n, ok := p.SyncState.RunIssueMap[runID]
	return n, ok
}

// Apply maps a single event onto the GitHub API, returning the audit
// event describing what it did (nil if the call was a no-op: unknown
// event type, disabled config, already-synced id, or missing issue
// mapping).
func (p *Projection) Apply(ctx context.Context, e *events.Event) (*events.Event, error) {
	if p.config == nil || !p.config.Enabled {
		return nil, nil
	}
	if _, seen := p.SyncState.SyncedEventIDs[e.ID]; seen {
		return nil, nil
	}

	result, err := p.dispatch(ctx, e)
	if err != nil {
		return nil, err
	}

	p.SyncState.SyncedEventIDs[e.ID] = struct{}{}
	p.SyncState.LastSyncedEventID = e.ID
	return result, nil
}

// BatchApply applies events in order, continuing past individual
// failures so one bad event can't block the rest of a replay. The last
// successfully-synced event id is left in SyncState regardless of later
// errors.
func (p *Projection) BatchApply(ctx context.Context, batch []*events.Event) []error {
	var errs []error
	for _, e := range batch {
		if _, err := p.Apply(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("event %s: %w", e.ID, err))
		}
	}
	return errs
}

func (p *Projection) dispatch(ctx context.Context, e *events.Event) (*events.Event, error) {
	switch e.Type {
	case events.EventRunStarted:
		return p.onRunStarted(ctx, e)
	case events.EventRunCompleted:
		return p.onRunCompleted(ctx, e)
	case events.EventTaskCompleted:
		return p.onTaskCompleted(ctx, e)
	case events.EventGuardPassed, events.EventGuardConditionalPassed, events.EventGuardFailed:
		return p.onGuardVerdict(ctx, e)
	case events.EventSentinelAlertRaised:
		return p.onSentinelAlert(ctx, e)
	default:
		return nil, nil
	}
}

func (p *Projection) onRunStarted(ctx context.Context, e *events.Event) (*events.Event, error) {
	goal, _ := e.Payload["goal"].(string)
	title := fmt.Sprintf("Run started: %s", e.RunID)
	body := fmt.Sprintf("Goal: %s", goal)

	result, err := p.client.CreateIssue(ctx, title, body, []string{p.label("run")})
	if err != nil {
		return nil, err
	}

	number := issueNumber(result)
	p.SyncState.RunIssueMap[e.RunID] = number
	return events.NewGitHubIssueCreated(e.RunID, "github-projection", number, title), nil
}

func (p *Projection) onRunCompleted(ctx context.Context, e *events.Event) (*events.Event, error) {
	number, ok := p.GetIssueNumber(e.RunID)
	if !ok {
		return nil, nil
	}

	summary, _ := e.Payload["summary"].(string)
	if summary == "" {
		summary = "Run completed."
	}
	if _, err := p.client.AddComment(ctx, number, fmt.Sprintf("Run completed.\n\n%s", summary)); err != nil {
		return nil, err
	}
	if _, err := p.client.CloseIssue(ctx, number); err != nil {
		return nil, err
	}
	return events.NewGitHubIssueClosed(e.RunID, "github-projection", number), nil
}

func (p *Projection) onTaskCompleted(ctx context.Context, e *events.Event) (*events.Event, error) {
	number, ok := p.GetIssueNumber(e.RunID)
	if !ok {
		return nil, nil
	}

	result, _ := e.Payload["result"].(string)
	if result == "" {
		result = fmt.Sprintf("task %s completed", e.TaskID)
	}
	body := fmt.Sprintf("Task `%s` completed: %s", e.TaskID, result)
	comment, err := p.client.AddComment(ctx, number, body)
	if err != nil {
		return nil, err
	}
	return events.NewGitHubCommentAdded(e.RunID, "github-projection", number, commentID(comment)), nil
}

func (p *Projection) onGuardVerdict(ctx context.Context, e *events.Event) (*events.Event, error) {
	number, ok := p.GetIssueNumber(e.RunID)
	if !ok {
		return nil, nil
	}

	verdict, _ := e.Payload["verdict"].(string)
	reason, _ := e.Payload["remand_reason"].(string)
	body := fmt.Sprintf("Guard Bee verdict: **%s**", verdict)
	if reason != "" {
		body += fmt.Sprintf("\n\n%s", reason)
	}
	comment, err := p.client.AddComment(ctx, number, body)
	if err != nil {
		return nil, err
	}

	if e.Type == events.EventGuardFailed {
		if _, err := p.client.ApplyLabels(ctx, number, []string{p.label("guard-failed")}); err != nil {
			return nil, err
		}
	}
	return events.NewGitHubCommentAdded(e.RunID, "github-projection", number, commentID(comment)), nil
}

func (p *Projection) onSentinelAlert(ctx context.Context, e *events.Event) (*events.Event, error) {
	number, ok := p.GetIssueNumber(e.RunID)
	if !ok {
		return nil, nil
	}

	message, _ := e.Payload["message"].(string)
	severity, _ := e.Payload["severity"].(string)
	label := p.label("sentinel")

	if _, err := p.client.ApplyLabels(ctx, number, []string{label}); err != nil {
		return nil, err
	}
	body := fmt.Sprintf("Sentinel Hornet alert (%s): %s", severity, message)
	if _, err := p.client.AddComment(ctx, number, body); err != nil {
		return nil, err
	}
	return events.NewGitHubLabelApplied(e.RunID, "github-projection", number, []string{label}), nil
}

func (p *Projection) label(suffix string) string {
	prefix := p.config.LabelPrefix
	if prefix == "" {
		prefix = "hiveforge:"
	}
	return prefix + suffix
}

func issueNumber(result map[string]any) int {
	switch v := result["number"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func commentID(result map[string]any) int64 {
	switch v := result["id"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
