package events

// This file supplies small, fixed-shape constructors per event family,
// validating payload shape at construction time rather than only at
// canonicalization time (the original Python event registry does this
// per-event-type; see SUPPLEMENTED FEATURES).

// NewRunStarted builds a run.started event. Payload: {goal}.
func NewRunStarted(runID, actor, goal string) *Event {
	e := New(EventRunStarted, actor, Payload{"goal": goal})
	e.RunID = runID
	return e
}

// NewRunCompleted builds a run.completed event.
func NewRunCompleted(runID, actor string) *Event {
	e := New(EventRunCompleted, actor, Payload{})
	e.RunID = runID
	return e
}

// NewRunFailed builds a run.failed event. Payload: {reason}.
func NewRunFailed(runID, actor, reason string) *Event {
	e := New(EventRunFailed, actor, Payload{"reason": reason})
	e.RunID = runID
	return e
}

// NewRunAborted builds a run.aborted event. Payload: {reason}.
func NewRunAborted(runID, actor, reason string) *Event {
	e := New(EventRunAborted, actor, Payload{"reason": reason})
	e.RunID = runID
	return e
}

// NewTaskCreated builds a task.created event. Payload: {title, colony_id?}.
func NewTaskCreated(runID, taskID, actor, title, colonyID string) *Event {
	e := New(EventTaskCreated, actor, Payload{"title": title, "colony_id": colonyID})
	e.RunID = runID
	e.TaskID = taskID
	e.ColonyID = colonyID
	return e
}

// NewTaskAssigned builds a task.assigned event. Payload: {assignee}.
func NewTaskAssigned(runID, taskID, actor, assignee string) *Event {
	e := New(EventTaskAssigned, actor, Payload{"assignee": assignee})
	e.RunID = runID
	e.TaskID = taskID
	e.WorkerID = assignee
	return e
}

// NewTaskProgressed builds a task.progressed event. Payload: {progress}.
func NewTaskProgressed(runID, taskID, actor string, progress int) *Event {
	e := New(EventTaskProgressed, actor, Payload{"progress": progress})
	e.RunID = runID
	e.TaskID = taskID
	return e
}

// NewTaskCompleted builds a task.completed event.
func NewTaskCompleted(runID, taskID, actor string) *Event {
	e := New(EventTaskCompleted, actor, Payload{})
	e.RunID = runID
	e.TaskID = taskID
	return e
}

// NewTaskFailed builds a task.failed event. Payload: {error_message}.
func NewTaskFailed(runID, taskID, actor, errMsg string) *Event {
	e := New(EventTaskFailed, actor, Payload{"error_message": errMsg})
	e.RunID = runID
	e.TaskID = taskID
	return e
}

// NewTaskBlocked builds a task.blocked event. Payload: {reason}.
func NewTaskBlocked(runID, taskID, actor, reason string) *Event {
	e := New(EventTaskBlocked, actor, Payload{"reason": reason})
	e.RunID = runID
	e.TaskID = taskID
	return e
}

// NewTaskUnblocked builds a task.unblocked event.
func NewTaskUnblocked(runID, taskID, actor string) *Event {
	e := New(EventTaskUnblocked, actor, Payload{})
	e.RunID = runID
	e.TaskID = taskID
	return e
}

// NewRequirementCreated builds a requirement.created event. Payload: {description}.
func NewRequirementCreated(runID, reqID, actor, description string) *Event {
	e := New(EventRequirementCreated, actor, Payload{"description": description})
	e.RunID = runID
	e.Payload["requirement_id"] = reqID
	return e
}

// NewRequirementApproved builds a requirement.approved event. Payload: {decided_by}.
func NewRequirementApproved(runID, reqID, actor, decidedBy string) *Event {
	e := New(EventRequirementApproved, actor, Payload{"requirement_id": reqID, "decided_by": decidedBy})
	e.RunID = runID
	return e
}

// NewRequirementRejected builds a requirement.rejected event. Payload: {decided_by}.
func NewRequirementRejected(runID, reqID, actor, decidedBy string) *Event {
	e := New(EventRequirementRejected, actor, Payload{"requirement_id": reqID, "decided_by": decidedBy})
	e.RunID = runID
	return e
}

// NewHiveCreated builds a hive.created event. Payload: {name}.
func NewHiveCreated(hiveID, actor, name string) *Event {
	e := New(EventHiveCreated, actor, Payload{"name": name})
	e.HiveID = hiveID
	return e
}

// NewHiveClosed builds a hive.closed event.
func NewHiveClosed(hiveID, actor string) *Event {
	e := New(EventHiveClosed, actor, Payload{})
	e.HiveID = hiveID
	return e
}

// NewColonyCreated builds a colony.created event. Payload: {goal, metadata?}.
func NewColonyCreated(hiveID, colonyID, actor, goal string) *Event {
	e := New(EventColonyCreated, actor, Payload{"goal": goal})
	e.HiveID = hiveID
	e.ColonyID = colonyID
	return e
}

// NewColonyStarted builds a colony.started event.
func NewColonyStarted(hiveID, colonyID, actor string) *Event {
	e := New(EventColonyStarted, actor, Payload{})
	e.HiveID = hiveID
	e.ColonyID = colonyID
	return e
}

// NewColonySuspended builds a colony.suspended event. Payload: {reason}.
func NewColonySuspended(hiveID, colonyID, actor, reason string) *Event {
	e := New(EventColonySuspended, actor, Payload{"reason": reason})
	e.HiveID = hiveID
	e.ColonyID = colonyID
	return e
}

// NewColonyCompleted builds a colony.completed event.
func NewColonyCompleted(hiveID, colonyID, actor string) *Event {
	e := New(EventColonyCompleted, actor, Payload{})
	e.HiveID = hiveID
	e.ColonyID = colonyID
	return e
}

// NewColonyFailed builds a colony.failed event. Payload: {reason}.
func NewColonyFailed(hiveID, colonyID, actor, reason string) *Event {
	e := New(EventColonyFailed, actor, Payload{"reason": reason})
	e.HiveID = hiveID
	e.ColonyID = colonyID
	return e
}

// NewWorkerAssigned builds a worker.assigned event. Payload: {task_id, run_id}.
func NewWorkerAssigned(workerID, actor, taskID, runID string) *Event {
	e := New(EventWorkerAssigned, actor, Payload{"task_id": taskID, "run_id": runID})
	e.WorkerID = workerID
	e.TaskID = taskID
	e.RunID = runID
	return e
}

// NewWorkerStarted builds a worker.started event. Payload: {tool_name, confirmed?}.
func NewWorkerStarted(workerID, actor, toolName string, confirmed bool) *Event {
	e := New(EventWorkerStarted, actor, Payload{"tool_name": toolName, "confirmed": confirmed})
	e.WorkerID = workerID
	return e
}

// NewWorkerCompleted builds a worker.completed event.
func NewWorkerCompleted(workerID, actor string) *Event {
	e := New(EventWorkerCompleted, actor, Payload{})
	e.WorkerID = workerID
	return e
}

// NewWorkerFailed builds a worker.failed event. Payload: {error_message}.
func NewWorkerFailed(workerID, actor, errMsg string) *Event {
	e := New(EventWorkerFailed, actor, Payload{"error_message": errMsg})
	e.WorkerID = workerID
	return e
}

// NewLLMResponse builds an llm.response event. Payload: {cost, tokens_used}.
func NewLLMResponse(runID, actor string, cost float64, tokensUsed int) *Event {
	e := New(EventLLMResponse, actor, Payload{"cost": cost, "tokens_used": tokensUsed})
	e.RunID = runID
	return e
}

// NewSentinelAlertRaised builds a sentinel.alert_raised event. Payload:
// {alert_type, severity, message, colony_id}.
func NewSentinelAlertRaised(runID, actor, alertType, severity, message, colonyID string) *Event {
	e := New(EventSentinelAlertRaised, actor, Payload{
		"alert_type": alertType,
		"severity":   severity,
		"message":    message,
		"colony_id":  colonyID,
	})
	e.RunID = runID
	e.ColonyID = colonyID
	return e
}

// NewSentinelReport builds a sentinel.report event. Payload: {alert_counts}.
func NewSentinelReport(runID, actor string, alertCounts map[string]int) *Event {
	counts := make(map[string]any, len(alertCounts))
	for k, v := range alertCounts {
		counts[k] = v
	}
	e := New(EventSentinelReport, actor, Payload{"alert_counts": counts})
	e.RunID = runID
	return e
}

// NewGuardVerificationRequested builds a guard.verification_requested event.
func NewGuardVerificationRequested(runID, colonyID, taskID, actor string) *Event {
	e := New(EventGuardVerificationRequested, actor, Payload{})
	e.RunID = runID
	e.ColonyID = colonyID
	e.TaskID = taskID
	return e
}

// NewGuardVerdict builds the verdict event matching typ (one of
// EventGuardPassed, EventGuardConditionalPassed, EventGuardFailed).
func NewGuardVerdict(typ EventType, runID, colonyID, taskID, actor string, payload Payload) *Event {
	e := New(typ, actor, payload)
	e.RunID = runID
	e.ColonyID = colonyID
	e.TaskID = taskID
	return e
}

// NewSystemSilenceDetected builds a system.silence_detected event.
func NewSystemSilenceDetected(runID, actor string, secondsSinceActivity float64) *Event {
	e := New(EventSystemSilenceDetected, actor, Payload{"seconds_since_activity": secondsSinceActivity})
	e.RunID = runID
	return e
}

// NewSystemEmergencyStop builds a system.emergency_stop event.
func NewSystemEmergencyStop(runID, actor, reason string) *Event {
	e := New(EventSystemEmergencyStop, actor, Payload{"reason": reason})
	e.RunID = runID
	return e
}

// NewConflictDetected builds a conflict.detected event.
func NewConflictDetected(actor, resourceID, conflictType, severity string, colonyIDs []string) *Event {
	e := New(EventConflictDetected, actor, Payload{
		"resource_id":   resourceID,
		"conflict_type": conflictType,
		"severity":      severity,
		"colony_ids":    StringSet(colonyIDs),
	})
	return e
}

// NewConflictResolved builds a conflict.resolved event.
func NewConflictResolved(actor, resourceID, status, strategy string) *Event {
	return New(EventConflictResolved, actor, Payload{
		"resource_id": resourceID,
		"status":      status,
		"strategy":    strategy,
	})
}

// NewConferenceStarted builds a conference.started event.
func NewConferenceStarted(hiveID, conferenceID, actor, topic string, participants []string) *Event {
	e := New(EventConferenceStarted, actor, Payload{
		"conference_id": conferenceID,
		"topic":         topic,
		"participants":  StringSet(participants),
	})
	e.HiveID = hiveID
	return e
}

// NewConferenceEnded builds a conference.ended event.
func NewConferenceEnded(hiveID, conferenceID, actor, summary string) *Event {
	e := New(EventConferenceEnded, actor, Payload{
		"conference_id": conferenceID,
		"summary":       summary,
	})
	e.HiveID = hiveID
	return e
}

// NewDecisionRecorded builds a decision.recorded event.
func NewDecisionRecorded(hiveID, conferenceID, actor, decision string) *Event {
	e := New(EventDecisionRecorded, actor, Payload{
		"conference_id": conferenceID,
		"decision":      decision,
	})
	e.HiveID = hiveID
	return e
}

// NewGitHubIssueCreated builds a github.issue_created event. Payload:
// {issue_number, title}.
func NewGitHubIssueCreated(runID, actor string, issueNumber int, title string) *Event {
	e := New(EventGitHubIssueCreated, actor, Payload{
		"issue_number": issueNumber,
		"title":        title,
	})
	e.RunID = runID
	return e
}

// NewGitHubIssueUpdated builds a github.issue_updated event.
func NewGitHubIssueUpdated(runID, actor string, issueNumber int) *Event {
	e := New(EventGitHubIssueUpdated, actor, Payload{"issue_number": issueNumber})
	e.RunID = runID
	return e
}

// NewGitHubIssueClosed builds a github.issue_closed event.
func NewGitHubIssueClosed(runID, actor string, issueNumber int) *Event {
	e := New(EventGitHubIssueClosed, actor, Payload{"issue_number": issueNumber})
	e.RunID = runID
	return e
}

// NewGitHubCommentAdded builds a github.comment_added event. Payload:
// {issue_number, comment_id}.
func NewGitHubCommentAdded(runID, actor string, issueNumber int, commentID int64) *Event {
	e := New(EventGitHubCommentAdded, actor, Payload{
		"issue_number": issueNumber,
		"comment_id":   commentID,
	})
	e.RunID = runID
	return e
}

// NewGitHubLabelApplied builds a github.label_applied event. Payload:
// {issue_number, labels}.
func NewGitHubLabelApplied(runID, actor string, issueNumber int, labels []string) *Event {
	e := New(EventGitHubLabelApplied, actor, Payload{
		"issue_number": issueNumber,
		"labels":       StringSet(labels),
	})
	e.RunID = runID
	return e
}

// NewGitHubProjectSynced builds a github.project_synced event.
func NewGitHubProjectSynced(runID, actor string, issueNumber int) *Event {
	e := New(EventGitHubProjectSynced, actor, Payload{"issue_number": issueNumber})
	e.RunID = runID
	return e
}

// NewScoutRecommended builds a scout.recommended event carrying an
// OptimizationProposal. Payload: {template, success_rate, avg_duration,
// reason, similar_count}.
func NewScoutRecommended(runID, actor, template string, successRate, avgDuration float64, reason string, similarCount int) *Event {
	e := New(EventScoutRecommended, actor, Payload{
		"template":      template,
		"success_rate":  successRate,
		"avg_duration":  avgDuration,
		"reason":        reason,
		"similar_count": similarCount,
	})
	e.RunID = runID
	return e
}
