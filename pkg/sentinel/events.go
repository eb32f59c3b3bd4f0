package sentinel

import "github.com/hiveforge/hiveforge/pkg/events"

// ToAlertEvent converts a into a sentinel.alert_raised event.
func ToAlertEvent(a Alert, runID, actor string) *events.Event {
	return events.NewSentinelAlertRaised(runID, actor, a.AlertType, string(a.Severity), a.Message, a.ColonyID)
}

// ToSuspensionEvent converts a critical alert into a colony.suspended
// event: the caller decides which alerts warrant suspension (the Hornet
// itself never mutates colony state).
func ToSuspensionEvent(a Alert, hiveID, actor string) *events.Event {
	return events.NewColonySuspended(hiveID, a.ColonyID, actor, a.Message)
}

// ToReportEvent summarizes alerts, counted by alert type, into a
// sentinel.report event on runID.
func ToReportEvent(alerts []Alert, runID, actor string) *events.Event {
	return events.NewSentinelReport(runID, actor, AlertCounts(alerts))
}
