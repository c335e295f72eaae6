// Package metrics exposes runtime counters via expvar.
package metrics

import "expvar"

var names []string

func newInt(name string) *expvar.Int {
	names = append(names, name)
	return expvar.NewInt(name)
}

var (
	NotificationsReceived = newInt("notifications_received")
	NotificationsSkipped  = newInt("notifications_skipped")
	CleanupsScheduled     = newInt("cleanups_scheduled")
	CleanupsCompleted     = newInt("cleanups_completed")
	CleanupsAborted       = newInt("cleanups_aborted")
	GroupsAbsent          = newInt("groups_absent")
	ExternalCallFailures  = newInt("external_call_failures")
	AlertsDispatched      = newInt("alerts_dispatched")
	AlertsFailed          = newInt("alerts_failed")
)

// Snapshot returns the current value of every counter, keyed by its expvar
// name. Values are cumulative for the life of the process.
func Snapshot() map[string]int64 {
	out := make(map[string]int64, len(names))
	for _, name := range names {
		if v, ok := expvar.Get(name).(*expvar.Int); ok {
			out[name] = v.Value()
		}
	}
	return out
}
