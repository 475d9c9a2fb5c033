// Package scheduler drives the reminder engine on a timer.
//
// A Scheduler runs the reminder scan every ScanInterval and the daily digest
// on a cron expression, both on a single robfig/cron runner. At most one
// scan runs at a time: a tick that finds a scan in flight is dropped, and a
// manual trigger gets ErrScanInProgress.
package scheduler
