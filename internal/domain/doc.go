// Package domain contains the core business entities of the task manager:
// tasks, their owners and the reminder tiers and windows the notification
// engine evaluates. It is independent of storage and delivery mechanisms.
package domain
