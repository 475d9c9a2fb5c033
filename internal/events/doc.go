// Package events carries the outcome of every reminder decision to
// interested handlers without coupling the notification service to them.
//
// The primary components are:
// - ReminderEvent: what happened to one task in one scan
// - EventHandler / EventEmitter: the fan-out contract
// - InMemoryEventEmitter: synchronous dispatch to registered handlers
// - NATSHandler: publishes events as JSON to a NATS subject
package events
