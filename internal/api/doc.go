// Package api serves the operational HTTP surface of the reminder engine:
// health, manual scans and per-task reminders. Handlers translate HTTP
// concerns to service calls and map service errors to status codes in one
// place (MapErrorToStatusCode) so internal errors never reach clients.
package api
