// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional YAML file. It provides type-safe
// access to the settings needed by the server, the reminder scheduler and the
// mail sender while keeping configuration details out of business logic.
package config
