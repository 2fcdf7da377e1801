// Package logger builds configured slog.Logger instances: JSON output for
// production aggregation, text for development, with static service
// attributes applied to every record.
package logger
