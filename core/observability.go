package core

import (
	"context"
	"sort"
	"strings"
	"time"
)

// observeRun logs the outcome of one store invocation.
func observeRun(ctx context.Context, logger Logger, entry RunEntry, err error) {
	if logger == nil {
		return
	}
	fields := map[string]any{
		"platform":    entry.Platform,
		"operation":   entry.Operation,
		"target":      entry.Target,
		"version":     entry.Version,
		"status":      string(entry.Status),
		"step":        string(entry.Step),
		"duration_ms": entry.DurationMS,
	}
	if strings.TrimSpace(entry.Locale) != "" {
		fields["locale"] = entry.Locale
	}
	if err != nil {
		fields["error"] = err.Error()
		fields["error_code"] = entry.ErrorCode
		logWithLevel(ctx, logger, "error", entry.Operation+" failed", fields)
		return
	}
	logWithLevel(ctx, logger, "info", entry.Operation+" succeeded", fields)
}

// LogStep writes a debug line for an orchestration step.
func LogStep(ctx context.Context, logger Logger, step string, fields map[string]any) {
	logWithLevel(ctx, logger, "debug", step, fields)
}

func logWithLevel(ctx context.Context, logger Logger, level string, message string, fields map[string]any) {
	if logger == nil {
		return
	}
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	args := flattenFields(RedactFields(fields))
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	case "debug":
		logger.Debug(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func elapsedMillis(now func() time.Time, startedAt time.Time) int64 {
	return now().Sub(startedAt).Milliseconds()
}
