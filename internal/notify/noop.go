package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded reports. It is used
// when no webhook is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards reports with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendWarmReport logs and discards a report.
func (n *NoOpNotifier) SendWarmReport(_ context.Context, report *WarmReport) error {
	n.log.Debug("warm report discarded (no webhook configured)",
		"failed", len(report.Failed),
		"total", report.Total,
	)
	return nil
}
