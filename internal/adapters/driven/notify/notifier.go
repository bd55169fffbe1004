// Package notify surfaces status events to the user. The CLI build
// writes them to the verbose log; the desktop shell swaps in its own
// implementation.
package notify

import (
	"encoding/json"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
	"github.com/launchdeck-labs/launchdeck-cli/internal/logger"
)

// Ensure LogNotifier implements the interface.
var _ driven.Notifier = (*LogNotifier)(nil)

// LogNotifier writes events to the verbose log.
type LogNotifier struct{}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Send logs the event. Never blocks.
func (n *LogNotifier) Send(event string, payload any) {
	if payload == nil {
		logger.Info("Event: %s", event)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Info("Event: %s", event)
		return
	}
	logger.Info("Event: %s %s", event, data)
}
