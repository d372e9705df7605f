package logging

import (
	"github.com/charmbracelet/log"
)

// shortIDLength matches the 12-character short form used for worker and
// store ids in INFO-level output.
const shortIDLength = 12

// FormatID returns the full id when debug logging is enabled and a 12
// character prefix otherwise.
//
// Usage: logging.Info("Inserted switch %s as %s", name, logging.FormatID(storeID))
func FormatID(id string) string {
	if stderrLogger.GetLevel() <= log.DebugLevel {
		return id
	}
	return truncateID(id)
}

// FormatStoreID formats a document store identity for logging.
func FormatStoreID(storeID string) string {
	return FormatID(storeID)
}

// FormatWorkerID formats an intent processor id for logging.
func FormatWorkerID(workerID string) string {
	return FormatID(workerID)
}

func truncateID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}
