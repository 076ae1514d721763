package importer

import "github.com/MrMartinM/webcon-import/pkg/logger"

// Observer receives a notification after every processed row and exposes
// the cooperative cancellation flag. Implementations are called
// synchronously from the row loop; the driver polls IsCancelled at fixed
// points and stops cleanly when it returns true.
type Observer interface {
	OnProgress(processed, total int, rowLabel string, success, errors, skipped int)
	IsCancelled() bool
}

// NopObserver ignores progress and never cancels
type NopObserver struct{}

func (NopObserver) OnProgress(processed, total int, rowLabel string, success, errors, skipped int) {}

func (NopObserver) IsCancelled() bool { return false }

// LogObserver reports progress through the logger
type LogObserver struct {
	Log *logger.Logger
}

func (o LogObserver) OnProgress(processed, total int, rowLabel string, success, errors, skipped int) {
	o.Log.Infof("Progress %d/%d (row %s): %d succeeded, %d failed, %d skipped",
		processed, total, rowLabel, success, errors, skipped)
}

func (o LogObserver) IsCancelled() bool { return false }
