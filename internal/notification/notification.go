package notification

import (
	"context"
	"log/slog"
)

const (
	// KindCommissionCredited indicates a commission landed in a wallet.
	KindCommissionCredited = "commission_credited"
	// KindWithdrawalRequested indicates a payout request was opened.
	KindWithdrawalRequested = "withdrawal_requested"
	// KindWithdrawalReviewed indicates a payout request was approved or rejected.
	KindWithdrawalReviewed = "withdrawal_reviewed"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems. Delivery happens
// after the balance change has committed and never gates its correctness.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
