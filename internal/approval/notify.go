package approval

import (
	"context"
	"log/slog"
)

// slogNotifier logs gate lifecycle events through the ambient structured
// logger (§AMBIENT "Logging") instead of the audit decision sink — an
// approval being requested or resolved is operator-facing observability,
// not a DecisionRecord, and routing it through internal/audit.Sink.Append
// alongside Facade.record's own call would violate §8's "every facade call
// emits exactly one DecisionRecord."
type slogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier builds a Notifier that logs every gate open and
// resolution at Info level. A nil logger falls back to slog.Default().
func NewSlogNotifier(logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogNotifier{logger: logger}
}

func (n *slogNotifier) NotifyApproval(_ context.Context, req Request, res *Resolution) {
	if res == nil {
		n.logger.Info("approval requested", "id", req.ID, "tool", req.Tool, "action", req.Action)
		return
	}
	n.logger.Info("approval resolved", "id", req.ID, "tool", req.Tool, "action", req.Action, "state", res.State.String())
}
