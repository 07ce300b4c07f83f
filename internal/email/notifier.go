package email

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GangaMannan/CustomsClearnace/internal/clearance"
)

// InspectionNotifier emails the inspection desk whenever a submission is
// routed to the red channel. Delivery is best effort; a failed send is
// logged and never blocks the submission.
type InspectionNotifier struct {
	sender Sender
	to     string
	logger *zap.Logger
}

// NewInspectionNotifier creates an InspectionNotifier that delivers to
// the given inspection-desk address.
func NewInspectionNotifier(sender Sender, to string, logger *zap.Logger) *InspectionNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InspectionNotifier{sender: sender, to: to, logger: logger}
}

// NotifyRedChannel implements clearance.Notifier.
func (n *InspectionNotifier) NotifyRedChannel(ctx context.Context, res *clearance.SubmitResult) {
	subject := fmt.Sprintf("[RED CHANNEL] document %s flagged for inspection", res.Fingerprint.String()[:12])

	lines := []string{
		"A declaration was routed to the red channel and requires inspection.",
		"",
		"Fingerprint: " + res.Fingerprint.String(),
		"Locator:     " + res.Locator,
	}
	if res.GatewayURL != "" {
		lines = append(lines, "Document:    "+res.GatewayURL)
	}
	if res.Receipt != nil {
		lines = append(lines,
			"Receipt ID:  "+res.Receipt.ID.String(),
			"Recorded at: "+res.Receipt.RecordedAt.Format("2006-01-02 15:04:05 MST"),
		)
	}

	if err := n.sender.Send(ctx, n.to, subject, strings.Join(lines, "\n")); err != nil {
		n.logger.Warn("red channel alert not delivered",
			zap.String("fingerprint", res.Fingerprint.String()),
			zap.Error(err),
		)
	}
}
