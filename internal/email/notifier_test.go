package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GangaMannan/CustomsClearnace/internal/clearance"
	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
	"github.com/GangaMannan/CustomsClearnace/internal/ledger"
	"github.com/GangaMannan/CustomsClearnace/internal/risk"
)

type captureSender struct {
	to, subject, body string
	err               error
}

func (c *captureSender) Send(_ context.Context, to, subject, body string) error {
	c.to, c.subject, c.body = to, subject, body
	return c.err
}

func redResult() *clearance.SubmitResult {
	fp := fingerprint.New([]byte("undervalued invoice"))
	return &clearance.SubmitResult{
		Fingerprint: fp,
		Locator:     "QmTestLocator",
		GatewayURL:  "http://localhost:8080/ipfs/QmTestLocator",
		Receipt: &ledger.Receipt{
			ID:          uuid.New(),
			Fingerprint: fp,
			RecordedAt:  time.Now().UTC(),
		},
		Channel: risk.ChannelRed,
	}
}

func TestInspectionNotifier_composesAlert(t *testing.T) {
	sender := &captureSender{}
	n := NewInspectionNotifier(sender, "inspection@customs.test", zap.NewNop())

	res := redResult()
	n.NotifyRedChannel(context.Background(), res)

	if sender.to != "inspection@customs.test" {
		t.Fatalf("to = %q", sender.to)
	}
	if !strings.Contains(sender.subject, "RED CHANNEL") {
		t.Fatalf("subject = %q", sender.subject)
	}
	for _, want := range []string{res.Fingerprint.String(), res.Locator, res.GatewayURL, res.Receipt.ID.String()} {
		if !strings.Contains(sender.body, want) {
			t.Fatalf("body missing %q:\n%s", want, sender.body)
		}
	}
}

func TestInspectionNotifier_sendFailureDoesNotPanic(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	n := NewInspectionNotifier(sender, "inspection@customs.test", zap.NewNop())
	n.NotifyRedChannel(context.Background(), redResult())
}
