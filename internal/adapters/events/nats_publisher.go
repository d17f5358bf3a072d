// Package events publishes detection outcomes to external consumers over
// NATS.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/afraa786/wichain/internal/core/domain"
	"github.com/afraa786/wichain/internal/core/ports"
)

// DefaultSubject is the subject spoof verdicts are published on.
const DefaultSubject = "wichain.verdicts"

// NATSPublisher forwards spoof verdicts to a NATS subject. Legitimate
// verdicts are not published; downstream consumers only care about alerts.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects to the given NATS URL. An empty subject falls
// back to DefaultSubject.
func NewNATSPublisher(url, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(url,
		nats.Name("wichain-publisher"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}

	return &NATSPublisher{conn: conn, subject: subject, logger: logger}, nil
}

// NotifyVerdict implements ports.VerdictNotifier. Publish errors are logged,
// never propagated into the detection path.
func (p *NATSPublisher) NotifyVerdict(v domain.Verdict) {
	if !v.IsSpoof {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("encode verdict for publish", "verdict_id", v.ID, "error", err)
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Error("publish verdict", "verdict_id", v.ID, "subject", p.subject, "error", err)
	}
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("drain nats connection", "error", err)
	}
}

var _ ports.VerdictNotifier = (*NATSPublisher)(nil)
