package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"restaurant_pos_backend/pkg/utils"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
)

// Subjects published after a workflow mutation has been committed.
const (
	SubjectOrderCreated        = "orders.created"
	SubjectOrderStatusChanged  = "orders.status_changed"
	SubjectOrderPaymentChanged = "orders.payment_changed"
	SubjectOrderDeleted        = "orders.deleted"
	SubjectTableStatus         = "tables.status"
)

// Publisher delivers events to interested listeners. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
	Close() error
}

// OrderEvent describes a change of an order.
type OrderEvent struct {
	OrderID        int64           `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	UserID         int64           `json:"user_id"`
	TableID        *int64          `json:"table_id,omitempty"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	PaymentStatus  string          `json:"payment_status"`
	Total          decimal.Decimal `json:"total"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// TableStatusEvent describes a table becoming occupied or available.
type TableStatusEvent struct {
	TableID    int64     `json:"table_id"`
	Status     string    `json:"status"`
	OrderID    *int64    `json:"order_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NATSPublisher publishes events as JSON messages on a NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url. The connection keeps
// reconnecting in the background if the server goes away.
func NewNATSPublisher(url, clientName string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			utils.LogWarn(err, "NATS disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			utils.LogInfo("NATS reconnected", map[string]interface{}{"url": c.ConnectedUrl()})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// Publish encodes payload as JSON and sends it on subject. Delivery is fire
// and forget; ctx is not used by core NATS publishing.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", subject, err)
	}
	return p.conn.Publish(subject, data)
}

// Close flushes pending messages before closing the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NoopPublisher drops every event. Used when no NATS server is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NoopPublisher) Close() error                                     { return nil }
