// Package messaging publishes simulated purchase records to the
// telemetry sink. Purchases affect no balance or inventory; the sink is
// their only observable side effect.
package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/coindeck/pkg/config"
	"github.com/coindeck/pkg/models"
)

const purchaseSubject = "purchases.simulated"

// PurchaseSink receives simulated purchase records.
type PurchaseSink interface {
	Publish(record *models.PurchaseRecord) error
}

// NATSClient handles NATS messaging operations
type NATSClient struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewNATSClient creates a new NATS client
func NewNATSClient(cfg *config.NATSConfig, logger *logrus.Logger) (*NATSClient, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSClient{
		conn:   conn,
		logger: logger.WithField("component", "nats"),
	}, nil
}

// Close closes the NATS connection
func (nc *NATSClient) Close() error {
	nc.conn.Close()
	return nil
}

// IsConnected checks if NATS is connected
func (nc *NATSClient) IsConnected() bool {
	return nc.conn.IsConnected()
}

// Publish emits a purchase record on the purchases subject.
func (nc *NATSClient) Publish(record *models.PurchaseRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal purchase record: %w", err)
	}

	if err := nc.conn.Publish(purchaseSubject, data); err != nil {
		return fmt.Errorf("failed to publish purchase record: %w", err)
	}

	nc.logger.WithFields(logrus.Fields{
		"purchase_id": record.ID,
		"symbol":      record.Symbol,
	}).Debug("Published purchase record")

	return nil
}

// LogSink is the fallback purchase sink used when NATS is not
// configured; records go to the application log only.
type LogSink struct {
	logger *logrus.Entry
}

// NewLogSink creates a logging purchase sink.
func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{logger: logger.WithField("component", "purchase-log")}
}

// Publish logs the purchase record.
func (ls *LogSink) Publish(record *models.PurchaseRecord) error {
	ls.logger.WithFields(logrus.Fields{
		"purchase_id":        record.ID,
		"asset_id":           record.AssetID,
		"symbol":             record.Symbol,
		"amount_usd":         record.AmountUSD,
		"price_usd":          record.PriceUSD,
		"estimated_quantity": record.EstimatedQuantity,
	}).Info("Simulated purchase")
	return nil
}
