package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"

	"portfolio-analytics-api/internal/models"
)

// AlertMessage is the wire format for a portfolio alert
type AlertMessage struct {
	AlertID     string    `json:"alert_id"`
	PortfolioID string    `json:"portfolio_id"`
	UserID      int64     `json:"user_id"`
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Action      string    `json:"action"`
	CreatedAt   time.Time `json:"created_at"`
}

// AlertPublisher publishes portfolio alerts to the notification exchange
type AlertPublisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *logrus.Logger
}

// NewAlertPublisher creates a new alert publisher
func NewAlertPublisher(rabbitURL, exchange, routingKey string, logger *logrus.Logger) (*AlertPublisher, error) {
	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare exchange (idempotent)
	err = channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Infof("Alert publisher initialized (exchange: %s, routing_key: %s)", exchange, routingKey)

	return &AlertPublisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

// EmitAlerts publishes one alert per high or medium priority recommendation
// and returns the number of alerts published. Low priority recommendations
// stay in the snapshot only.
func (p *AlertPublisher) EmitAlerts(ctx context.Context, portfolioID string, userID int64, recommendations []models.Recommendation) (int, error) {
	published := 0
	for _, rec := range recommendations {
		if !rec.Alertable() {
			continue
		}

		msg := AlertMessage{
			AlertID:     uuid.New().String(),
			PortfolioID: portfolioID,
			UserID:      userID,
			Type:        string(rec.Type),
			Priority:    string(rec.Priority),
			Title:       rec.AlertTitle(),
			Message:     rec.Message,
			Action:      string(rec.Action),
			CreatedAt:   time.Now(),
		}

		body, err := json.Marshal(msg)
		if err != nil {
			return published, fmt.Errorf("failed to marshal alert: %w", err)
		}

		err = p.channel.Publish(
			p.exchange,
			p.routingKey,
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				CorrelationId: msg.AlertID,
				ContentType:   "application/json",
				Body:          body,
				Timestamp:     time.Now(),
				DeliveryMode:  amqp.Persistent,
			},
		)
		if err != nil {
			return published, fmt.Errorf("failed to publish alert: %w", err)
		}

		published++
		p.logger.Debugf("Published alert (alert_id: %s, portfolio_id: %s, type: %s)", msg.AlertID, portfolioID, rec.Type)
	}

	return published, nil
}

// Close closes the publisher channel and connection
func (p *AlertPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.logger.Warnf("Error closing channel: %v", err)
	}
	return p.conn.Close()
}
