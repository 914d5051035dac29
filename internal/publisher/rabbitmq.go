package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"webinar_archive/internal/domain"
)

// EventCatalogRefreshed is the event name carried by every refresh message.
const EventCatalogRefreshed = "catalog.refreshed"

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

// CatalogRefreshedMessage announces that a refresh run replaced the catalog.
type CatalogRefreshedMessage struct {
	MessageID   string    `json:"message_id"`
	Event       string    `json:"event"`
	SourceID    string    `json:"source_id"`
	RunID       string    `json:"run_id"`
	CatalogSize int       `json:"catalog_size"`
	Pages       int       `json:"pages"`
	Hits        int       `json:"hits"`
	Dropped     int       `json:"dropped"`
	DurationMS  int64     `json:"duration_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

func newCatalogRefreshedMessage(sourceID string, stats domain.SyncStats) CatalogRefreshedMessage {
	return CatalogRefreshedMessage{
		MessageID:   uuid.NewString(),
		Event:       EventCatalogRefreshed,
		SourceID:    sourceID,
		RunID:       stats.RunID,
		CatalogSize: stats.Kept,
		Pages:       stats.Pages,
		Hits:        stats.Hits,
		Dropped:     stats.Dropped,
		DurationMS:  stats.Duration.Milliseconds(),
		Timestamp:   time.Now().UTC(),
	}
}

func (r *RabbitMQ) PublishRefresh(ctx context.Context, sourceID string, stats domain.SyncStats) error {
	msg := newCatalogRefreshedMessage(sourceID, stats)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			MessageId:    msg.MessageID,
			Type:         EventCatalogRefreshed,
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    msg.Timestamp,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published catalog refresh",
		"run_id", stats.RunID,
		"message_id", msg.MessageID,
		"catalog_size", stats.Kept,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
