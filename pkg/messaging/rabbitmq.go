package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/staffdir/staffdir-backend/pkg/config"
	"github.com/staffdir/staffdir-backend/pkg/logger"
)

// RabbitMQ manages the connection to RabbitMQ. A dropped connection is
// re-established in the background; Channel always returns the newest one.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	logger  *logger.Logger
	mu      sync.RWMutex
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new RabbitMQ connection
func New(cfg *config.RabbitMQConfig, log *logger.Logger) (*RabbitMQ, error) {
	ctx, cancel := context.WithCancel(context.Background())
	rmq := &RabbitMQ{
		config: cfg,
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := rmq.connect(); err != nil {
		cancel()
		return nil, err
	}

	return rmq, nil
}

// connect dials and opens a channel. Callers other than New hold mu.
func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.config.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	r.conn = conn
	r.channel = ch
	go r.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))

	r.logger.Info().Msg("connected to RabbitMQ")
	return nil
}

// watch reconnects once the broker drops the connection. A graceful Close
// closes the notification channel without an error and ends the watcher.
func (r *RabbitMQ) watch(closes <-chan *amqp.Error) {
	amqpErr, ok := <-closes
	if !ok || amqpErr == nil {
		return
	}

	r.logger.Warn().Str("reason", amqpErr.Reason).Int("code", amqpErr.Code).Msg("RabbitMQ connection lost")
	if err := r.Reconnect(r.ctx); err != nil {
		r.logger.Error().Err(err).Msg("giving up on RabbitMQ")
	}
}

// healthy reports whether the current connection and channel are open. Callers hold mu.
func (r *RabbitMQ) healthy() bool {
	return r.conn != nil && !r.conn.IsClosed() && r.channel != nil && !r.channel.IsClosed()
}

// Channel returns the current channel
func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// Close closes the RabbitMQ connection and stops reconnecting
func (r *RabbitMQ) Close() error {
	if r.cancel != nil {
		r.cancel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to close channel")
		}
	}

	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}

	r.logger.Info().Msg("RabbitMQ connection closed")
	return nil
}

// Health returns the health status of RabbitMQ
func (r *RabbitMQ) Health() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := map[string]string{
		"status": "up",
	}

	if r.conn == nil || r.conn.IsClosed() {
		status["status"] = "down"
		status["error"] = "connection closed"
	}

	return status
}

// DeclareExchange declares a durable topic exchange
func (r *RabbitMQ) DeclareExchange(name string) error {
	return r.Channel().ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	)
}

// Reconnect re-establishes the connection, trying up to MaxRetries times
// with ReconnectDelay between attempts. It returns at once when the current
// connection is still open. The lock is only held during an attempt so
// publishers are not blocked while waiting.
func (r *RabbitMQ) Reconnect(ctx context.Context) error {
	for i := 0; i < r.config.MaxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.config.ReconnectDelay):
			}
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return fmt.Errorf("connection is permanently closed")
		}
		if r.healthy() {
			r.mu.Unlock()
			return nil
		}

		r.logger.Info().Int("attempt", i+1).Msg("attempting to reconnect to RabbitMQ")
		err := r.connect()
		r.mu.Unlock()
		if err == nil {
			return nil
		}
		r.logger.Warn().Err(err).Msg("reconnection attempt failed")
	}

	return fmt.Errorf("failed to reconnect after %d attempts", r.config.MaxRetries)
}
