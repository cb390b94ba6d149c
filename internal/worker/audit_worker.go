package worker

import (
	"CineVault/config"
	"CineVault/internal/apperr"
	"CineVault/internal/mq"
	"CineVault/internal/security"
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type dlqMessage struct {
	EventType string    `json:"event_type"`
	Attempt   int       `json:"attempt"`
	Error     string    `json:"error"`
	FailedAt  time.Time `json:"failed_at"`
	Payload   string    `json:"payload"`
}

// RunAuditWorker consumes security events from RabbitMQ and appends
// them to the audit trail.
func RunAuditWorker(ctx context.Context, aggregator *security.Aggregator) error {
	client, err := mq.Dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeclareTopology(); err != nil {
		return err
	}

	prefetch := config.AppConfig.RabbitMQPrefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := client.Channel.Qos(prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := client.Channel.Consume(
		mq.QueueEvents,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	concurrency := config.AppConfig.AuditWorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("audit worker: delivery channel closed")
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handleEventMessage(ctx, client, aggregator, d)
			}(delivery)
		}
	}
}

func handleEventMessage(ctx context.Context, client *mq.Client, aggregator *security.Aggregator, delivery amqp.Delivery) {
	var msg mq.EventMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		log.Printf("audit worker: invalid message: %v", err)
		_ = delivery.Ack(false)
		return
	}
	if msg.EventType == "" {
		log.Printf("audit worker: message without event type dropped")
		_ = delivery.Ack(false)
		return
	}

	err := aggregator.Record(ctx, security.Event{
		EventType: msg.EventType,
		UserID:    msg.UserID,
		IPAddress: msg.IPAddress,
		UserAgent: msg.UserAgent,
		Details:   msg.Details,
		Severity:  msg.Severity,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			_ = delivery.Nack(false, true)
			return
		}
		if shouldRetry(err) {
			if err := scheduleRetry(ctx, client, msg, err); err != nil {
				log.Printf("audit worker: retry schedule failed: %v", err)
				_ = delivery.Nack(false, true)
				return
			}
		} else {
			if err := deadLetter(ctx, client, msg, err); err != nil {
				log.Printf("audit worker: dead letter failed: %v", err)
				_ = delivery.Nack(false, true)
				return
			}
		}
	}

	_ = delivery.Ack(false)
}

// shouldRetry treats store outages as transient; anything else is a
// poison message.
func shouldRetry(err error) bool {
	return apperr.IsStorage(err)
}

func scheduleRetry(ctx context.Context, client *mq.Client, msg mq.EventMessage, procErr error) error {
	maxRetry := config.AppConfig.AuditRetryMax
	if maxRetry < 0 {
		maxRetry = 0
	}
	nextAttempt := msg.Attempt + 1
	if maxRetry == 0 || nextAttempt > maxRetry {
		return deadLetter(ctx, client, msg, procErr)
	}

	msg.Attempt = nextAttempt
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	delay := pickRetryDelay(nextAttempt, config.AppConfig.AuditRetryDelays)
	return client.PublishRetry(ctx, body, delay)
}

func deadLetter(ctx context.Context, client *mq.Client, msg mq.EventMessage, procErr error) error {
	payload, _ := json.Marshal(msg)
	dlq := dlqMessage{
		EventType: msg.EventType,
		Attempt:   msg.Attempt,
		Error:     procErr.Error(),
		FailedAt:  time.Now(),
		Payload:   string(payload),
	}
	body, err := json.Marshal(dlq)
	if err != nil {
		return err
	}
	return client.PublishDLQ(ctx, body)
}

func pickRetryDelay(attempt int, delays []time.Duration) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[index]
}
