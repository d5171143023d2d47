// Package events broadcasts campaign lifecycle events over RabbitMQ.
// Publishing is fire-and-forget from the dispatcher's point of view: a broker
// outage degrades to logged warnings, never to failed campaigns.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"

	"github.com/sendgrove/blastpipe/interfaces"
	"github.com/sendgrove/blastpipe/internal/logger"
	"github.com/sendgrove/blastpipe/internal/tracing"
	"github.com/sendgrove/blastpipe/internal/utils"
)

const (
	ExchangeCampaignEvents = "blastpipe-campaign-events"
	ExchangeDeadLetter     = "blastpipe-dead-letter"

	QueueCampaignEvents = "campaign-events"
	DLQCampaignEvents   = QueueCampaignEvents + "-dlq"

	RoutingKeyDeadLetter = "dead-letter"

	EventCampaignCompleted = "campaign.completed"
	EventCampaignFailed    = "campaign.failed"

	// after TTL a message moves to the DLQ
	DefaultMessageTTL          = 240 * time.Hour
	DefaultMaxRetries          = 3
	DefaultPublishTimeout      = 5 * time.Second
	DefaultReconnectBackoff    = time.Second
	DefaultMaxReconnectBackoff = 30 * time.Second
)

// CampaignEvent is the wire envelope for every campaign lifecycle event.
type CampaignEvent struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	CampaignID  string `json:"campaignId"`
	UserID      string `json:"userId,omitempty"`
	SentCount   int    `json:"sentCount,omitempty"`
	FailedCount int    `json:"failedCount,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Timestamp   string `json:"timestamp"`
}

type PublisherConfig struct {
	MessageTTL          time.Duration
	MaxRetries          int
	PublishTimeout      time.Duration
	ReconnectBackoff    time.Duration
	MaxReconnectBackoff time.Duration
}

type RabbitMQPublisher struct {
	connection      *amqp091.Connection
	connectionMutex sync.Mutex
	publishChannel  *amqp091.Channel
	publishMutex    sync.Mutex
	url             string
	logger          logger.Logger
	confirms        chan amqp091.Confirmation
	config          PublisherConfig
	closed          bool
}

func NewRabbitMQPublisher(rabbitmqURL string, logger logger.Logger, config *PublisherConfig) (*RabbitMQPublisher, error) {
	if config == nil {
		config = &PublisherConfig{
			MessageTTL:          DefaultMessageTTL,
			MaxRetries:          DefaultMaxRetries,
			PublishTimeout:      DefaultPublishTimeout,
			ReconnectBackoff:    DefaultReconnectBackoff,
			MaxReconnectBackoff: DefaultMaxReconnectBackoff,
		}
	}

	publisher := &RabbitMQPublisher{
		url:    rabbitmqURL,
		logger: logger,
		config: *config,
	}

	if err := publisher.connect(); err != nil {
		return nil, err
	}
	return publisher, nil
}

func (r *RabbitMQPublisher) PublishCampaignCompleted(ctx context.Context, campaignID string, sent, failed int) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RabbitMQPublisher.PublishCampaignCompleted")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCampaign(span, campaignID)

	event := r.newEvent(ctx, EventCampaignCompleted, campaignID)
	event.SentCount = sent
	event.FailedCount = failed

	if err := r.publishMessageOnExchange(ctx, event, ExchangeCampaignEvents, ""); err != nil {
		tracing.TraceErr(span, err)
		r.logger.Errorf("failed to publish campaign completed event for %s: %v", campaignID, err)
	}
}

func (r *RabbitMQPublisher) PublishCampaignFailed(ctx context.Context, campaignID string, reason string) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RabbitMQPublisher.PublishCampaignFailed")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagCampaign(span, campaignID)

	event := r.newEvent(ctx, EventCampaignFailed, campaignID)
	event.Reason = reason

	if err := r.publishMessageOnExchange(ctx, event, ExchangeCampaignEvents, ""); err != nil {
		tracing.TraceErr(span, err)
		r.logger.Errorf("failed to publish campaign failed event for %s: %v", campaignID, err)
	}
}

func (r *RabbitMQPublisher) newEvent(ctx context.Context, eventType, campaignID string) CampaignEvent {
	return CampaignEvent{
		ID:         utils.GenerateNanoIdWithPrefix("event", 21),
		Type:       eventType,
		CampaignID: campaignID,
		UserID:     utils.GetUserIdFromContext(ctx),
		Timestamp:  utils.Now().Format(time.RFC3339),
	}
}

func (r *RabbitMQPublisher) Close() error {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()
	r.closed = true
	if r.publishChannel != nil {
		r.publishChannel.Close()
	}
	if r.connection != nil {
		return r.connection.Close()
	}
	return nil
}

func (r *RabbitMQPublisher) connect() error {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	var err error
	r.connection, err = amqp091.Dial(r.url)
	if err != nil {
		return errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	if err := r.setupExchangesAndQueues(); err != nil {
		return errors.Wrap(err, "failed to setup exchanges and queues")
	}

	if err := r.setupPublishChannel(); err != nil {
		return errors.Wrap(err, "failed to setup publish channel")
	}

	go r.handleReconnection()

	return nil
}

func (r *RabbitMQPublisher) setupPublishChannel() error {
	channel, err := r.connection.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open publish channel")
	}

	// publisher confirms so a nack is retried instead of silently dropped
	if err := channel.Confirm(false); err != nil {
		channel.Close()
		return errors.Wrap(err, "failed to enable publisher confirms")
	}

	r.confirms = channel.NotifyPublish(make(chan amqp091.Confirmation, 1))
	r.publishChannel = channel
	return nil
}

func (r *RabbitMQPublisher) handleReconnection() {
	backoff := r.config.ReconnectBackoff

	for {
		notifyClose := r.connection.NotifyClose(make(chan *amqp091.Error))
		err := <-notifyClose
		if err == nil || r.closed {
			return
		}
		r.logger.Warnf("RabbitMQ connection closed: %v, attempting to reconnect", err)

		for {
			err := r.connect()
			if err == nil {
				r.logger.Info("successfully reconnected to RabbitMQ")
				break
			}

			r.logger.Errorf("failed to reconnect: %v, retrying in %v", err, backoff)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > r.config.MaxReconnectBackoff {
				backoff = r.config.MaxReconnectBackoff
			}
		}

		backoff = r.config.ReconnectBackoff
	}
}

func (r *RabbitMQPublisher) setupExchangesAndQueues() error {
	channel, err := r.connection.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open channel for exchange/queue setup")
	}
	defer channel.Close()

	err = channel.ExchangeDeclare(
		ExchangeDeadLetter,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return errors.Wrap(err, "failed to declare dead letter exchange")
	}

	err = channel.ExchangeDeclare(
		ExchangeCampaignEvents,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "failed to declare campaign events exchange")
	}

	if err := r.declareQueueWithDLQ(channel, QueueCampaignEvents, DLQCampaignEvents); err != nil {
		return err
	}
	err = channel.QueueBind(
		QueueCampaignEvents,
		"",
		ExchangeCampaignEvents,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to bind queue %s to exchange %s", QueueCampaignEvents, ExchangeCampaignEvents)
	}

	return nil
}

func (r *RabbitMQPublisher) declareQueueWithDLQ(channel *amqp091.Channel, queueName, dlqName string) error {
	_, err := channel.QueueDeclare(
		dlqName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to declare DLQ %s", dlqName)
	}

	err = channel.QueueBind(
		dlqName,
		RoutingKeyDeadLetter,
		ExchangeDeadLetter,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to bind DLQ %s to exchange", dlqName)
	}

	args := map[string]interface{}{
		"x-dead-letter-exchange":    ExchangeDeadLetter,
		"x-dead-letter-routing-key": RoutingKeyDeadLetter,
		"x-message-ttl":             int64(r.config.MessageTTL.Milliseconds()),
	}

	_, err = channel.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		args,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to declare queue %s", queueName)
	}

	return nil
}

func (r *RabbitMQPublisher) ensureConnectionAndChannel() error {
	if r.connection == nil || r.connection.IsClosed() {
		if err := r.connect(); err != nil {
			return errors.Wrap(err, "failed to establish connection")
		}
	}

	if r.publishChannel == nil || r.publishChannel.IsClosed() {
		if err := r.setupPublishChannel(); err != nil {
			return errors.Wrap(err, "failed to establish channel")
		}
	}

	return nil
}

func (r *RabbitMQPublisher) publishMessageOnExchange(ctx context.Context, message interface{}, exchange, routingKey string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RabbitMQPublisher.publishMessageOnExchange")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.LogObjectAsJson(span, "message", message)

	for attempt := 0; attempt < r.config.MaxRetries; attempt++ {
		err := r.publishWithConfirm(ctx, message, exchange, routingKey)
		if err == nil {
			return nil
		}

		r.logger.Warnf("publish attempt %d failed: %v", attempt+1, err)
		if attempt < r.config.MaxRetries-1 {
			time.Sleep(time.Millisecond * 100 * time.Duration(attempt+1))
		}
	}

	return errors.New("failed to publish message after all retries")
}

func (r *RabbitMQPublisher) publishWithConfirm(ctx context.Context, message interface{}, exchange, routingKey string) error {
	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := r.ensureConnectionAndChannel(); err != nil {
		return err
	}

	jsonBody, err := json.Marshal(message)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message")
	}

	publishCtx, cancel := context.WithTimeout(ctx, r.config.PublishTimeout)
	defer cancel()

	err = r.publishChannel.PublishWithContext(
		publishCtx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         jsonBody,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    utils.Now(),
		},
	)
	if err != nil {
		return errors.Wrap(err, "failed to publish message")
	}

	select {
	case confirm := <-r.confirms:
		if !confirm.Ack {
			return errors.New("message nacked by broker")
		}
		return nil
	case <-publishCtx.Done():
		return errors.New("timed out waiting for publish confirmation")
	}
}

var _ interfaces.EventPublisher = (*RabbitMQPublisher)(nil)
