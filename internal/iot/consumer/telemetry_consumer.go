package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"fleettrack/internal/domain"
	"fleettrack/internal/iot/app"
	"fleettrack/internal/shared/mq"
	"fleettrack/internal/shared/util"
)

const telemetryQueue = "telemetry_ingest"

const (
	baseBackoff = 5 * time.Second
	maxBackoff  = 60 * time.Second
)

// nextBackoff doubles the reconnect delay up to the cap.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// TelemetryConsumer is the bridge between the ingestion transport and the
// ingestion service: it holds the backend's wildcard telemetry subscription,
// decodes readings and hands trip-scoped results to the realtime gateway.
type TelemetryConsumer struct {
	service *app.IotService
	gateway domain.Broadcaster
	url     string
	logger  *util.Logger
}

func NewTelemetryConsumer(service *app.IotService, gateway domain.Broadcaster, url string, logger *util.Logger) *TelemetryConsumer {
	return &TelemetryConsumer{
		service: service,
		gateway: gateway,
		url:     url,
		logger:  logger,
	}
}

// Run consumes until ctx is cancelled, redialing with bounded backoff when
// the transport drops. A single bad message never stops the loop.
func (c *TelemetryConsumer) Run(ctx context.Context) {
	instance := "TelemetryConsumer.Run"

	backoff := baseBackoff

	for {
		started, err := c.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		if started {
			// the session was healthy; don't punish the next dial for
			// failures that predate it
			backoff = baseBackoff
		}
		if err != nil {
			c.logger.Warn(instance, fmt.Sprintf("consumer stopped: %v; reconnecting in %v", err, backoff))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff = nextBackoff(backoff)
	}
}

// consume runs one transport session. The bool reports whether the session
// reached the consuming state before failing.
func (c *TelemetryConsumer) consume(ctx context.Context) (bool, error) {
	instance := "TelemetryConsumer.consume"

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return false, err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(telemetryQueue, true, false, false, false, nil); err != nil {
		return false, err
	}

	// The broker's MQTT bridge republishes telemetry/<id> with routing key
	// telemetry.<id> on the topic exchange.
	if err := ch.QueueBind(telemetryQueue, "telemetry.#", mq.TelemetryExchange, false, nil); err != nil {
		return false, err
	}

	msgs, err := ch.Consume(telemetryQueue, "", false, false, false, false, nil)
	if err != nil {
		return false, err
	}

	c.logger.OK(instance, "telemetry consumer started")

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case msg, ok := <-msgs:
			if !ok {
				return true, errors.New("delivery channel closed")
			}
			c.handleMessage(ctx, msg)
		}
	}
}

func (c *TelemetryConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	instance := "TelemetryConsumer.handleMessage"

	trackerID, ok := trackerIDFromRoutingKey(msg.RoutingKey)
	if !ok {
		c.logger.Warn(instance, fmt.Sprintf("invalid topic format: %s", msg.RoutingKey))
		msg.Nack(false, false)
		return
	}

	readings, isBatch, err := decodeReadings(msg.Body)
	if err != nil {
		c.logger.Warn(instance, fmt.Sprintf("invalid JSON from tracker %d: %v", trackerID, err))
		msg.Nack(false, false)
		return
	}

	tracker, err := c.service.GetTracker(ctx, trackerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn(instance, fmt.Sprintf("tracker %d not found", trackerID))
			msg.Nack(false, false)
			return
		}
		c.logger.Error(instance, err)
		msg.Nack(false, true)
		return
	}

	var result *domain.TelemetryResult
	if isBatch {
		result, err = c.service.SaveBatchTelemetry(ctx, tracker, readings)
	} else {
		result, err = c.service.SaveTelemetry(ctx, tracker, readings[0])
	}
	if err != nil {
		// ErrNotFound here means the tracker's bound vehicle row is gone,
		// which no redelivery can fix.
		if errors.Is(err, domain.ErrInvalidReading) || errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn(instance, fmt.Sprintf("dropping message from tracker %d: %v", trackerID, err))
			msg.Nack(false, false)
			return
		}
		c.logger.Error(instance, fmt.Errorf("failed to process message from tracker %d: %w", trackerID, err))
		msg.Nack(false, true)
		return
	}

	if result != nil {
		var channelTokens []string
		if result.TripID != nil {
			channelTokens, err = c.service.ChannelTokensByTripID(ctx, *result.TripID)
			if err != nil {
				c.logger.Warn(instance, fmt.Sprintf("channel token lookup failed for trip %d: %v", *result.TripID, err))
			}
		}
		c.gateway.BroadcastTelemetry(result.TripID, result.CompanyID, channelTokens, result.Data)
	}

	msg.Ack(false)
}

// trackerIDFromRoutingKey accepts both the AMQP form telemetry.<id> and the
// raw MQTT form telemetry/<id>.
func trackerIDFromRoutingKey(key string) (int64, bool) {
	var rest string
	switch {
	case strings.HasPrefix(key, "telemetry."):
		rest = strings.TrimPrefix(key, "telemetry.")
	case strings.HasPrefix(key, "telemetry/"):
		rest = strings.TrimPrefix(key, "telemetry/")
	default:
		return 0, false
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeReadings parses a message body as either one reading or a buffered
// uplink of several.
func decodeReadings(body []byte) ([]domain.Reading, bool, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var batch []domain.Reading
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, false, err
		}
		if len(batch) == 0 {
			return nil, false, errors.New("empty batch")
		}
		return batch, true, nil
	}

	var reading domain.Reading
	if err := json.Unmarshal(body, &reading); err != nil {
		return nil, false, err
	}
	return []domain.Reading{reading}, false, nil
}
