package mq

import (
	"fmt"

	"fleettrack/internal/shared/models"
)

// TelemetryExchange is the topic exchange the broker's MQTT bridge publishes
// into. A device publish to MQTT topic telemetry/<id> arrives here with
// routing key telemetry.<id>.
const TelemetryExchange = "amq.topic"

// URL builds the AMQP connection string the telemetry consumer dials with.
func URL(cfg *models.RabbitMQConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.User, cfg.Password, cfg.Host, cfg.Port)
}
