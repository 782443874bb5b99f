package models

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

// BrokerConfig holds the internal credential the backend presents to the
// MQTT broker, and that the broker's auth webhook accepts for the wildcard
// telemetry subscription.
type BrokerConfig struct {
	InternalUsername string
	InternalPassword string
}

type JWTConfig struct {
	Secret string
}

type HTTPConfig struct {
	Port string
}

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Broker   BrokerConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
}
