package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
	BrokerMemory   = "memory"
)

type AppConfig struct {
	ServiceName string `mapstructure:"SERVICE_NAME" validate:"required"`

	ShutdownTimeoutMS      uint64   `mapstructure:"SHUTDOWN_TIMEOUT_MS"`
	UpdateAccountTopic     string   `mapstructure:"UPDATE_ACCOUNT_TOPIC"`
	SlotStatusTopic        string   `mapstructure:"SLOT_STATUS_TOPIC"`
	TransactionTopic       string   `mapstructure:"TRANSACTION_TOPIC"`
	PublishSeparateProgram bool     `mapstructure:"PUBLISH_SEPARATE_PROGRAM"`
	ProgramIgnores         []string `mapstructure:"PROGRAM_IGNORES"`
	WrapMessages           bool     `mapstructure:"WRAP_MESSAGES"`

	Broker          string   `mapstructure:"BROKER" validate:"oneof=kafka rabbitmq memory"`
	KafkaBrokers    []string `mapstructure:"KAFKA_BROKERS" validate:"required_if=Broker kafka"`
	KafkaClientID   string   `mapstructure:"KAFKA_CLIENT_ID"`
	QueueCapacity   int      `mapstructure:"QUEUE_CAPACITY" validate:"gt=0"`
	MaxMessageBytes int      `mapstructure:"MAX_MESSAGE_BYTES" validate:"gte=0"`

	RabbitMQURL      string `mapstructure:"RABBITMQ_URL" validate:"required_if=Broker rabbitmq"`
	RabbitMQExchange string `mapstructure:"RABBITMQ_EXCHANGE" validate:"required_if=Broker rabbitmq"`

	IngestURL      string `mapstructure:"INGEST_URL"`
	IngestExchange string `mapstructure:"INGEST_EXCHANGE" validate:"required_with=IngestURL"`
	IngestQueue    string `mapstructure:"INGEST_QUEUE" validate:"required_with=IngestURL"`
	IngestPrefetch int    `mapstructure:"INGEST_PREFETCH" validate:"gte=0"`

	MetricsPort string `mapstructure:"METRICS_PORT"`
	GRPCPort    string `mapstructure:"GRPC_PORT"`
}

func (c *AppConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// Validate checks the struct tags; it does not contact any broker.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Read loads .env from the working directory if present, then the environment, which wins.
func Read() *AppConfig {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	bindEnvVariables(v)
	setDefaults(v)

	var appConfig AppConfig
	err := v.Unmarshal(&appConfig)
	if err != nil {
		panic(fmt.Errorf("fatal error unmarshalling config: %w", err))
	}

	return &appConfig
}

func bindEnvVariables(v *viper.Viper) {
	_ = v.BindEnv("SERVICE_NAME")
	_ = v.BindEnv("SHUTDOWN_TIMEOUT_MS")
	_ = v.BindEnv("UPDATE_ACCOUNT_TOPIC")
	_ = v.BindEnv("SLOT_STATUS_TOPIC")
	_ = v.BindEnv("TRANSACTION_TOPIC")
	_ = v.BindEnv("PUBLISH_SEPARATE_PROGRAM")
	_ = v.BindEnv("PROGRAM_IGNORES")
	_ = v.BindEnv("WRAP_MESSAGES")
	_ = v.BindEnv("BROKER")
	_ = v.BindEnv("KAFKA_BROKERS")
	_ = v.BindEnv("KAFKA_CLIENT_ID")
	_ = v.BindEnv("QUEUE_CAPACITY")
	_ = v.BindEnv("MAX_MESSAGE_BYTES")
	_ = v.BindEnv("RABBITMQ_URL")
	_ = v.BindEnv("RABBITMQ_EXCHANGE")
	_ = v.BindEnv("INGEST_URL")
	_ = v.BindEnv("INGEST_EXCHANGE")
	_ = v.BindEnv("INGEST_QUEUE")
	_ = v.BindEnv("INGEST_PREFETCH")
	_ = v.BindEnv("METRICS_PORT")
	_ = v.BindEnv("GRPC_PORT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "geyser-publisher")
	v.SetDefault("SHUTDOWN_TIMEOUT_MS", 30000)
	v.SetDefault("PUBLISH_SEPARATE_PROGRAM", false)
	v.SetDefault("WRAP_MESSAGES", false)
	v.SetDefault("BROKER", BrokerKafka)
	v.SetDefault("QUEUE_CAPACITY", 100000)
	v.SetDefault("MAX_MESSAGE_BYTES", 1000000)
	v.SetDefault("INGEST_PREFETCH", 100)
	v.SetDefault("METRICS_PORT", "9102")
	v.SetDefault("GRPC_PORT", "9090")
}
