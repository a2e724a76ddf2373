package config_test

import (
	"testing"
	"time"

	"geyser/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Defaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")

	cfg := config.Read()

	assert.Equal(t, "geyser-publisher", cfg.ServiceName)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout())
	assert.Equal(t, config.BrokerKafka, cfg.Broker)
	assert.False(t, cfg.PublishSeparateProgram)
	assert.Equal(t, 100000, cfg.QueueCapacity)
	assert.Empty(t, cfg.SlotStatusTopic)
	require.NoError(t, cfg.Validate())
}

func TestRead_FromEnv(t *testing.T) {
	t.Setenv("UPDATE_ACCOUNT_TOPIC", "accounts")
	t.Setenv("SLOT_STATUS_TOPIC", "slots")
	t.Setenv("PUBLISH_SEPARATE_PROGRAM", "true")
	t.Setenv("SHUTDOWN_TIMEOUT_MS", "1500")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PROGRAM_IGNORES", "Vote111111111111111111111111111111111111111")

	cfg := config.Read()

	assert.Equal(t, "accounts", cfg.UpdateAccountTopic)
	assert.Equal(t, "slots", cfg.SlotStatusTopic)
	assert.True(t, cfg.PublishSeparateProgram)
	assert.Equal(t, 1500*time.Millisecond, cfg.ShutdownTimeout())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"Vote111111111111111111111111111111111111111"}, cfg.ProgramIgnores)
}

func TestAppConfig_Validate(t *testing.T) {
	valid := func() config.AppConfig {
		return config.AppConfig{
			ServiceName:   "svc",
			Broker:        config.BrokerKafka,
			KafkaBrokers:  []string{"localhost:9092"},
			QueueCapacity: 10,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.AppConfig)
		wantErr bool
	}{
		{name: "valid kafka", mutate: func(c *config.AppConfig) {}},
		{
			name:    "unknown broker",
			mutate:  func(c *config.AppConfig) { c.Broker = "pulsar" },
			wantErr: true,
		},
		{
			name:    "kafka without brokers",
			mutate:  func(c *config.AppConfig) { c.KafkaBrokers = nil },
			wantErr: true,
		},
		{
			name: "rabbitmq without url",
			mutate: func(c *config.AppConfig) {
				c.Broker = config.BrokerRabbitMQ
				c.RabbitMQExchange = "geyser"
			},
			wantErr: true,
		},
		{
			name:   "memory needs nothing else",
			mutate: func(c *config.AppConfig) { c.Broker = config.BrokerMemory; c.KafkaBrokers = nil },
		},
		{
			name:    "ingest without queue",
			mutate:  func(c *config.AppConfig) { c.IngestURL = "amqp://localhost"; c.IngestExchange = "in" },
			wantErr: true,
		},
		{
			name:    "zero queue capacity",
			mutate:  func(c *config.AppConfig) { c.QueueCapacity = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
