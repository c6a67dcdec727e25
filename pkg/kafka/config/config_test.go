package kafka_config

import (
	"testing"
	"time"
)

func TestLoad_Disabled(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "")
	cfg := Load()
	if cfg.Enabled() {
		t.Errorf("expected publishing disabled without brokers, got %v", cfg.Brokers)
	}
}

func TestLoad_Brokers(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv(EnvKafkaProducerBatchTimeout, "50ms")

	cfg := Load()
	if len(cfg.Brokers) != 2 || cfg.Brokers[0] != "kafka-1:9092" || cfg.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Brokers)
	}
	if cfg.ProducerBatchTimeout != 50*time.Millisecond {
		t.Errorf("unexpected batch timeout %s", cfg.ProducerBatchTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Brokers:              []string{"localhost:9092"},
		ProducerMaxAttempts:  0,
		ProducerBatchTimeout: time.Millisecond,
		ProducerRequireAcks:  2,
		ProducerCompression:  "brotli",
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error")
	}
}
