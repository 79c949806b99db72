package saramasink

import (
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/YaganovValera/cart-abandonment-producer/pkg/backoff"
)

// Config groups all tunables for the async Kafka producer.
//
// Zero values are replaced with defaults by applyDefaults().
type Config struct {
	// Brokers — список адресов Kafka-брокеров выбранного региона.
	Brokers []string
	// Topic — поток назначения.
	Topic string
	// ClientID попадает в запросы к брокеру.
	ClientID string

	// Aggregation включает клиентский батчинг. false → одна запись на запрос.
	Aggregation bool

	// RequiredAcks: "all" (дефолт) | "leader" | "none".
	RequiredAcks string
	// Timeout — максимальное время ожидания ack от кластера.
	Timeout time.Duration
	// Compression: "none" (дефолт), "gzip", "snappy", "lz4", "zstd".
	Compression string

	// FlushFrequency, FlushMessages, FlushBytes — пороги батча при Aggregation.
	// Ноль → по умолчанию sarama.
	FlushFrequency time.Duration
	FlushMessages  int
	FlushBytes     int

	// MaxRetries — внутренние ретраи sarama для одной записи.
	MaxRetries int

	// Backoff описывает стратегию ретраев подключения при старте.
	Backoff backoff.Config

	// Tracing оборачивает продьюсер в otelsarama (span на запись).
	Tracing bool
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RequiredAcks == "" {
		c.RequiredAcks = "all"
	}
	if c.Compression == "" {
		c.Compression = "none"
	}
	if c.ClientID == "" {
		c.ClientID = "cart-producer"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
}

func (c Config) validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("sarama sink: brokers required")
	}
	if c.Topic == "" {
		return fmt.Errorf("sarama sink: topic required")
	}
	return nil
}

func buildSaramaConfig(c Config) (*sarama.Config, error) {
	sc := sarama.NewConfig()
	sc.ClientID = c.ClientID

	switch strings.ToLower(c.RequiredAcks) {
	case "all":
		sc.Producer.RequiredAcks = sarama.WaitForAll
	case "leader":
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	case "none":
		sc.Producer.RequiredAcks = sarama.NoResponse
	default:
		return nil, fmt.Errorf("sarama sink: invalid RequiredAcks %q", c.RequiredAcks)
	}

	// Успехи и ошибки читаются диспетчерами и превращаются в callback'и.
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Timeout = c.Timeout
	sc.Producer.Retry.Max = c.MaxRetries
	// Ключ партиционирования — customer_id.
	sc.Producer.Partitioner = sarama.NewHashPartitioner

	if c.Aggregation {
		if c.FlushFrequency > 0 {
			sc.Producer.Flush.Frequency = c.FlushFrequency
		}
		if c.FlushMessages > 0 {
			sc.Producer.Flush.Messages = c.FlushMessages
		}
		if c.FlushBytes > 0 {
			sc.Producer.Flush.Bytes = c.FlushBytes
		}
	} else {
		sc.Producer.Flush.MaxMessages = 1
	}

	switch strings.ToLower(c.Compression) {
	case "none":
		sc.Producer.Compression = sarama.CompressionNone
	case "gzip":
		sc.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		sc.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		sc.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		sc.Producer.Compression = sarama.CompressionZSTD
	default:
		return nil, fmt.Errorf("sarama sink: invalid Compression %q", c.Compression)
	}

	return sc, nil
}
