package app

import (
	"context"
	"fmt"

	"github.com/YaganovValera/cart-abandonment-producer/internal/config"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/logger"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/sink"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/sink/kafkagosink"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/sink/saramasink"
)

// openSink выбирает драйвер по stream.driver. Подменяется в тестах.
var openSink = func(ctx context.Context, cfg *config.Config, log *logger.Logger) (sink.Sink, error) {
	brokers, err := cfg.ResolveBrokers()
	if err != nil {
		return nil, err
	}

	switch cfg.Stream.Driver {
	case config.DriverKafkaGo:
		w, err := kafkagosink.New(ctx, kafkagosink.Config{
			Brokers:      brokers,
			Topic:        cfg.Stream.Destination,
			ClientID:     cfg.Kafka.ClientID,
			Aggregation:  cfg.Stream.Aggregation,
			BatchSize:    cfg.Kafka.FlushMessages,
			BatchTimeout: cfg.Kafka.FlushFrequency,
			BatchBytes:   int64(cfg.Kafka.FlushBytes),
			RequiredAcks: cfg.Kafka.Acks,
			Compression:  cfg.Kafka.Compression,
			WriteTimeout: cfg.Kafka.Timeout,
			MaxAttempts:  cfg.Kafka.MaxRetries + 1,
			Backoff:      cfg.Kafka.Backoff,
		}, log)
		if err != nil {
			return nil, err
		}
		return w, nil

	case config.DriverSarama:
		p, err := saramasink.New(ctx, saramasink.Config{
			Brokers:        brokers,
			Topic:          cfg.Stream.Destination,
			ClientID:       cfg.Kafka.ClientID,
			Aggregation:    cfg.Stream.Aggregation,
			RequiredAcks:   cfg.Kafka.Acks,
			Timeout:        cfg.Kafka.Timeout,
			Compression:    cfg.Kafka.Compression,
			FlushFrequency: cfg.Kafka.FlushFrequency,
			FlushMessages:  cfg.Kafka.FlushMessages,
			FlushBytes:     cfg.Kafka.FlushBytes,
			MaxRetries:     cfg.Kafka.MaxRetries,
			Backoff:        cfg.Kafka.Backoff,
			Tracing:        cfg.Telemetry.Enabled,
		}, log)
		if err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown sink driver %q", cfg.Stream.Driver)
	}
}
