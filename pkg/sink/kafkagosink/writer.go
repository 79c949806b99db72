// Package kafkagosink реализует sink.Sink поверх асинхронного kafka.Writer
// из segmentio/kafka-go.
package kafkagosink

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/YaganovValera/cart-abandonment-producer/pkg/backoff"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/logger"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/safe"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/sink"
)

const driver = "kafkago"

// Config — настройки kafka.Writer.
type Config struct {
	Brokers      []string
	Topic        string
	ClientID     string
	Aggregation  bool          // false → BatchSize = 1
	BatchSize    int           // записей в батче при Aggregation
	BatchTimeout time.Duration // максимум ожидания заполнения батча
	BatchBytes   int64
	RequiredAcks string // "all" | "leader" | "none"
	Compression  string // "none" | "gzip" | "snappy" | "lz4" | "zstd"
	WriteTimeout time.Duration
	MaxAttempts  int
	DialTimeout  time.Duration
	Backoff      backoff.Config
}

func (c *Config) applyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "cart-producer"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 50 * time.Millisecond
	}
	if c.RequiredAcks == "" {
		c.RequiredAcks = "all"
	}
	if c.Compression == "" {
		c.Compression = "none"
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
}

func (c Config) validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka-go sink: brokers required")
	}
	if c.Topic == "" {
		return fmt.Errorf("kafka-go sink: topic required")
	}
	return nil
}

func parseAcks(s string) (kafka.RequiredAcks, error) {
	switch strings.ToLower(s) {
	case "all":
		return kafka.RequireAll, nil
	case "leader":
		return kafka.RequireOne, nil
	case "none":
		return kafka.RequireNone, nil
	default:
		return 0, fmt.Errorf("kafka-go sink: invalid RequiredAcks %q", s)
	}
}

func parseCompression(s string) (kafka.Compression, error) {
	switch strings.ToLower(s) {
	case "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	default:
		return 0, fmt.Errorf("kafka-go sink: invalid Compression %q", s)
	}
}

// messageWriter — часть kafka.Writer, нужная sink'у.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// envelope едет в kafka.Message.WriterData до Completion.
type envelope struct {
	cb       sink.Callback
	enqueued time.Time
}

// Writer — асинхронный sink на kafka-go.
type Writer struct {
	w       messageWriter
	topic   string
	brokers []string
	dialer  *kafka.Dialer
	log     *logger.Logger

	inflight  sink.InFlight
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

var _ sink.Sink = (*Writer)(nil)

// New проверяет брокеры и топик с back-off и создаёт асинхронный writer.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Writer, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	acks, err := parseAcks(cfg.RequiredAcks)
	if err != nil {
		return nil, err
	}
	comp, err := parseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	log = log.Named("kafkago-sink")

	s := &Writer{
		topic:   cfg.Topic,
		brokers: cfg.Brokers,
		dialer:  &kafka.Dialer{Timeout: cfg.DialTimeout, ClientID: cfg.ClientID},
		log:     log,
	}

	connect := func(ctx context.Context) error {
		sink.Metrics.ConnectAttempts.WithLabelValues(driver).Inc()
		if err := s.Ping(ctx); err != nil {
			sink.Metrics.ConnectErrors.WithLabelValues(driver).Inc()
			if errors.Is(err, kafka.UnknownTopicOrPartition) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}
	if err := backoff.Execute(ctx, "kafkago-connect", cfg.Backoff, log, connect); err != nil {
		log.Error("kafka connect failed", zap.Error(err))
		return nil, fmt.Errorf("kafka-go sink: connect: %w", err)
	}

	batchSize := cfg.BatchSize
	if !cfg.Aggregation {
		batchSize = 1
	}
	s.w = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    batchSize,
		BatchTimeout: cfg.BatchTimeout,
		BatchBytes:   cfg.BatchBytes,
		RequiredAcks: acks,
		Compression:  comp,
		WriteTimeout: cfg.WriteTimeout,
		MaxAttempts:  cfg.MaxAttempts,
		Async:        true,
		Completion:   s.onCompletion,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Warn("kafka-go: " + fmt.Sprintf(msg, args...))
		}),
	}

	log.Info("kafka writer ready",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.Int("batch_size", batchSize),
	)
	return s, nil
}

// PublishAsync ставит запись в очередь writer'а.
func (s *Writer) PublishAsync(ctx context.Context, key string, payload []byte, cb sink.Callback) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return sink.ErrClosed
	}

	msg := kafka.Message{
		Key:        []byte(key),
		Value:      payload,
		WriterData: &envelope{cb: cb, enqueued: time.Now()},
	}
	s.inflight.Add()
	sink.Metrics.InFlight.WithLabelValues(driver).Inc()
	if err := s.w.WriteMessages(ctx, msg); err != nil {
		s.inflight.Done()
		sink.Metrics.InFlight.WithLabelValues(driver).Dec()
		return err
	}
	sink.Metrics.Accepted.WithLabelValues(driver).Inc()
	return nil
}

// onCompletion вызывается kafka-go на каждый отправленный батч.
func (s *Writer) onCompletion(messages []kafka.Message, err error) {
	for _, msg := range messages {
		s.complete(msg, err)
	}
}

func (s *Writer) complete(msg kafka.Message, err error) {
	defer s.inflight.Done()
	sink.Metrics.InFlight.WithLabelValues(driver).Dec()

	env, ok := msg.WriterData.(*envelope)
	if !ok {
		s.log.Warn("message without envelope", zap.ByteString("key", msg.Key))
		return
	}
	sink.Metrics.AckLatency.WithLabelValues(driver).Observe(time.Since(env.enqueued).Seconds())
	if err != nil {
		sink.Metrics.Failed.WithLabelValues(driver).Inc()
	} else {
		sink.Metrics.Acked.WithLabelValues(driver).Inc()
	}

	topic := msg.Topic
	if topic == "" {
		topic = s.topic
	}
	res := sink.Result{
		Destination:    topic,
		ShardID:        strconv.Itoa(msg.Partition),
		SequenceNumber: strconv.FormatInt(msg.Offset, 10),
	}
	if env.cb != nil {
		safe.Call(s.log, "publish-completion", func() { env.cb(res, err) })
	}
}

// Flush ждёт Completion по всем принятым записям.
func (s *Writer) Flush(ctx context.Context) error {
	if err := s.inflight.Wait(ctx); err != nil {
		return fmt.Errorf("kafka-go sink: flush: %d record(s) pending: %w", s.inflight.Len(), err)
	}
	return nil
}

// Ping читает метаданные партиций топика с первого доступного брокера.
func (s *Writer) Ping(ctx context.Context) error {
	var lastErr error
	for _, addr := range s.brokers {
		conn, err := s.dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = conn.ReadPartitions(s.topic)
		_ = conn.Close()
		if err != nil {
			return fmt.Errorf("topic %q: %w", s.topic, err)
		}
		return nil
	}
	return fmt.Errorf("no broker reachable: %w", lastErr)
}

// Close закрывает writer; kafka-go дописывает незавершённые батчи.
func (s *Writer) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		if err := s.w.Close(); err != nil {
			s.log.Error("writer close failed", zap.Error(err))
			s.closeErr = err
		}
		s.log.Info("kafka writer closed")
	})
	return s.closeErr
}
