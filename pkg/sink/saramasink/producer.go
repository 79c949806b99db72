// Package saramasink реализует sink.Sink поверх sarama.AsyncProducer.
package saramasink

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/dnwe/otelsarama"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/YaganovValera/cart-abandonment-producer/pkg/backoff"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/logger"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/safe"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/sink"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/telemetry"
)

const driver = "sarama"

var tracer = telemetry.Tracer("sink/sarama")

// envelope хранится в pending по указателю сообщения. Metadata не используется:
// otelsarama подменяет его своим span-ключом.
type envelope struct {
	cb       sink.Callback
	enqueued time.Time
}

// Producer — асинхронный sink на sarama.
type Producer struct {
	prod   sarama.AsyncProducer
	client sarama.Client
	topic  string
	log    *logger.Logger

	pending   sync.Map // *sarama.ProducerMessage → *envelope
	inflight  sink.InFlight
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
	group     *safe.Group
}

var _ sink.Sink = (*Producer)(nil)

// New подключается к кластеру с back-off, проверяет наличие топика и
// запускает диспетчеры подтверждений.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Producer, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log = log.Named("sarama-sink")

	sc, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}

	var client sarama.Client
	connect := func(ctx context.Context) error {
		sink.Metrics.ConnectAttempts.WithLabelValues(driver).Inc()
		c, err := sarama.NewClient(cfg.Brokers, sc)
		if err != nil {
			sink.Metrics.ConnectErrors.WithLabelValues(driver).Inc()
			return err
		}
		if _, err := c.Partitions(cfg.Topic); err != nil {
			_ = c.Close()
			sink.Metrics.ConnectErrors.WithLabelValues(driver).Inc()
			if errors.Is(err, sarama.ErrUnknownTopicOrPartition) {
				return backoff.Permanent(fmt.Errorf("topic %q: %w", cfg.Topic, err))
			}
			return err
		}
		client = c
		return nil
	}

	ctxConn, span := tracer.Start(ctx, "Connect",
		trace.WithAttributes(attribute.StringSlice("brokers", cfg.Brokers)))
	if err := backoff.Execute(ctxConn, "sarama-connect", cfg.Backoff, log, connect); err != nil {
		span.RecordError(err)
		span.End()
		log.Error("kafka connect failed", zap.Error(err))
		return nil, fmt.Errorf("sarama sink: connect: %w", err)
	}
	span.End()

	ap, err := sarama.NewAsyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sarama sink: new producer: %w", err)
	}

	p := newProducer(wrapTracing(sc, ap, cfg.Tracing), client, cfg.Topic, log)
	log.Info("kafka producer ready",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.Bool("aggregation", cfg.Aggregation),
	)
	return p, nil
}

// wrapTracing добавляет span на каждую запись, если включена трассировка.
func wrapTracing(sc *sarama.Config, ap sarama.AsyncProducer, enabled bool) sarama.AsyncProducer {
	if !enabled {
		return ap
	}
	return otelsarama.WrapAsyncProducer(sc, ap)
}

// newProducer собирает sink вокруг готового AsyncProducer (в тестах — mocks).
func newProducer(ap sarama.AsyncProducer, client sarama.Client, topic string, log *logger.Logger) *Producer {
	p := &Producer{
		prod:   ap,
		client: client,
		topic:  topic,
		log:    log,
		group:  safe.New(context.Background(), log),
	}
	p.group.Go(func(context.Context) error {
		for msg := range ap.Successes() {
			p.complete(msg, nil)
		}
		return nil
	})
	p.group.Go(func(context.Context) error {
		for perr := range ap.Errors() {
			p.complete(perr.Msg, perr.Err)
		}
		return nil
	})
	return p
}

// PublishAsync кладёт запись во входной канал продьюсера.
func (p *Producer) PublishAsync(ctx context.Context, key string, payload []byte, cb sink.Callback) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return sink.ErrClosed
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}

	p.pending.Store(msg, &envelope{cb: cb, enqueued: time.Now()})
	p.inflight.Add()
	sink.Metrics.InFlight.WithLabelValues(driver).Inc()
	select {
	case p.prod.Input() <- msg:
		sink.Metrics.Accepted.WithLabelValues(driver).Inc()
		return nil
	case <-ctx.Done():
		p.pending.Delete(msg)
		p.inflight.Done()
		sink.Metrics.InFlight.WithLabelValues(driver).Dec()
		return ctx.Err()
	}
}

func (p *Producer) complete(msg *sarama.ProducerMessage, err error) {
	defer p.inflight.Done()
	sink.Metrics.InFlight.WithLabelValues(driver).Dec()

	v, ok := p.pending.LoadAndDelete(msg)
	if !ok {
		p.log.Warn("completion for unknown message", zap.String("topic", msg.Topic))
		return
	}
	env := v.(*envelope)
	sink.Metrics.AckLatency.WithLabelValues(driver).Observe(time.Since(env.enqueued).Seconds())

	res := sink.Result{
		Destination:    msg.Topic,
		ShardID:        strconv.FormatInt(int64(msg.Partition), 10),
		SequenceNumber: strconv.FormatInt(msg.Offset, 10),
	}
	if err != nil {
		sink.Metrics.Failed.WithLabelValues(driver).Inc()
	} else {
		sink.Metrics.Acked.WithLabelValues(driver).Inc()
	}
	if env.cb != nil {
		safe.Call(p.log, "publish-completion", func() { env.cb(res, err) })
	}
}

// Flush ждёт, пока все принятые записи будут подтверждены или отклонены.
func (p *Producer) Flush(ctx context.Context) error {
	if err := p.inflight.Wait(ctx); err != nil {
		return fmt.Errorf("sarama sink: flush: %d record(s) pending: %w", p.inflight.Len(), err)
	}
	return nil
}

// Ping обновляет метаданные топика, проверяя доступность кластера.
func (p *Producer) Ping(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	_, span := tracer.Start(ctx, "Ping")
	defer span.End()
	if err := p.client.RefreshMetadata(p.topic); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Close закрывает продьюсер и клиента. AsyncClose, а не Close: sarama.Close
// сам вычитывает Successes()/Errors(), и callback'и бы потерялись.
func (p *Producer) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		p.prod.AsyncClose()
		p.group.Wait()

		if p.client != nil && !p.client.Closed() {
			if err := p.client.Close(); err != nil {
				p.log.Error("client close failed", zap.Error(err))
				if p.closeErr == nil {
					p.closeErr = err
				}
			}
		}
		p.log.Info("kafka producer closed")
	})
	return p.closeErr
}
