// Package publisher гоняет бесконечный цикл: сгенерировать событие,
// сериализовать, отдать sink'у асинхронно, периодически притормозить.
package publisher

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/YaganovValera/cart-abandonment-producer/internal/metrics"
	"github.com/YaganovValera/cart-abandonment-producer/internal/model"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/logger"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/sink"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/telemetry"
)

// Generator — источник событий.
type Generator interface {
	Generate() model.CartAbandonmentEvent
}

// Encoder сериализует событие в payload.
type Encoder func(model.CartAbandonmentEvent) ([]byte, error)

// Config — параметры цикла.
type Config struct {
	BatchSize int           // пауза после каждых BatchSize итераций
	Pause     time.Duration // длительность паузы
	MaxEvents int64         // 0 — без ограничения
}

// Loop — цикл публикации. Один Run на экземпляр.
type Loop struct {
	gen       Generator
	enc       Encoder
	sink      sink.Sink
	pacer     *Pacer
	maxEvents int64
	log       *logger.Logger
	tracer    trace.Tracer

	stats Stats
}

// Option настраивает Loop.
type Option func(*Loop)

// WithEncoder подменяет сериализацию (по умолчанию model.Encode).
func WithEncoder(enc Encoder) Option {
	return func(l *Loop) { l.enc = enc }
}

func New(gen Generator, s sink.Sink, cfg Config, log *logger.Logger, opts ...Option) *Loop {
	l := &Loop{
		gen:       gen,
		enc:       model.Encode,
		sink:      s,
		pacer:     NewPacer(cfg.BatchSize, cfg.Pause),
		maxEvents: cfg.MaxEvents,
		log:       log.Named("publisher"),
		tracer:    telemetry.Tracer("cart-producer/publisher"),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Stats возвращает текущие счётчики.
func (l *Loop) Stats() Snapshot { return l.stats.Snapshot() }

// Interrupt будит паузу, если она идёт.
func (l *Loop) Interrupt() bool { return l.pacer.Interrupt() }

// Run крутит цикл до отмены ctx или до MaxEvents итераций.
// Отмена ctx — нормальное завершение, возвращается nil.
// Ошибка только если sink уже закрыт.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("publish loop started", zap.Int64("max_events", l.maxEvents))
	var n int64
	for {
		if ctx.Err() != nil {
			l.log.Info("publish loop stopped", zap.Int64("iterations", n))
			return nil
		}
		if l.maxEvents > 0 && n >= l.maxEvents {
			l.log.Info("max events reached", zap.Int64("iterations", n))
			return nil
		}

		if err := l.step(ctx); errors.Is(err, sink.ErrClosed) {
			return err
		}
		n++

		if l.pacer.Due(n) {
			interrupted, err := l.pacer.Wait(ctx)
			if err != nil {
				l.log.Info("publish loop stopped during pause", zap.Int64("iterations", n))
				return nil
			}
			if interrupted {
				l.stats.interrupts.Add(1)
				metrics.PauseInterrupts.Inc()
				l.log.Warn("pause interrupted, resuming", zap.Int64("iterations", n))
			}
		}
	}
}

// step — одна итерация. Ошибки кодирования и отказы sink'а логируются
// и учитываются, цикл продолжается.
func (l *Loop) step(ctx context.Context) error {
	ctx, span := l.tracer.Start(ctx, "publish")
	defer span.End()

	ev := l.gen.Generate()
	l.stats.generated.Add(1)
	metrics.EventsGenerated.Inc()
	metrics.CartItems.Observe(float64(len(ev.CartItems)))
	metrics.CartTotal.Observe(ev.Total().InexactFloat64())

	span.SetAttributes(
		attribute.String("customer_id", ev.CustomerID),
		attribute.Int("cart_items", len(ev.CartItems)),
	)

	payload, err := l.enc(ev)
	if err != nil {
		l.stats.encodeErrors.Add(1)
		metrics.EncodeErrors.Inc()
		l.log.WithContext(ctx).Error("encode event failed", zap.String("customer_id", ev.CustomerID), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode")
		return err
	}

	if err := l.sink.PublishAsync(ctx, ev.PartitionKey(), payload, l.completion(ev)); err != nil {
		l.stats.failed.Add(1)
		metrics.EventsFailed.Inc()
		if ctx.Err() == nil {
			l.log.WithContext(ctx).Error("publish rejected", eventFields(ev, zap.Error(err))...)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish")
		return err
	}
	l.stats.submitted.Add(1)
	metrics.EventsSubmitted.Inc()
	return nil
}

// completion создаёт callback на одну запись. Вызывается из goroutine sink'а.
func (l *Loop) completion(ev model.CartAbandonmentEvent) sink.Callback {
	return func(res sink.Result, err error) {
		if err != nil {
			l.stats.failed.Add(1)
			metrics.EventsFailed.Inc()
			l.log.Error("publish failed", eventFields(ev, zap.Error(err))...)
			return
		}
		l.stats.acked.Add(1)
		metrics.EventsAcked.Inc()
		l.log.Debug("record published",
			zap.String("customer_id", ev.CustomerID),
			zap.String("shard_id", res.ShardID),
			zap.String("sequence_number", res.SequenceNumber),
		)
	}
}

func eventFields(ev model.CartAbandonmentEvent, extra ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("customer_id", ev.CustomerID),
		zap.String("seller_id", ev.SellerID),
		zap.Int64("event_time", ev.EventTime),
		zap.Int("items", len(ev.CartItems)),
	}, extra...)
}
