package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/YaganovValera/cart-abandonment-producer/internal/config"
	"github.com/YaganovValera/cart-abandonment-producer/internal/generator"
	"github.com/YaganovValera/cart-abandonment-producer/internal/metrics"
	"github.com/YaganovValera/cart-abandonment-producer/internal/publisher"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/httpserver"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/logger"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/shutdown"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/sink"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/telemetry"
)

// Run собирает продьюсер и крутит цикл публикации до отмены ctx
// или до publisher.max_events. Затем дренирует sink и закрывает его.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	metrics.Register(nil)

	if cfg.Telemetry.Enabled {
		shutdownTracer, err := telemetry.InitTracer(ctx, cfg.TracerConfig(), log)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer shutdownSafe(ctx, "telemetry", func() error { return shutdownTracer(context.Background()) }, log)
	}

	// 1) Каталог и генератор
	cat, err := cfg.BuildCatalog()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	src := generator.DefaultSource()
	if cfg.Generator.Seed != 0 {
		src = generator.NewSeededSource(cfg.Generator.Seed)
	}
	gen, err := generator.New(cat, generator.Options{Policy: cfg.CustomerPolicy(), Source: src})
	if err != nil {
		return fmt.Errorf("generator init: %w", err)
	}

	// 2) Sink
	snk, err := openSink(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("sink init: %w", err)
	}
	defer shutdownSafe(ctx, "sink", snk.Close, log)

	log.Info("producer configured",
		zap.String("destination", cfg.Stream.Destination),
		zap.String("region", cfg.Stream.Region),
		zap.Bool("aggregation", cfg.Stream.Aggregation),
		zap.String("driver", cfg.Stream.Driver),
		zap.Stringer("customer_policy", gen.Policy()),
		zap.Int("catalog_size", cat.Size()),
	)

	loop := publisher.New(gen, snk, publisher.Config{
		BatchSize: cfg.Pacing.BatchSize,
		Pause:     cfg.Pacing.Pause,
		MaxEvents: cfg.Publisher.MaxEvents,
	}, log)

	// SIGUSR1 прерывает текущую паузу
	stopSig := shutdown.OnSignal(ctx, func(os.Signal) {
		if !loop.Interrupt() {
			log.Debug("interrupt signal outside of pause ignored")
		}
	}, syscall.SIGUSR1)
	defer stopSig()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	// 3) HTTP
	if cfg.HTTP.Enabled {
		srv, err := newHTTPServer(cfg.HTTP, snk, log)
		if err != nil {
			return fmt.Errorf("httpserver init: %w", err)
		}
		g.Go(func() error { return srv.Start(gctx) })
	}

	// 4) Основной цикл; его завершение останавливает и HTTP
	g.Go(func() error {
		defer cancel()
		return loop.Run(gctx)
	})

	runErr := g.Wait()

	// 5) Дренаж: ждём callback'и по уже принятым записям
	if err := shutdown.GracefulShutdown("sink-drain", cfg.Publisher.DrainTimeout, snk.Flush, log); err != nil {
		log.Warn("drain incomplete", zap.Error(err))
	}
	st := loop.Stats()
	log.Info("publish stats",
		zap.Int64("generated", st.Generated),
		zap.Int64("submitted", st.Submitted),
		zap.Int64("acked", st.Acked),
		zap.Int64("failed", st.Failed),
		zap.Int64("encode_errors", st.EncodeErrors),
		zap.Int64("interrupts", st.Interrupts),
	)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func newHTTPServer(c config.HTTPConfig, snk sink.Sink, log *logger.Logger) (*httpserver.Server, error) {
	return httpserver.New(
		c.ServerConfig(),
		snk.Ping,
		log,
		httpserver.RecoverMiddleware(log),
		httpserver.CORSMiddleware(),
	)
}

// shutdownSafe оборачивает вызов Close()/Shutdown() с логированием
func shutdownSafe(ctx context.Context, name string, fn func() error, log *logger.Logger) {
	log.WithContext(ctx).Info(fmt.Sprintf("%s: shutting down", name))
	if err := fn(); err != nil {
		log.WithContext(ctx).Error(fmt.Sprintf("%s shutdown error", name), zap.Error(err))
	} else {
		log.WithContext(ctx).Info(fmt.Sprintf("%s: shutdown complete", name))
	}
}
