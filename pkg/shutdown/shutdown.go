package shutdown

import (
	"context"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/YaganovValera/cart-abandonment-producer/pkg/logger"
)

// OnSignal вызывает fn на каждый из сигналов sig, пока ctx не отменён.
// Возвращает функцию, снимающую подписку.
func OnSignal(ctx context.Context, fn func(os.Signal), sig ...os.Signal) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, sig...)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case s := <-sigCh:
				fn(s)
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

// GracefulShutdown выполняет shutdown-функцию с таймаутом.
// Используется для дренажа продьюсера и остановки серверов.
func GracefulShutdown(name string, timeout time.Duration, fn func(ctx context.Context) error, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	log.Info("shutdown: stopping " + name)
	if err := fn(ctx); err != nil {
		log.Error("shutdown: error in "+name, zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return err
	}
	log.Info("shutdown: "+name+" stopped cleanly", zap.Duration("elapsed", time.Since(start)))
	return nil
}
