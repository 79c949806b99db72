package safe

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/YaganovValera/cart-abandonment-producer/pkg/logger"
)

// Group — набор goroutine с защитой от panic и общим ожиданием.
type Group struct {
	wg     sync.WaitGroup
	cancel context.CancelFunc
	ctx    context.Context
	log    *logger.Logger
}

// New создает группу с контекстом и логгером.
func New(ctx context.Context, log *logger.Logger) *Group {
	ctx, cancel := context.WithCancel(ctx)
	return &Group{
		ctx:    ctx,
		cancel: cancel,
		log:    log.Named("safe"),
	}
}

// Go запускает защищённую goroutine. Ошибка или паника отменяют контекст группы.
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.recoverPanic()
		if err := fn(g.ctx); err != nil {
			g.log.Error("goroutine error", zap.Error(err))
			g.cancel()
		}
	}()
}

// Wait блокирует до завершения всех goroutine.
func (g *Group) Wait() {
	g.wg.Wait()
}

// Context возвращает связанный контекст.
func (g *Group) Context() context.Context {
	return g.ctx
}

// Cancel отменяет контекст группы.
func (g *Group) Cancel() {
	g.cancel()
}

func (g *Group) recoverPanic() {
	if r := recover(); r != nil {
		g.log.Error("panic recovered", zap.Any("error", r))
		g.cancel()
	}
}

// Call выполняет fn и гасит панику, чтобы чужой callback не уронил процесс.
// Возвращает true, если fn завершилась без паники.
func Call(log *logger.Logger, name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("callback panic recovered", zap.String("callback", name), zap.Any("error", r))
			ok = false
		}
	}()
	fn()
	return true
}
