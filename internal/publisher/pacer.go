package publisher

import (
	"context"
	"time"
)

// Pacer делает паузу после каждых every итераций.
type Pacer struct {
	every int64
	pause time.Duration
	wake  chan struct{}
}

// NewPacer: every <= 0 или pause <= 0 отключают паузы.
func NewPacer(every int, pause time.Duration) *Pacer {
	return &Pacer{every: int64(every), pause: pause, wake: make(chan struct{})}
}

// Due сообщает, нужна ли пауза после n-й итерации.
func (p *Pacer) Due(n int64) bool {
	return p.every > 0 && p.pause > 0 && n > 0 && n%p.every == 0
}

// Wait спит pause. interrupted=true, если пауза прервана Interrupt.
// Ошибка — только отмена ctx.
func (p *Pacer) Wait(ctx context.Context) (interrupted bool, err error) {
	t := time.NewTimer(p.pause)
	defer t.Stop()

	select {
	case <-t.C:
		return false, nil
	case <-p.wake:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Interrupt будит текущую паузу. Вне паузы ничего не делает и возвращает false.
func (p *Pacer) Interrupt() bool {
	select {
	case p.wake <- struct{}{}:
		return true
	default:
		return false
	}
}
