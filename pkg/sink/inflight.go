package sink

import (
	"context"
	"sync"
)

// InFlight считает записи, принятые sink'ом, но ещё не подтверждённые.
type InFlight struct {
	mu   sync.Mutex
	n    int64
	idle chan struct{}
}

// Add отмечает новую запись.
func (f *InFlight) Add() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		f.idle = make(chan struct{})
	}
	f.n++
}

// Done отмечает завершение записи (успех или ошибка).
func (f *InFlight) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		return
	}
	f.n--
	if f.n == 0 {
		close(f.idle)
	}
}

// Len возвращает текущее число неподтверждённых записей.
func (f *InFlight) Len() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

// Wait блокирует, пока счётчик не опустится до нуля или не отменится ctx.
func (f *InFlight) Wait(ctx context.Context) error {
	f.mu.Lock()
	if f.n == 0 {
		f.mu.Unlock()
		return nil
	}
	idle := f.idle
	f.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
