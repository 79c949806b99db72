// Package sink задаёт контракт асинхронной публикации в потоковое хранилище,
// не привязываясь к конкретному клиенту Kafka.
package sink

import (
	"context"
	"errors"
)

// ErrClosed возвращается PublishAsync после Close.
var ErrClosed = errors.New("sink: closed")

// Result описывает подтверждённую запись.
type Result struct {
	Destination    string // топик
	ShardID        string // партиция, выданная брокером
	SequenceNumber string // позиция записи внутри шарда (offset)
}

// Callback вызывается ровно один раз на каждую принятую запись, из goroutine
// самого sink'а. err != nil означает, что запись потеряна.
type Callback func(res Result, err error)

// Sink — асинхронный продьюсер с внутренним батчингом.
type Sink interface {
	// PublishAsync ставит запись в очередь и не ждёт подтверждения.
	// Блокируется только пока очередь клиента переполнена.
	// Ошибка означает, что запись не принята и cb вызван не будет.
	PublishAsync(ctx context.Context, key string, payload []byte, cb Callback) error
	// Flush ждёт подтверждения всех принятых записей или отмены ctx.
	Flush(ctx context.Context) error
	// Ping проверяет доступность кластера и топика.
	Ping(ctx context.Context) error
	// Close останавливает клиент; неподтверждённые записи могут быть потеряны.
	Close() error
}
