package generator

import (
	"math/rand/v2"
	"sync"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// Source — источник равномерных случайных чисел. Реализация обязана быть
// безопасной для конкурентного использования.
type Source interface {
	// IntN возвращает число из [0, n). n > 0.
	IntN(n int) int
	// Int64N возвращает число из [0, n). n > 0.
	Int64N(n int64) int64
}

type globalSource struct{}

func (globalSource) IntN(n int) int       { return rand.IntN(n) }
func (globalSource) Int64N(n int64) int64 { return rand.Int64N(n) }

// DefaultSource — общий для процесса генератор math/rand/v2.
func DefaultSource() Source { return globalSource{} }

// SeededSource — воспроизводимый источник: одинаковый seed даёт одинаковую
// последовательность при однопоточной генерации.
type SeededSource struct {
	faker *gofakeit.Faker

	mu sync.Mutex // rand.Rand.Read не потокобезопасен
}

// NewSeededSource создаёт источник на gofakeit с фиксированным seed.
func NewSeededSource(seed int64) *SeededSource {
	return &SeededSource{faker: gofakeit.New(seed)}
}

func (s *SeededSource) IntN(n int) int       { return s.faker.Rand.Intn(n) }
func (s *SeededSource) Int64N(n int64) int64 { return s.faker.Rand.Int63n(n) }

// UUID выдаёт детерминированный UUIDv4 из того же потока случайных байт.
func (s *SeededSource) UUID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := uuid.NewRandomFromReader(s.faker.Rand)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
