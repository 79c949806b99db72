package publisher

import "sync/atomic"

// Stats — счётчики цикла. Инкрементируются и из callback'ов sink'а.
type Stats struct {
	generated    atomic.Int64
	submitted    atomic.Int64
	acked        atomic.Int64
	failed       atomic.Int64
	encodeErrors atomic.Int64
	interrupts   atomic.Int64
}

// Snapshot — значения счётчиков на момент вызова.
type Snapshot struct {
	Generated    int64
	Submitted    int64
	Acked        int64
	Failed       int64
	EncodeErrors int64
	Interrupts   int64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Generated:    s.generated.Load(),
		Submitted:    s.submitted.Load(),
		Acked:        s.acked.Load(),
		Failed:       s.failed.Load(),
		EncodeErrors: s.encodeErrors.Load(),
		Interrupts:   s.interrupts.Load(),
	}
}
