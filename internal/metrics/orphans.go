package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// OrphanCounter reports registrations whose event no longer exists.
type OrphanCounter interface {
	CountOrphaned(ctx context.Context) (int64, error)
}

// OrphanReading is the outcome of one sample.
type OrphanReading struct {
	Count     int64
	Err       error
	SampledAt time.Time
}

// OrphanSampler refreshes the OrphanedRegistrations gauge on an interval
// and keeps the latest reading for the health endpoint. It only observes;
// nothing is repaired.
type OrphanSampler struct {
	counter OrphanCounter
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	last    OrphanReading
	sampled bool
}

func NewOrphanSampler(counter OrphanCounter, logger zerolog.Logger) *OrphanSampler {
	return &OrphanSampler{
		counter: counter,
		logger:  logger.With().Str("component", "orphan_sampler").Logger(),
		now:     time.Now,
	}
}

// Last returns the most recent reading. ok is false until the first sample
// has completed.
func (s *OrphanSampler) Last() (reading OrphanReading, ok bool) {
	if s == nil {
		return OrphanReading{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.sampled
}

func (s *OrphanSampler) store(reading OrphanReading) {
	s.mu.Lock()
	s.last = reading
	s.sampled = true
	s.mu.Unlock()
}

// Start blocks until ctx is done.
func (s *OrphanSampler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Sample(ctx)
	for {
		select {
		case <-ticker.C:
			s.Sample(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Sample takes one reading and returns it.
func (s *OrphanSampler) Sample(ctx context.Context) int64 {
	sampleCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := s.counter.CountOrphaned(sampleCtx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("orphaned registration count failed")
		s.store(OrphanReading{Err: err, SampledAt: s.now()})
		return -1
	}

	OrphanedRegistrations.Set(float64(count))
	s.store(OrphanReading{Count: count, SampledAt: s.now()})
	if count > 0 {
		s.logger.Warn().Int64("orphaned_registrations", count).Msg("registrations reference deleted events")
	}
	return count
}
