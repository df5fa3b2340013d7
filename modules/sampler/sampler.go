package sampler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/oblq/syspower/modules/smc"
)

// Source is a readable key, *smc.KeyHandle implements it.
type Source interface {
	Key() smc.Key
	ReadValue() (float64, error)
}

// Sample is a single reading. Valid is false when the key could not be
// read, in which case Value is 0 and Err says why.
type Sample struct {
	Time  time.Time `cbor:"1,keyasint"`
	Key   string    `cbor:"2,keyasint"`
	Value float64   `cbor:"3,keyasint"`
	Valid bool      `cbor:"4,keyasint"`
	Err   string    `cbor:"5,keyasint,omitempty"`
}

// Sink receives the samples of every poll round.
type Sink interface {
	Write(samples []Sample) error
}

// Sampler reads its sources at a fixed interval.
type Sampler struct {
	interval time.Duration
	sources  []Source
	sink     Sink
	log      *zap.Logger

	now func() time.Time
}

func New(interval time.Duration, sink Sink, sources ...Source) *Sampler {
	return &Sampler{
		interval: interval,
		sources:  sources,
		sink:     sink,
		log:      zap.NewNop(),
		now:      time.Now,
	}
}

// WithLogger sets the logger used to report sink failures.
func (s *Sampler) WithLogger(l *zap.Logger) *Sampler {
	if l != nil {
		s.log = l
	}
	return s
}

// Poll reads every source once, in order.
func (s *Sampler) Poll() []Sample {
	samples := make([]Sample, 0, len(s.sources))
	for _, src := range s.sources {
		v, err := src.ReadValue()
		sample := Sample{Time: s.now(), Key: src.Key().String(), Value: v, Valid: err == nil}
		if err != nil {
			sample.Err = err.Error()
		}
		samples = append(samples, sample)
	}
	return samples
}

// Once polls a single round and writes it to the sink.
func (s *Sampler) Once() error {
	return s.sink.Write(s.Poll())
}

// Run polls immediately and then on every tick until ctx is done.
// Sink errors are logged, they do not stop the loop.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.emit(s.Poll())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Sampler) emit(samples []Sample) {
	if err := s.sink.Write(samples); err != nil {
		s.log.Error("unable to write samples", zap.Error(err))
	}
}
