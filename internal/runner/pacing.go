package runner

import (
	"context"

	"golang.org/x/time/rate"
)

// repetitionPacer spaces repetitions out to at most the configured rate.
type repetitionPacer struct {
	limiter *rate.Limiter
}

func newRepetitionPacer(opt Options) *repetitionPacer {
	if opt.MaxRepetitionRate <= 0 {
		return nil
	}
	return &repetitionPacer{limiter: opt.LimiterFactory(opt.MaxRepetitionRate)}
}

func (p *repetitionPacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
