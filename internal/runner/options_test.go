package runner

import (
	"context"
	"testing"

	"golang.org/x/time/rate"
)

func TestOptionsNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Options
		validate func(*testing.T, Options)
	}{
		{
			name:  "defaults",
			input: Options{},
			validate: func(t *testing.T, o Options) {
				if o.Repetitions != 1 {
					t.Errorf("Repetitions = %d, want 1", o.Repetitions)
				}
				if o.RandomSeed == 0 {
					t.Error("RandomSeed should be non-zero")
				}
				if o.Display == nil || o.Logger == nil || o.Tracer == nil || o.TimeSource == nil || o.Pool == nil {
					t.Error("collaborators should be defaulted")
				}
				if o.LimiterFactory == nil {
					t.Error("LimiterFactory should not be nil")
				}
			},
		},
		{
			name: "negative values corrected",
			input: Options{
				MinTime:           -1,
				MinWarmupTime:     -2,
				Repetitions:       -3,
				MaxRepetitionRate: -4,
			},
			validate: func(t *testing.T, o Options) {
				if o.MinTime != 0 || o.MinWarmupTime != 0 {
					t.Errorf("times = %v/%v, want 0", o.MinTime, o.MinWarmupTime)
				}
				if o.Repetitions != 1 {
					t.Errorf("Repetitions = %d, want 1", o.Repetitions)
				}
				if o.MaxRepetitionRate != 0 {
					t.Errorf("MaxRepetitionRate = %v, want 0", o.MaxRepetitionRate)
				}
			},
		},
		{
			name:  "explicit seed kept",
			input: Options{RandomSeed: 42},
			validate: func(t *testing.T, o Options) {
				if o.RandomSeed != 42 {
					t.Errorf("RandomSeed = %d, want 42", o.RandomSeed)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.input
			opts.normalize()
			tt.validate(t, opts)
		})
	}
}

func TestLimiterFactory(t *testing.T) {
	opts := Options{}
	opts.normalize()

	limiter := opts.LimiterFactory(0)
	if limiter.Limit() != rate.Inf {
		t.Errorf("Limit(0) = %v, want Inf", limiter.Limit())
	}

	limiter = opts.LimiterFactory(20)
	if limiter.Limit() != rate.Limit(20) {
		t.Errorf("Limit(20) = %v, want 20", limiter.Limit())
	}
	if limiter.Burst() != 1 {
		t.Errorf("Burst = %d, want 1", limiter.Burst())
	}
}

func TestPacerDisabledWithoutRate(t *testing.T) {
	opts := Options{}
	opts.normalize()
	if p := newRepetitionPacer(opts); p != nil {
		t.Fatal("expected nil pacer when no rate is set")
	}
	var p *repetitionPacer
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("nil pacer Wait() = %v", err)
	}
}
