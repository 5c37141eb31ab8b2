package runner

import "testing"

func TestPredictNumItersNeeded(t *testing.T) {
	tests := []struct {
		name       string
		warmupDone bool
		seconds    float64
		iters      int64
		want       int64
	}{
		{name: "exactly a tenth grows at most 10x", warmupDone: true, seconds: 0.05, iters: 100, want: 1000},
		{name: "significant aims 40% past", warmupDone: true, seconds: 0.1, iters: 100, want: 700},
		{name: "tiny probe", warmupDone: true, seconds: 0.0001, iters: 1, want: 10},
		{name: "clamped to ceiling", warmupDone: true, seconds: 0, iters: 100_000_000, want: MaxIterations},
		{name: "warmup threshold", warmupDone: false, seconds: 0.1, iters: 10, want: 28},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &instanceRunner{minTime: 0.5, minWarmupTime: 0.2, warmupDone: tt.warmupDone}
			got := r.predictNumItersNeeded(iterationResult{iters: tt.iters, seconds: tt.seconds})
			if got != tt.want {
				t.Errorf("predictNumItersNeeded(%v s, %d) = %d, want %d", tt.seconds, tt.iters, got, tt.want)
			}
		})
	}
}
