package bench

import (
	"fmt"
	"strings"
)

// TimeUnit selects the order of magnitude reported for times.
type TimeUnit int

const (
	Nanosecond TimeUnit = iota
	Microsecond
	Millisecond
	Second
)

// DefaultTimeUnit is used when neither the benchmark nor the run
// configuration picks one.
const DefaultTimeUnit = Millisecond

func (u TimeUnit) String() string {
	switch u {
	case Nanosecond:
		return "ns"
	case Microsecond:
		return "us"
	case Millisecond:
		return "ms"
	default:
		return "s"
	}
}

// Multiplier converts seconds into the unit.
func (u TimeUnit) Multiplier() float64 {
	switch u {
	case Nanosecond:
		return 1e9
	case Microsecond:
		return 1e6
	case Millisecond:
		return 1e3
	default:
		return 1
	}
}

// ParseTimeUnit accepts ns, us, ms and s.
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ns":
		return Nanosecond, nil
	case "us", "µs":
		return Microsecond, nil
	case "ms":
		return Millisecond, nil
	case "s":
		return Second, nil
	default:
		return 0, fmt.Errorf("unknown time unit %q (use ns, us, ms or s)", s)
	}
}

// Skipped records whether and how a run stopped early.
type Skipped int

const (
	NotSkipped Skipped = iota
	SkippedWithMessage
	SkippedWithError
)

func (s Skipped) String() string {
	switch s {
	case SkippedWithMessage:
		return "skipped"
	case SkippedWithError:
		return "error"
	default:
		return ""
	}
}

// StatisticUnit says how an aggregate value is to be read.
type StatisticUnit int

const (
	UnitTime StatisticUnit = iota
	UnitPercentage
)

func (u StatisticUnit) String() string {
	if u == UnitPercentage {
		return "percentage"
	}
	return "time"
}

// StatisticFunc reduces a series of samples to one value.
type StatisticFunc func(values []float64) float64

// Statistic is one aggregate computed over repetitions.
type Statistic struct {
	Name    string
	Compute StatisticFunc
	Unit    StatisticUnit
}

// BigO tags the growth curve of a benchmark family.
type BigO int

const (
	ONone BigO = iota
	O1
	ON
	ONSquared
	ONCubed
	OLogN
	ONLogN
	OAuto
	OLambda
)

// String returns the short curve notation used in reports.
func (o BigO) String() string {
	switch o {
	case O1:
		return "(1)"
	case ON:
		return "N"
	case ONSquared:
		return "N^2"
	case ONCubed:
		return "N^3"
	case OLogN:
		return "lgN"
	case ONLogN:
		return "NlgN"
	case OLambda:
		return "f(N)"
	default:
		return ""
	}
}

// ComplexityFunc is a user supplied growth curve.
type ComplexityFunc func(n int64) float64

// AggregationMode controls which reporters only see aggregates.
type AggregationMode int

const (
	AggregationUnspecified      AggregationMode = 0
	FileReportAggregatesOnly    AggregationMode = 1
	DisplayReportAggregatesOnly AggregationMode = 2
	ReportAggregatesOnly        AggregationMode = FileReportAggregatesOnly | DisplayReportAggregatesOnly
)
