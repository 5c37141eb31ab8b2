package output

import (
	"fmt"
	"math"
	"strconv"

	"github.com/torosent/crankbench/internal/counters"
)

// formatTime renders a per-iteration time in a fixed ten column field,
// keeping about three significant digits for small values.
func formatTime(v float64) string {
	switch {
	case v < 1:
		return fmt.Sprintf("%10.3f", v)
	case v < 10:
		return fmt.Sprintf("%10.2f", v)
	case v < 100:
		return fmt.Sprintf("%10.1f", v)
	case v < 1e10:
		return fmt.Sprintf("%10.0f", v)
	default:
		return fmt.Sprintf("%10.0e", v)
	}
}

var (
	largePrefixes = []string{"k", "M", "G", "T", "P", "E", "Z", "Y"}
	smallPrefixes = []string{"m", "u", "n", "p", "f", "a", "z", "y"}
)

// humanReadable prints v with a k/M/G (or Ki/Mi/Gi) suffix.
func humanReadable(v float64, oneK counters.OneK) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', 6, 64)
	}
	base := 1000.0
	binary := oneK == counters.OneK1024
	if binary {
		base = 1024
	}

	abs := math.Abs(v)
	prefix := ""
	switch {
	case abs >= base:
		i := -1
		for abs >= base && i < len(largePrefixes)-1 {
			abs /= base
			v /= base
			i++
		}
		prefix = largePrefixes[i]
		if binary {
			prefix += "i"
		}
	case abs < 1:
		i := -1
		for abs < 1 && i < len(smallPrefixes)-1 {
			abs *= 1000
			v *= 1000
			i++
		}
		prefix = smallPrefixes[i]
	}
	return strconv.FormatFloat(v, 'g', 6, 64) + prefix
}
