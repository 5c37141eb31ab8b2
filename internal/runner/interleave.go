package runner

import "math"

// xorshift128p is the xorshift128+ generator. Its output is fully
// determined by the seed so an interleaved schedule can be replayed.
type xorshift128p struct {
	s0, s1 uint64
}

func newXorshift(seed uint64) *xorshift128p {
	x := &xorshift128p{}
	x.s0 = splitmix64(&seed)
	x.s1 = splitmix64(&seed)
	if x.s0 == 0 && x.s1 == 0 {
		x.s1 = 1
	}
	return x
}

func splitmix64(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (x *xorshift128p) next() uint64 {
	a, b := x.s0, x.s1
	x.s0 = b
	a ^= a << 23
	a ^= a >> 17
	a ^= b ^ (b >> 26)
	x.s1 = a
	return a + b
}

// uint64n returns a uniform value in [0, n).
func (x *xorshift128p) uint64n(n uint64) uint64 {
	limit := math.MaxUint64 - math.MaxUint64%n
	for {
		if v := x.next(); v < limit {
			return v % n
		}
	}
}

// shuffle permutes s in place with a Fisher-Yates pass.
func shuffle(s []int, seed uint64) {
	rng := newXorshift(seed)
	for i := len(s) - 1; i > 0; i-- {
		j := int(rng.uint64n(uint64(i + 1)))
		s[i], s[j] = s[j], s[i]
	}
}

// repetitionSchedule lists each runner index once per repetition it owes.
func repetitionSchedule(repeats []int, interleave bool, seed uint64) []int {
	total := 0
	for _, n := range repeats {
		total += n
	}
	order := make([]int, 0, total)
	for idx, n := range repeats {
		for i := 0; i < n; i++ {
			order = append(order, idx)
		}
	}
	if interleave {
		shuffle(order, seed)
	}
	return order
}
