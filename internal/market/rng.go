package market

import (
	"hash/fnv"
	"math"
)

// Stream is a seedable PCG-XSH-RR pseudo-random stream. Every instrument owns
// one Stream for the whole life of a session, so a series can be extended
// indefinitely and stay bit-reproducible for a given seed. Streams are not
// safe for concurrent use; the engine is single-writer by design.
type Stream struct {
	state uint64
	inc   uint64

	// spare gaussian value (Box-Muller polar)
	hasSpare bool
	spare    float64
}

// NewStream creates a stream from a 64-bit seed.
func NewStream(seed uint64) *Stream {
	s := &Stream{}
	// PCG requires an odd increment
	s.inc = seed<<1 | 1
	s.step()
	s.state += seed
	s.step()
	return s
}

// StreamSeed combines the session seed with a stable FNV-1a hash of a label
// (instrument id or generator name). Runtime object hashes are not stable
// across builds, so the hash is always computed over the label bytes.
func StreamSeed(sessionSeed int64, label string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(label))
	return uint64(sessionSeed) ^ h.Sum64()
}

func (s *Stream) step() {
	s.state = s.state*6364136223846793005 + s.inc
}

func (s *Stream) Uint32() uint32 {
	old := s.state
	s.step()
	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return (xorshifted >> rot) | (xorshifted << ((-rot) & 31))
}

// Float64 returns a uniform float64 in [0, 1).
func (s *Stream) Float64() float64 {
	return float64(s.Uint32()) / (1 << 32)
}

// Range returns a uniform float64 in [lo, hi).
func (s *Stream) Range(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + s.Float64()*(hi-lo)
}

// Intn returns a uniform int in [0, n).
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.Uint32() % uint32(n))
}

// IntRange returns a uniform int in [min, max].
func (s *Stream) IntRange(min, max int) int {
	if min >= max {
		return min
	}
	return min + s.Intn(max-min+1)
}

// Range64 returns a uniform int64 in [min, max].
func (s *Stream) Range64(min, max int64) int64 {
	if min >= max {
		return min
	}
	span := uint64(max - min + 1)
	v := uint64(s.Uint32())<<32 | uint64(s.Uint32())
	return min + int64(v%span)
}

// Norm returns a normal variate with the given mean and standard deviation,
// using the polar Box-Muller transform.
func (s *Stream) Norm(mean, stddev float64) float64 {
	if s.hasSpare {
		s.hasSpare = false
		return mean + stddev*s.spare
	}
	var u, v, q float64
	for {
		u = s.Float64()*2 - 1
		v = s.Float64()*2 - 1
		q = u*u + v*v
		if q > 0 && q < 1 {
			break
		}
	}
	q = math.Sqrt(-2 * math.Log(q) / q)
	s.spare = v * q
	s.hasSpare = true
	return mean + stddev*u*q
}

// WeightedIndex picks an index from a cumulative scan of weights. The first
// boundary crossed wins; callers rely on the comparison order.
func (s *Stream) WeightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	target := s.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if target < cumulative {
			return i
		}
	}
	return len(weights) - 1
}
