package market

import "testing"

func TestStreamDeterminism(t *testing.T) {
	a := NewStream(42)
	b := NewStream(42)
	for i := 0; i < 1000; i++ {
		if a.Uint32() != b.Uint32() {
			t.Fatalf("determinism broken at draw %d", i)
		}
	}
}

func TestStreamSeedsDiverge(t *testing.T) {
	a := NewStream(42)
	b := NewStream(43)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Uint32() == b.Uint32() {
			same++
		}
	}
	if same > 5 {
		t.Fatalf("adjacent seeds produced %d/100 identical draws", same)
	}
}

func TestStreamSeedStable(t *testing.T) {
	if StreamSeed(12345, "ABCDEF") != StreamSeed(12345, "ABCDEF") {
		t.Fatal("StreamSeed is not stable for identical inputs")
	}
	if StreamSeed(12345, "ABCDEF") == StreamSeed(12345, "ABCDEG") {
		t.Fatal("StreamSeed collided on adjacent labels")
	}
	if StreamSeed(12345, "ABCDEF") == StreamSeed(12346, "ABCDEF") {
		t.Fatal("StreamSeed ignored the session seed")
	}
}

func TestFloat64Bounds(t *testing.T) {
	s := NewStream(7)
	for i := 0; i < 10000; i++ {
		v := s.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64() = %f, out of [0, 1)", v)
		}
	}
}

func TestRange64Bounds(t *testing.T) {
	s := NewStream(7)
	for i := 0; i < 10000; i++ {
		v := s.Range64(1_200, 4_500)
		if v < 1_200 || v > 4_500 {
			t.Fatalf("Range64(1200, 4500) = %d out of bounds", v)
		}
	}
	if s.Range64(9, 9) != 9 {
		t.Fatal("degenerate Range64 should return min")
	}
}

func TestNormRoughShape(t *testing.T) {
	s := NewStream(99)
	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		sum += s.Norm(1.0, 0.01)
	}
	mean := sum / n
	if mean < 0.995 || mean > 1.005 {
		t.Fatalf("sample mean %f too far from 1.0", mean)
	}
}

func TestWeightedIndexRespectsWeights(t *testing.T) {
	s := NewStream(123)
	weights := []float64{0.25, 0.30, 0.30, 0.15}
	counts := make([]int, len(weights))
	const n = 40000
	for i := 0; i < n; i++ {
		idx := s.WeightedIndex(weights)
		if idx < 0 || idx >= len(weights) {
			t.Fatalf("index %d out of range", idx)
		}
		counts[idx]++
	}
	for i, w := range weights {
		got := float64(counts[i]) / n
		if got < w-0.03 || got > w+0.03 {
			t.Fatalf("bucket %d: frequency %f, want ~%f", i, got, w)
		}
	}
}
