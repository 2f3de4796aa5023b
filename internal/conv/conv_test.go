package conv

import (
	"errors"
	"math/rand"
	"testing"

	"specbroad/internal/testutil"
)

// naive is the O(n*m) reference implementation.
func naive(signal, kernel []float64) []float64 {
	out := make([]float64, len(signal)+len(kernel)-1)
	for i, s := range signal {
		for j, k := range kernel {
			out[i+j] += s * k
		}
	}
	return out
}

func randomSlice(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

func TestFullDirectPath(t *testing.T) {
	signal := []float64{1, 2, 3, 4}
	kernel := []float64{0.5, -1}

	got, err := Full(signal, kernel)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, got, naive(signal, kernel), 1e-12)
}

func TestFullMatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	tests := []struct {
		name string
		n, m int
	}{
		{"short kernel direct", 300, 8},
		{"threshold kernel", 300, 64},
		{"long kernel fft", 300, 200},
		{"kernel longer than signal", 50, 400},
		{"both long", 1000, 777},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := randomSlice(rng, tt.n)
			kernel := randomSlice(rng, tt.m)

			got, err := Full(signal, kernel)
			if err != nil {
				t.Fatal(err)
			}

			want := naive(signal, kernel)
			if len(got) != tt.n+tt.m-1 {
				t.Fatalf("length = %d, want %d", len(got), tt.n+tt.m-1)
			}

			testutil.RequireSliceNearlyEqual(t, got, want, 1e-9)
		})
	}
}

func TestFullCommutes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := randomSlice(rng, 120)
	b := randomSlice(rng, 90)

	ab, err := Full(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := Full(b, a)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, ab, ba, 1e-9)
}

func TestFullErrors(t *testing.T) {
	if _, err := Full(nil, []float64{1}); !errors.Is(err, ErrEmptySignal) {
		t.Fatalf("err = %v, want ErrEmptySignal", err)
	}
	if _, err := Full([]float64{1}, nil); !errors.Is(err, ErrEmptyKernel) {
		t.Fatalf("err = %v, want ErrEmptyKernel", err)
	}
}
