package normalize

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b     string
		expected float64
	}{
		{"", "", 1.0},
		{"abc", "abc", 1.0},
		{"abc", "", 0.0},
		{"", "abc", 0.0},
		{"kitten", "sitting", 1.0 - 3.0/7.0},
		{"ana", "anna", 0.75},
		{"joão", "joao", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"maria silva", "maria sylva"},
		{"answered", "atendida"},
		{"support", "suport"},
	}

	for _, p := range pairs {
		if Similarity(p[0], p[1]) != Similarity(p[1], p[0]) {
			t.Errorf("similarity not symmetric for %q and %q", p[0], p[1])
		}
	}
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "completely different"},
		{"x", "y"},
		{"são paulo", "sao paolo"},
	}

	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %f out of [0,1]", p[0], p[1], got)
		}
	}
}
