package sweep

import (
	"errors"
	"reflect"
	"testing"
)

// TestStrengths verifies the grid of strengths for several ranges.
func TestStrengths(t *testing.T) {
	cases := []struct {
		name             string
		start, end, step float64
		want             []float64
	}{
		{"default range", -0.3, 0.3, 0.1, []float64{-0.3, -0.2, -0.1, 0, 0.1, 0.2, 0.3}},
		{"single point", 0.5, 0.5, 0.1, []float64{0.5}},
		{"uneven end", 0, 0.25, 0.1, []float64{0, 0.1, 0.2}},
		{"fine step", -0.05, 0.05, 0.05, []float64{-0.05, 0, 0.05}},
		{"off-grid end", 0, 1, 0.3, []float64{0, 0.3, 0.6, 0.9}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Strengths(tc.start, tc.end, tc.step)
			if err != nil {
				t.Fatalf("strengths: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

// TestStrengthsClipsOffGridEnd verifies an end bound off the step grid is never overshot.
func TestStrengthsClipsOffGridEnd(t *testing.T) {
	got, err := Strengths(0, 1, 0.3)
	if err != nil {
		t.Fatalf("strengths: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 strengths, got %v", got)
	}
	for _, s := range got {
		if s > 1 {
			t.Fatalf("strength %v exceeds end 1 in %v", s, got)
		}
	}
	if got[len(got)-1] != 0.9 {
		t.Fatalf("expected last strength 0.9, got %v", got[len(got)-1])
	}
}

func TestStrengthsZeroIsPositive(t *testing.T) {
	got, err := Strengths(-0.3, 0.3, 0.1)
	if err != nil {
		t.Fatalf("strengths: %v", err)
	}
	if got[3] != 0 || 1/got[3] < 0 {
		t.Fatalf("expected +0 baseline, got %v", got[3])
	}
}

func TestStrengthsRejectsBadRange(t *testing.T) {
	for _, bounds := range [][3]float64{{0, 1, 0}, {0, 1, -0.1}, {1, 0, 0.1}} {
		if _, err := Strengths(bounds[0], bounds[1], bounds[2]); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("expected invalid range for %v, got %v", bounds, err)
		}
	}
}
