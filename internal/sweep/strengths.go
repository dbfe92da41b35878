package sweep

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange reports a strength range that cannot be stepped.
var ErrInvalidRange = errors.New("invalid strength range")

// Strengths returns start, start+step, ... up to end, each rounded to two
// decimals. End is included only when it lies on the step grid and is never
// exceeded. The count is derived from the span so float drift never drops or
// adds the end point.
func Strengths(start, end, step float64) ([]float64, error) {
	for _, v := range []float64{start, end, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite bound", ErrInvalidRange)
		}
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %v", ErrInvalidRange, step)
	}
	if end < start {
		return nil, fmt.Errorf("%w: end %v is below start %v", ErrInvalidRange, end, start)
	}
	count := int(math.Floor((end-start)/step+1e-9)) + 1
	values := make([]float64, count)
	for i := range values {
		values[i] = round2(start + float64(i)*step)
	}
	return values, nil
}

func round2(v float64) float64 {
	rounded := math.RoundToEven(v*100) / 100
	if rounded == 0 {
		return 0
	}
	return rounded
}
