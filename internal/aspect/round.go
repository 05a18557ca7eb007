package aspect

import (
	"fmt"
	"math"
	"strings"
)

// RoundFunc converts a computed client dimension to whole pixels.
type RoundFunc func(float64) int32

// Truncate rounds toward zero, like an integer cast.
func Truncate(v float64) int32 { return int32(v) }

// Nearest rounds half away from zero.
func Nearest(v float64) int32 { return int32(math.Round(v)) }

func ParseRounding(s string) (RoundFunc, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate", "trunc":
		return Truncate, nil
	case "nearest", "round":
		return Nearest, nil
	default:
		return nil, fmt.Errorf("unknown rounding %q", s)
	}
}

// HeightFor returns the outer height that pairs with outer width w.
func HeightFor(w int32, ratio float64, xoff, yoff int32, round RoundFunc) int32 {
	return round(float64(w-xoff)/ratio) + yoff
}

// WidthFor returns the outer width that pairs with outer height h.
func WidthFor(h int32, ratio float64, xoff, yoff int32, round RoundFunc) int32 {
	return round(float64(h-yoff)*ratio) + xoff
}
