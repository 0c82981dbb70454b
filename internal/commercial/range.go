package commercial

import (
	"fmt"
	"strconv"
)

// time range in seconds; ToEnd ranges run to the end of the file and ignore End
type Range struct {
	Start float64
	End   float64
	ToEnd bool
}

// commercial break reported by the detector
type Marker = Range

// Duration returns the bounded length of r, or -1 for a ToEnd range.
func (r Range) Duration() float64 {
	if r.ToEnd {
		return -1
	}
	return r.End - r.Start
}

func (r Range) String() string {
	end := "end"
	if !r.ToEnd {
		end = formatSeconds(r.End)
	}
	return fmt.Sprintf("[%s, %s)", formatSeconds(r.Start), end)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

// InvalidIntervalError reports a marker list that breaks ordering or bounds.
type InvalidIntervalError struct {
	Index  int
	Marker Marker
	Reason string
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("commercial: invalid marker %d %s: %s", e.Index, e.Marker, e.Reason)
}
