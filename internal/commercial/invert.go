package commercial

// Invert returns the keep-ranges between markers. The first keep-range starts
// at 0 and the last runs to the end of the file. Markers are expected sorted
// and non-overlapping; Invert does not check, see InvertStrict.
func Invert(markers []Marker) []Range {
	if len(markers) == 0 {
		return []Range{{Start: 0, ToEnd: true}}
	}

	keep := make([]Range, 0, len(markers)+1)
	keep = append(keep, Range{Start: 0, End: markers[0].Start})
	for i := 0; i < len(markers)-1; i++ {
		keep = append(keep, Range{Start: markers[i].End, End: markers[i+1].Start})
	}
	keep = append(keep, Range{Start: markers[len(markers)-1].End, ToEnd: true})

	return keep
}

// InvertStrict validates markers before inverting them.
func InvertStrict(markers []Marker) ([]Range, error) {
	if err := Validate(markers); err != nil {
		return nil, err
	}
	return Invert(markers), nil
}

// Validate checks that every marker is bounded with 0 <= Start <= End and
// that markers are sorted and do not overlap. Touching markers are allowed.
func Validate(markers []Marker) error {
	for i, m := range markers {
		switch {
		case m.ToEnd:
			return &InvalidIntervalError{Index: i, Marker: m, Reason: "marker must be bounded"}
		case m.Start < 0:
			return &InvalidIntervalError{Index: i, Marker: m, Reason: "negative start"}
		case m.End < m.Start:
			return &InvalidIntervalError{Index: i, Marker: m, Reason: "end before start"}
		}

		if i == 0 {
			continue
		}
		prev := markers[i-1]
		if m.Start < prev.Start {
			return &InvalidIntervalError{Index: i, Marker: m, Reason: "markers not sorted by start"}
		}
		if m.Start < prev.End {
			return &InvalidIntervalError{Index: i, Marker: m, Reason: "overlaps previous marker " + prev.String()}
		}
	}
	return nil
}

// KeptDuration sums bounded keep-ranges and clamps a trailing ToEnd range to
// total. total <= 0 leaves ToEnd ranges out.
func KeptDuration(keep []Range, total float64) float64 {
	var sum float64
	for _, r := range keep {
		if !r.ToEnd {
			sum += r.End - r.Start
			continue
		}
		if total > r.Start {
			sum += total - r.Start
		}
	}
	return sum
}
