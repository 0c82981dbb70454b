package subtitle

import (
	"math"
	"time"

	"github.com/mgpai22/comcut/internal/commercial"
)

// Retime maps cues onto the timeline that remains once everything outside
// keep is cut. A cue belongs to the keep-range its start falls in and is
// shifted by the total length removed before that range; its end is shifted
// by the same amount and never clipped. Cues starting outside every range
// are dropped. Output follows range order, then source order within a range.
//
// Range bounds are rounded to whole milliseconds before comparing, matching
// the precision subtitle files carry.
func Retime(entries []Entry, keep []commercial.Range) []Entry {
	var out []Entry
	var shift, prevEnd time.Duration

	for _, r := range keep {
		start := seconds(r.Start)
		end := seconds(r.End)
		shift += prevEnd - start

		for _, e := range entries {
			if e.StartTime < start || (!r.ToEnd && e.StartTime >= end) {
				continue
			}
			e.StartTime += shift
			e.EndTime += shift
			out = append(out, e)
		}

		if r.ToEnd {
			break
		}
		prevEnd = end
	}

	return out
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s*1000)) * time.Millisecond
}
