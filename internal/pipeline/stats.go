package pipeline

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total      int
	Processed  int
	Skipped    int // not settled or missing side files
	Unresolved int // waiting for 'comcut resolve'
	Failed     int

	InputBytes  int64
	OutputBytes int64
	Removed     time.Duration // commercial time cut out
}

// Summary renders the counters for the end-of-run log line.
func (s RunStats) Summary() string {
	return fmt.Sprintf(
		"%d processed, %d skipped, %d unresolved, %d failed of %d; %s in, %s out, %s of commercials removed",
		s.Processed, s.Skipped, s.Unresolved, s.Failed, s.Total,
		humanize.Bytes(uint64(s.InputBytes)),
		humanize.Bytes(uint64(s.OutputBytes)),
		s.Removed.Round(time.Second),
	)
}
