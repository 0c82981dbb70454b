package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/comcut/internal/commercial"
)

func cue(index int, start, end float64, text string) Entry {
	return Entry{
		Index:     index,
		StartTime: time.Duration(start * float64(time.Second)),
		EndTime:   time.Duration(end * float64(time.Second)),
		Text:      text,
	}
}

func TestRetime(t *testing.T) {
	keep := commercial.Invert([]commercial.Marker{{Start: 10, End: 20}, {Start: 50, End: 60}})
	entries := []Entry{
		cue(1, 2, 4, "before first break"),
		cue(2, 9, 12, "straddles first break"),
		cue(3, 10, 11, "in first break"),
		cue(4, 19.999, 20.5, "end of first break"),
		cue(5, 25, 27, "second segment"),
		cue(6, 55, 56, "in second break"),
		cue(7, 61, 63, "tail"),
	}

	got := Retime(entries, keep)

	want := []Entry{
		cue(1, 2, 4, "before first break"),
		cue(2, 9, 12, "straddles first break"),
		cue(5, 15, 17, "second segment"),
		cue(7, 41, 43, "tail"),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRetimeNoCommercials(t *testing.T) {
	entries := []Entry{cue(1, 0, 1, "a"), cue(2, 3600, 3601, "b")}

	got := Retime(entries, commercial.Invert(nil))
	if len(got) != 2 || got[0] != entries[0] || got[1] != entries[1] {
		t.Errorf("expected entries unchanged, got %+v", got)
	}
}

func TestRetimeOrderFollowsRanges(t *testing.T) {
	// source order is not sorted by time; output groups by keep range
	entries := []Entry{
		cue(1, 30, 31, "second range"),
		cue(2, 1, 2, "first range"),
		cue(3, 25, 26, "second range earlier"),
	}
	keep := []commercial.Range{{Start: 0, End: 10}, {Start: 20, ToEnd: true}}

	got := Retime(entries, keep)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	order := []int{got[0].Index, got[1].Index, got[2].Index}
	if order[0] != 2 || order[1] != 1 || order[2] != 3 {
		t.Errorf("unexpected order %v", order)
	}
}

func TestRetimeZeroLengthRange(t *testing.T) {
	keep := commercial.Invert([]commercial.Marker{{Start: 0, End: 30}})
	entries := []Entry{cue(1, 0, 2, "during break"), cue(2, 31, 32, "after")}

	got := Retime(entries, keep)
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %+v", got)
	}
	if got[0] != cue(2, 1, 2, "after") {
		t.Errorf("got %+v", got[0])
	}
}

func TestRetimeRoundsRangeBounds(t *testing.T) {
	// 10.0004 rounds to 10.000, so a cue at exactly 10s is in the second range
	keep := []commercial.Range{{Start: 0, End: 5}, {Start: 10.0004, ToEnd: true}}
	got := Retime([]Entry{cue(1, 10, 11, "edge")}, keep)

	if len(got) != 1 || got[0].StartTime != 5*time.Second {
		t.Errorf("unexpected result %+v", got)
	}
}

func TestRetimeSRTRoundTrip(t *testing.T) {
	content := `1
00:00:05,000 --> 00:00:07,000
Kept.

2
00:00:12,000 --> 00:00:14,000
Commercial.

3
00:00:25,000 --> 00:00:27,500
Shifted.
`
	tmpDir := t.TempDir()
	in := filepath.Join(tmpDir, "show.srt")
	if err := os.WriteFile(in, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	file, err := Open(in)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	keep := commercial.Invert([]commercial.Marker{{Start: 10, End: 20}})
	if err := file.Replace(Retime(file.Subtitle().Entries, keep)); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	out := filepath.Join(tmpDir, "out", "show.eng.srt")
	if err := Save(file, out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	want := "1\n00:00:05,000 --> 00:00:07,000\nKept.\n\n2\n00:00:15,000 --> 00:00:17,500\nShifted.\n\n"
	if string(data) != want {
		t.Errorf("unexpected output:\n%s", data)
	}

	vtt := filepath.Join(tmpDir, "show.vtt")
	if err := Save(file, vtt); err != nil {
		t.Fatalf("Save as vtt failed: %v", err)
	}
	data, err = os.ReadFile(vtt)
	if err != nil {
		t.Fatalf("failed to read vtt output: %v", err)
	}
	if !strings.HasPrefix(string(data), "WEBVTT") || !strings.Contains(string(data), "00:00:15.000 --> 00:00:17.500") {
		t.Errorf("unexpected vtt output:\n%s", data)
	}
}
