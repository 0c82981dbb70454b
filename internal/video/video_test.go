package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mgpai22/comcut/internal/transcode"
)

type recordingRunner struct {
	calls [][]string
	exit  int
}

func (r *recordingRunner) Run(ctx context.Context, argv []string) (transcode.Result, error) {
	r.calls = append(r.calls, argv)
	return transcode.Result{ExitCode: r.exit, Stderr: "error"}, nil
}

func TestLocate(t *testing.T) {
	got := Locate("/rec/Show_WXYZ_2020_01_02_20_00_00.wtv", "/com", "/srt")
	want := SideFiles{
		Commercials: "/com/Show_WXYZ_2020_01_02_20_00_00.xml",
		Subtitles:   "/srt/Show_WXYZ_2020_01_02_20_00_00.srt",
	}
	if got != want {
		t.Errorf("Locate() = %+v, want %+v", got, want)
	}
}

func TestComskipArgs(t *testing.T) {
	tests := []struct {
		name string
		ini  string
		want []string
	}{
		{
			name: "without ini",
			want: []string{"comskip", "--output=/com", "/rec/a.wtv"},
		},
		{
			name: "with ini",
			ini:  "/etc/comskip.ini",
			want: []string{"comskip", "--ini=/etc/comskip.ini", "--output=/com", "/rec/a.wtv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComskipArgs("comskip", tt.ini, "/rec/a.wtv", "/com")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComskipArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcessorRunsTools(t *testing.T) {
	dir := t.TempDir()
	recording := filepath.Join(dir, "a.wtv")
	if err := os.WriteFile(recording, []byte("wtv"), 0644); err != nil {
		t.Fatalf("failed to write recording: %v", err)
	}

	runner := &recordingRunner{}
	p := NewProcessor(runner, Options{Comskip: "comskip", CCExtractor: "ccextractor"})

	comDir := filepath.Join(dir, "com")
	if err := p.DetectCommercials(context.Background(), recording, comDir); err != nil {
		t.Fatalf("DetectCommercials returned error: %v", err)
	}
	if _, err := os.Stat(comDir); err != nil {
		t.Errorf("commercial directory not created: %v", err)
	}

	srt := filepath.Join(dir, "srt", "a.srt")
	if err := p.ExtractSubtitles(context.Background(), recording, srt); err != nil {
		t.Fatalf("ExtractSubtitles returned error: %v", err)
	}

	want := [][]string{
		{"comskip", "--output=" + comDir, recording},
		{"ccextractor", recording, "-o", srt},
	}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
}

func TestProcessorFailures(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(&recordingRunner{exit: 3}, Options{Comskip: "comskip", CCExtractor: "ccextractor"})

	if err := p.DetectCommercials(context.Background(), filepath.Join(dir, "missing.wtv"), dir); err == nil {
		t.Error("expected error for missing recording")
	}

	recording := filepath.Join(dir, "a.wtv")
	if err := os.WriteFile(recording, []byte("wtv"), 0644); err != nil {
		t.Fatalf("failed to write recording: %v", err)
	}

	err := p.ExtractSubtitles(context.Background(), recording, filepath.Join(dir, "a.srt"))
	var toolErr *transcode.ExternalToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ExternalToolError, got %v", err)
	}
	if toolErr.Stage != "ccextractor" || toolErr.ExitCode != 3 {
		t.Errorf("unexpected tool error %+v", toolErr)
	}
}
