package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mgpai22/comcut/internal/commercial"
	"github.com/mgpai22/comcut/internal/ffmpeg"
	"github.com/mgpai22/comcut/internal/segment"
)

var (
	planOutput  string
	planTempDir string
)

var planCmd = &cobra.Command{
	Use:   "plan <recording> <commercials.xml>",
	Short: "Show the keep ranges and ffmpeg commands for a recording",
	Long: `Invert a comskip commercial list into keep ranges and print the ffmpeg
invocations that would cut and join them. Nothing is executed or written.

Examples:
  comcut plan show.wtv show.xml
  comcut plan show.wtv show.xml -o "/media/Show - s01e02.mp4"`,
	Args: cobra.ExactArgs(2),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().
		StringVarP(&planOutput, "output", "o", "", "Output video path (default: <recording>.mp4 in directories.out_dir)")
	planCmd.Flags().
		StringVar(&planTempDir, "temp-dir", "", "Temp directory for segments (default: directories.temp_dir)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	recording, xmlPath := args[0], args[1]

	markers, err := commercial.LoadFile(xmlPath)
	if err != nil {
		return err
	}
	keep, err := commercial.InvertStrict(markers)
	if err != nil {
		return err
	}

	output := planOutput
	if output == "" {
		base := strings.TrimSuffix(filepath.Base(recording), filepath.Ext(recording))
		output = filepath.Join(cfg.Directories.OutDir, base+".mp4")
	}
	tempDir := planTempDir
	if tempDir == "" {
		tempDir = cfg.Directories.TempDir
	}

	plan, err := segment.Layout(keep, recording, tempDir, output, ffmpeg.EncodeOptions{
		VideoCodec: cfg.FFmpeg.VideoCodec,
		Preset:     cfg.FFmpeg.Preset,
		CRF:        cfg.FFmpeg.CRF,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if info, err := os.Stat(recording); err == nil {
		fmt.Fprintf(out, "%s (%s)\n", recording, humanize.Bytes(uint64(info.Size())))
	}
	fmt.Fprintf(out, "%d commercial breaks, %d segments\n\n", len(markers), len(plan.Entries))
	fmt.Fprint(out, renderTable(
		[]string{"#", "Start", "End", "Length", "Segment"},
		planRows(plan),
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
	))

	exe := cfg.FFmpeg.Executable
	if exe == "" {
		exe = "ffmpeg"
	}
	fmt.Fprintln(out)
	for i := range plan.Entries {
		fmt.Fprintln(out, shellJoin(append([]string{exe}, plan.EncodeArgs(i)...)))
	}
	fmt.Fprintln(out, shellJoin(append([]string{exe}, plan.ConcatArgs()...)))
	return nil
}

func planRows(plan *segment.Plan) [][]string {
	rows := make([][]string, 0, len(plan.Entries))
	for _, e := range plan.Entries {
		end, length := "end", "-"
		if !e.Range.ToEnd {
			end = formatSeconds(e.Range.End)
			length = formatSeconds(e.Range.Duration())
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.Index),
			formatSeconds(e.Range.Start),
			end,
			length,
			filepath.Base(e.TempPath),
		})
	}
	return rows
}

// h:mm:ss.sss
func formatSeconds(s float64) string {
	ms := int64(s*1000 + 0.5)
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	sec := float64(ms%60_000) / 1000
	return fmt.Sprintf("%d:%02d:%06.3f", h, m, sec)
}

// quotes arguments containing shell metacharacters for display
func shellJoin(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t'\"\\$&;|<>()*?") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}
